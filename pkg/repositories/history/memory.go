package history

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/fadedpez/wagerescrow/pkg/entities"
)

// MemoryRepository implements Repository in memory
type MemoryRepository struct {
	mu     sync.RWMutex
	events []*entities.GameEvent
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) RecordEvent(ctx context.Context, event *entities.GameEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, cloneEvent(event))
	return nil
}

func (r *MemoryRepository) GameEvents(ctx context.Context, addr entities.Address, limit int) ([]*entities.GameEvent, error) {
	return r.find(ctx, limit, func(e *entities.GameEvent) bool {
		return e.GameAddress == addr
	})
}

func (r *MemoryRepository) PlayerEvents(ctx context.Context, player entities.Identity, limit int) ([]*entities.GameEvent, error) {
	return r.find(ctx, limit, func(e *entities.GameEvent) bool {
		return e.Actor == player || slices.Contains(e.Players, player)
	})
}

func (r *MemoryRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.events)
	r.events = slices.DeleteFunc(r.events, func(e *entities.GameEvent) bool {
		return e.Timestamp.Before(before)
	})
	return int64(n - len(r.events)), nil
}

func (r *MemoryRepository) Close() error {
	return nil
}

func (r *MemoryRepository) find(ctx context.Context, limit int, match func(*entities.GameEvent) bool) ([]*entities.GameEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.GameEvent, 0)
	// newest first; ties keep reverse insertion order
	for i := len(r.events) - 1; i >= 0; i-- {
		if match(r.events[i]) {
			out = append(out, cloneEvent(r.events[i]))
		}
	}
	slices.SortStableFunc(out, func(a, b *entities.GameEvent) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneEvent(e *entities.GameEvent) *entities.GameEvent {
	c := *e
	c.Players = slices.Clone(e.Players)
	return &c
}
