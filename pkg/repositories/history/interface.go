package history

import (
	"context"
	"time"

	"github.com/fadedpez/wagerescrow/pkg/entities"
)

//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_history

// Repository stores the audit trail of lifecycle events. Events are
// returned newest first.
type Repository interface {
	RecordEvent(ctx context.Context, event *entities.GameEvent) error
	GameEvents(ctx context.Context, addr entities.Address, limit int) ([]*entities.GameEvent, error)
	PlayerEvents(ctx context.Context, player entities.Identity, limit int) ([]*entities.GameEvent, error)

	// Prune removes events older than before and returns how many went
	Prune(ctx context.Context, before time.Time) (int64, error)

	// Close closes any resources used by the repository
	Close() error
}
