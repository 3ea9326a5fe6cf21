package history

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/fadedpez/wagerescrow/pkg/repositories/ledger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type eventRow struct {
	ID          string    `gorm:"primaryKey"`
	Seq         int64     `gorm:"autoIncrement;not null"`
	Type        string    `gorm:"not null"`
	GameAddress string    `gorm:"index;not null"`
	Code        string    `gorm:"not null"`
	GameType    int16     `gorm:"not null"`
	Actor       string    `gorm:"not null;default:''"`
	Amount      int64     `gorm:"not null;default:0"`
	Winner      string    `gorm:"not null;default:''"`
	Players     string    `gorm:"not null;default:''"`
	Timestamp   time.Time `gorm:"index;not null"`
}

func (eventRow) TableName() string { return "game_events" }

type eventPlayerRow struct {
	EventID string `gorm:"primaryKey"`
	Player  string `gorm:"primaryKey;index"`
}

func (eventPlayerRow) TableName() string { return "game_event_players" }

// PostgresRepository implements Repository on the ledger's Postgres
// database through gorm
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository migrates the event tables on db. The connection
// belongs to the caller and Close leaves it open.
func NewPostgresRepository(ctx context.Context, db *gorm.DB) (*PostgresRepository, error) {
	if err := db.WithContext(ctx).AutoMigrate(&eventRow{}, &eventPlayerRow{}); err != nil {
		return nil, fmt.Errorf("error migrating game events: %w", err)
	}
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) RecordEvent(ctx context.Context, event *entities.GameEvent) error {
	if event.Amount > math.MaxInt64 {
		return fmt.Errorf("%w: %d", ledger.ErrAmountOverflow, event.Amount)
	}

	row := eventRow{
		ID:          event.ID,
		Type:        string(event.Type),
		GameAddress: string(event.GameAddress),
		Code:        event.Code,
		GameType:    int16(event.GameType),
		Actor:       string(event.Actor),
		Amount:      int64(event.Amount),
		Winner:      string(event.Winner),
		Players:     joinPlayers(event.Players),
		Timestamp:   event.Timestamp.UTC(),
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("error inserting game event: %w", err)
		}
		for _, player := range participants(event) {
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&eventPlayerRow{EventID: event.ID, Player: string(player)}).Error
			if err != nil {
				return fmt.Errorf("error indexing event player: %w", err)
			}
		}
		return nil
	})
}

func (r *PostgresRepository) GameEvents(ctx context.Context, addr entities.Address, limit int) ([]*entities.GameEvent, error) {
	q := r.db.WithContext(ctx).Where("game_address = ?", string(addr))
	return r.find(q, limit)
}

func (r *PostgresRepository) PlayerEvents(ctx context.Context, player entities.Identity, limit int) ([]*entities.GameEvent, error) {
	q := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&eventPlayerRow{}).Select("event_id").Where("player = ?", string(player)))
	return r.find(q, limit)
}

func (r *PostgresRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	var pruned int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := r.db.Model(&eventRow{}).Select("id").Where("timestamp < ?", before.UTC())
		if err := tx.Where("event_id IN (?)", stale).Delete(&eventPlayerRow{}).Error; err != nil {
			return fmt.Errorf("error pruning event players: %w", err)
		}
		result := tx.Where("timestamp < ?", before.UTC()).Delete(&eventRow{})
		if result.Error != nil {
			return fmt.Errorf("error pruning game events: %w", result.Error)
		}
		pruned = result.RowsAffected
		return nil
	})
	return pruned, err
}

func (r *PostgresRepository) Close() error {
	return nil
}

func (r *PostgresRepository) find(q *gorm.DB, limit int) ([]*entities.GameEvent, error) {
	q = q.Order("timestamp DESC").Order("seq DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []eventRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error querying game events: %w", err)
	}

	events := make([]*entities.GameEvent, 0, len(rows))
	for _, row := range rows {
		event := &entities.GameEvent{
			ID:          row.ID,
			Type:        entities.EventType(row.Type),
			GameAddress: entities.Address(row.GameAddress),
			Code:        row.Code,
			GameType:    entities.GameType(row.GameType),
			Actor:       entities.Identity(row.Actor),
			Winner:      entities.Identity(row.Winner),
			Players:     splitPlayers(row.Players),
			Timestamp:   row.Timestamp,
		}
		if row.Amount > 0 {
			event.Amount = uint64(row.Amount)
		}
		events = append(events, event)
	}
	return events, nil
}
