package history

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/fadedpez/wagerescrow/pkg/repositories/ledger"
)

// SQLiteRepository implements Repository on the ledger's SQLite database
type SQLiteRepository struct {
	db    *sql.DB
	owned bool
}

// NewSQLiteRepository opens dbPath and applies migrations
func NewSQLiteRepository(ctx context.Context, dbPath string) (*SQLiteRepository, error) {
	db, err := ledger.OpenSQLite(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	return &SQLiteRepository{db: db, owned: true}, nil
}

// NewSQLiteRepositoryFromDB shares an already migrated connection. Close
// leaves it open for its owner.
func NewSQLiteRepositoryFromDB(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) RecordEvent(ctx context.Context, event *entities.GameEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if event.Amount > math.MaxInt64 {
		return fmt.Errorf("%w: %d", ledger.ErrAmountOverflow, event.Amount)
	}
	amount := int64(event.Amount)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO game_events (id, type, game_address, code, game_type, actor, amount, winner, players, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Type, event.GameAddress, event.Code, int(event.GameType),
		event.Actor, amount, event.Winner, joinPlayers(event.Players),
		ledger.FormatTimestamp(event.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("error inserting game event: %w", err)
	}

	for _, player := range participants(event) {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO game_event_players (event_id, player) VALUES (?, ?)",
			event.ID, player,
		)
		if err != nil {
			return fmt.Errorf("error indexing event player: %w", err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) GameEvents(ctx context.Context, addr entities.Address, limit int) ([]*entities.GameEvent, error) {
	return r.query(ctx, `
		SELECT id, type, game_address, code, game_type, actor, amount, winner, players, timestamp
		FROM game_events
		WHERE game_address = ?
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ?`, addr, sqlLimit(limit))
}

func (r *SQLiteRepository) PlayerEvents(ctx context.Context, player entities.Identity, limit int) ([]*entities.GameEvent, error) {
	return r.query(ctx, `
		SELECT e.id, e.type, e.game_address, e.code, e.game_type, e.actor, e.amount, e.winner, e.players, e.timestamp
		FROM game_events e
		JOIN game_event_players p ON p.event_id = e.id
		WHERE p.player = ?
		ORDER BY e.timestamp DESC, e.rowid DESC
		LIMIT ?`, player, sqlLimit(limit))
}

func (r *SQLiteRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM game_events WHERE timestamp < ?", ledger.FormatTimestamp(before))
	if err != nil {
		return 0, fmt.Errorf("error pruning game events: %w", err)
	}
	return result.RowsAffected()
}

func (r *SQLiteRepository) Close() error {
	if !r.owned {
		return nil
	}
	return r.db.Close()
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]*entities.GameEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying game events: %w", err)
	}
	defer rows.Close()

	events := make([]*entities.GameEvent, 0)
	for rows.Next() {
		var (
			event     entities.GameEvent
			gameType  int
			amount    int64
			players   string
			timestamp string
		)
		err := rows.Scan(&event.ID, &event.Type, &event.GameAddress, &event.Code, &gameType,
			&event.Actor, &amount, &event.Winner, &players, &timestamp)
		if err != nil {
			return nil, fmt.Errorf("error scanning game event: %w", err)
		}
		event.GameType = entities.GameType(gameType)
		if amount > 0 {
			event.Amount = uint64(amount)
		}
		event.Players = splitPlayers(players)
		if event.Timestamp, err = ledger.ParseTimestamp(timestamp); err != nil {
			return nil, err
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game events: %w", err)
	}
	return events, nil
}

// participants is everyone an event should be findable by
func participants(event *entities.GameEvent) []entities.Identity {
	out := make([]entities.Identity, 0, len(event.Players)+1)
	if event.Actor != entities.NoIdentity {
		out = append(out, event.Actor)
	}
	for _, p := range event.Players {
		if p != entities.NoIdentity {
			out = append(out, p)
		}
	}
	return out
}

// identities never contain a newline, so it separates the stored list
func joinPlayers(players []entities.Identity) string {
	parts := make([]string, len(players))
	for i, p := range players {
		parts[i] = string(p)
	}
	return strings.Join(parts, "\n")
}

func splitPlayers(s string) []entities.Identity {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "\n")
	out := make([]entities.Identity, len(parts))
	for i, p := range parts {
		out[i] = entities.Identity(p)
	}
	return out
}

func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
