package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fadedpez/wagerescrow/pkg/db/migrations"
	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

const timestampFormat = "2006-01-02 15:04:05.000000000"

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a migrated SQLite database. Writers
// take the database lock when their transaction begins.
func OpenSQLite(ctx context.Context, dbPath string) (*sql.DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// one connection keeps units of work strictly ordered and lets an
	// in-memory database survive between calls
	db.SetMaxOpenConns(1)

	if err := migrations.NewMigrator(db, migrations.SQLite()).MigrateUp(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error migrating database: %w", err)
	}
	return db, nil
}

// NewSQLiteStore creates a new SQLite ledger store
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := OpenSQLite(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// WithinTx implements Store
func (s *SQLiteStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}

	if err := fn(&sqliteTx{tx: sqlTx}); err != nil {
		sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

// DB exposes the connection for repositories sharing the database file
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) GetRecord(ctx context.Context, addr entities.Address) (*entities.GameRecord, error) {
	var data []byte
	err := t.tx.QueryRowContext(ctx, `SELECT data FROM game_records WHERE address = ?`, addr).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("error getting game record: %w", err)
	}
	return entities.DecodeRecord(addr, data)
}

func (t *sqliteTx) InsertRecord(ctx context.Context, record *entities.GameRecord) error {
	data, err := entities.EncodeRecord(record)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO game_records (address, code, game_type, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = t.tx.ExecContext(ctx, query,
		record.Address, record.Code, int(record.GameType), data,
		FormatTimestamp(record.CreatedAt), FormatTimestamp(record.UpdatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrRecordExists
		}
		return fmt.Errorf("error inserting game record: %w", err)
	}
	return nil
}

func (t *sqliteTx) UpdateRecord(ctx context.Context, record *entities.GameRecord) error {
	data, err := entities.EncodeRecord(record)
	if err != nil {
		return err
	}

	result, err := t.tx.ExecContext(ctx,
		`UPDATE game_records SET data = ?, updated_at = ? WHERE address = ?`,
		data, FormatTimestamp(record.UpdatedAt), record.Address,
	)
	if err != nil {
		return fmt.Errorf("error updating game record: %w", err)
	}
	return requireRow(result, ErrRecordNotFound)
}

func (t *sqliteTx) DeleteRecord(ctx context.Context, addr entities.Address) error {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM game_records WHERE address = ?`, addr)
	if err != nil {
		return fmt.Errorf("error deleting game record: %w", err)
	}
	return requireRow(result, ErrRecordNotFound)
}

func (t *sqliteTx) IsRetired(ctx context.Context, addr entities.Address) (bool, error) {
	var exists int
	err := t.tx.QueryRowContext(ctx, `SELECT 1 FROM retired_addresses WHERE address = ?`, addr).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("error checking retired address: %w", err)
	}
	return true, nil
}

func (t *sqliteTx) RetireAddress(ctx context.Context, addr entities.Address) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO retired_addresses (address, retired_at) VALUES (?, ?) ON CONFLICT(address) DO NOTHING`,
		addr, FormatTimestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("error retiring address: %w", err)
	}
	return nil
}

func (t *sqliteTx) GetAccount(ctx context.Context, addr entities.Address) (*entities.Account, error) {
	query := `SELECT address, kind, owner, balance, wrapped, reserve, updated_at FROM accounts WHERE address = ?`

	var account entities.Account
	var balance, wrapped, reserve int64
	var updatedAt string

	err := t.tx.QueryRowContext(ctx, query, addr).Scan(
		&account.Address,
		&account.Kind,
		&account.Owner,
		&balance,
		&wrapped,
		&reserve,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("error getting account: %w", err)
	}

	account.Balance = toUint64(balance)
	account.Wrapped = toUint64(wrapped)
	account.Reserve = toUint64(reserve)
	if account.LastUpdated, err = ParseTimestamp(updatedAt); err != nil {
		return nil, err
	}
	return &account, nil
}

func (t *sqliteTx) SaveAccount(ctx context.Context, account *entities.Account) error {
	balance, err := toInt64(account.Balance)
	if err != nil {
		return err
	}
	wrapped, err := toInt64(account.Wrapped)
	if err != nil {
		return err
	}
	reserve, err := toInt64(account.Reserve)
	if err != nil {
		return err
	}
	account.LastUpdated = time.Now()

	query := `
		INSERT INTO accounts (address, kind, owner, balance, wrapped, reserve, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			kind = excluded.kind,
			owner = excluded.owner,
			balance = excluded.balance,
			wrapped = excluded.wrapped,
			reserve = excluded.reserve,
			updated_at = excluded.updated_at
	`
	_, err = t.tx.ExecContext(ctx, query,
		account.Address, account.Kind, account.Owner, balance, wrapped, reserve, FormatTimestamp(account.LastUpdated),
	)
	if err != nil {
		return fmt.Errorf("error saving account: %w", err)
	}
	return nil
}

func (t *sqliteTx) DeleteAccount(ctx context.Context, addr entities.Address) error {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM accounts WHERE address = ?`, addr)
	if err != nil {
		return fmt.Errorf("error deleting account: %w", err)
	}
	return requireRow(result, ErrAccountNotFound)
}

func (t *sqliteTx) AddTransaction(ctx context.Context, transaction *entities.Transaction) error {
	if transaction.ID == "" {
		transaction.ID = uuid.New().String()
	}
	if transaction.Timestamp.IsZero() {
		transaction.Timestamp = time.Now()
	}
	amount, err := toInt64(transaction.Amount)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO transactions (
			id, from_address, to_address, amount, type, reference_id, description, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = t.tx.ExecContext(ctx, query,
		transaction.ID,
		transaction.From,
		transaction.To,
		amount,
		transaction.Type,
		transaction.ReferenceID,
		transaction.Description,
		FormatTimestamp(transaction.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("error adding transaction: %w", err)
	}
	return nil
}

func (t *sqliteTx) GetTransactions(ctx context.Context, addr entities.Address, limit int) ([]*entities.Transaction, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}
	query := `
		SELECT id, from_address, to_address, amount, type, reference_id, description, timestamp
		FROM transactions
		WHERE from_address = ? OR to_address = ?
		ORDER BY timestamp DESC, rowid ASC
		LIMIT ?
	`

	rows, err := t.tx.QueryContext(ctx, query, addr, addr, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]*entities.Transaction, 0)
	for rows.Next() {
		var tx entities.Transaction
		var amount int64
		var timestamp string

		err := rows.Scan(
			&tx.ID,
			&tx.From,
			&tx.To,
			&amount,
			&tx.Type,
			&tx.ReferenceID,
			&tx.Description,
			&timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning transaction row: %w", err)
		}

		tx.Amount = toUint64(amount)
		if tx.Timestamp, err = ParseTimestamp(timestamp); err != nil {
			return nil, err
		}
		transactions = append(transactions, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return transactions, nil
}

func requireRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}

func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

// FormatTimestamp renders t the way SQLite rows store it
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

// ParseTimestamp accepts our own format plus the ones SQLite produces by default
func ParseTimestamp(value string) (time.Time, error) {
	formats := []string{
		timestampFormat,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
		time.RFC3339Nano,
	}

	var parseErr error
	for _, format := range formats {
		t, err := time.Parse(format, value)
		if err == nil {
			return t, nil
		}
		parseErr = err
	}
	return time.Time{}, fmt.Errorf("error parsing timestamp '%s': %w", value, parseErr)
}
