package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type recordRow struct {
	Address   string `gorm:"primaryKey"`
	Code      string `gorm:"not null"`
	GameType  int16  `gorm:"not null"`
	Data      []byte `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (recordRow) TableName() string { return "game_records" }

type retiredRow struct {
	Address   string `gorm:"primaryKey"`
	RetiredAt time.Time
}

func (retiredRow) TableName() string { return "retired_addresses" }

type accountRow struct {
	Address   string `gorm:"primaryKey"`
	Kind      string `gorm:"not null"`
	Owner     string `gorm:"not null;default:''"`
	Balance   int64  `gorm:"not null;default:0"`
	Wrapped   int64  `gorm:"not null;default:0"`
	Reserve   int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

func (accountRow) TableName() string { return "accounts" }

type transactionRow struct {
	ID          string    `gorm:"primaryKey"`
	FromAddress string    `gorm:"index;not null;default:''"`
	ToAddress   string    `gorm:"index;not null"`
	Amount      int64     `gorm:"not null"`
	Type        string    `gorm:"not null"`
	ReferenceID string    `gorm:"index;not null;default:''"`
	Description string    `gorm:"not null;default:''"`
	Timestamp   time.Time `gorm:"index;not null"`
}

func (transactionRow) TableName() string { return "transactions" }

// PostgresStore implements Store on Postgres through gorm. Rows read inside a
// unit of work are locked until it ends.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects to dsn and migrates the ledger tables
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&recordRow{}, &retiredRow{}, &accountRow{}, &transactionRow{}); err != nil {
		return nil, fmt.Errorf("error migrating database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// WithinTx implements Store
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(&gormTx{db: gtx})
	})
}

// DB exposes the connection so the event history can share it
func (s *PostgresStore) DB() *gorm.DB {
	return s.db
}

// Close implements Store
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) forUpdate(ctx context.Context) *gorm.DB {
	return t.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
}

func (t *gormTx) GetRecord(ctx context.Context, addr entities.Address) (*entities.GameRecord, error) {
	var row recordRow
	if err := t.forUpdate(ctx).Where("address = ?", string(addr)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("error getting game record: %w", err)
	}
	return entities.DecodeRecord(addr, row.Data)
}

func (t *gormTx) InsertRecord(ctx context.Context, record *entities.GameRecord) error {
	data, err := entities.EncodeRecord(record)
	if err != nil {
		return err
	}

	row := recordRow{
		Address:   string(record.Address),
		Code:      record.Code,
		GameType:  int16(record.GameType),
		Data:      data,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
	if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrRecordExists
		}
		return fmt.Errorf("error inserting game record: %w", err)
	}
	return nil
}

func (t *gormTx) UpdateRecord(ctx context.Context, record *entities.GameRecord) error {
	data, err := entities.EncodeRecord(record)
	if err != nil {
		return err
	}

	result := t.db.WithContext(ctx).Model(&recordRow{}).
		Where("address = ?", string(record.Address)).
		Updates(map[string]interface{}{"data": data, "updated_at": record.UpdatedAt})
	if result.Error != nil {
		return fmt.Errorf("error updating game record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (t *gormTx) DeleteRecord(ctx context.Context, addr entities.Address) error {
	result := t.db.WithContext(ctx).Where("address = ?", string(addr)).Delete(&recordRow{})
	if result.Error != nil {
		return fmt.Errorf("error deleting game record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (t *gormTx) IsRetired(ctx context.Context, addr entities.Address) (bool, error) {
	var count int64
	if err := t.db.WithContext(ctx).Model(&retiredRow{}).Where("address = ?", string(addr)).Count(&count).Error; err != nil {
		return false, fmt.Errorf("error checking retired address: %w", err)
	}
	return count > 0, nil
}

func (t *gormTx) RetireAddress(ctx context.Context, addr entities.Address) error {
	row := retiredRow{Address: string(addr), RetiredAt: time.Now()}
	if err := t.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("error retiring address: %w", err)
	}
	return nil
}

// GetAccount locks the account row. A missing row cannot be locked, so a miss
// takes a transaction-scoped advisory lock on the address and reads again:
// units of work racing to open the same account queue on that lock, and the
// later one sees the row the earlier one committed.
func (t *gormTx) GetAccount(ctx context.Context, addr entities.Address) (*entities.Account, error) {
	row, err := t.lockAccount(ctx, addr)
	if errors.Is(err, ErrAccountNotFound) {
		if err := t.db.WithContext(ctx).Exec(advisoryLockSQL, string(addr)).Error; err != nil {
			return nil, fmt.Errorf("error locking account address: %w", err)
		}
		row, err = t.lockAccount(ctx, addr)
	}
	if err != nil {
		return nil, err
	}
	return &entities.Account{
		Address:     entities.Address(row.Address),
		Kind:        entities.AccountKind(row.Kind),
		Owner:       entities.Address(row.Owner),
		Balance:     toUint64(row.Balance),
		Wrapped:     toUint64(row.Wrapped),
		Reserve:     toUint64(row.Reserve),
		LastUpdated: row.UpdatedAt,
	}, nil
}

const advisoryLockSQL = "SELECT pg_advisory_xact_lock(hashtextextended(?, 0))"

func (t *gormTx) lockAccount(ctx context.Context, addr entities.Address) (*accountRow, error) {
	var row accountRow
	if err := t.forUpdate(ctx).Where("address = ?", string(addr)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("error getting account: %w", err)
	}
	return &row, nil
}

func (t *gormTx) SaveAccount(ctx context.Context, account *entities.Account) error {
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

	row := accountRow{
		Address:   string(account.Address),
		Kind:      string(account.Kind),
		Owner:     string(account.Owner),
		Balance:   balance,
		Wrapped:   wrapped,
		Reserve:   reserve,
		UpdatedAt: account.LastUpdated,
	}
	err = t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("error saving account: %w", err)
	}
	return nil
}

func (t *gormTx) DeleteAccount(ctx context.Context, addr entities.Address) error {
	result := t.db.WithContext(ctx).Where("address = ?", string(addr)).Delete(&accountRow{})
	if result.Error != nil {
		return fmt.Errorf("error deleting account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (t *gormTx) AddTransaction(ctx context.Context, transaction *entities.Transaction) error {
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

	row := transactionRow{
		ID:          transaction.ID,
		FromAddress: string(transaction.From),
		ToAddress:   string(transaction.To),
		Amount:      amount,
		Type:        string(transaction.Type),
		ReferenceID: transaction.ReferenceID,
		Description: transaction.Description,
		Timestamp:   transaction.Timestamp,
	}
	if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("error adding transaction: %w", err)
	}
	return nil
}

func (t *gormTx) GetTransactions(ctx context.Context, addr entities.Address, limit int) ([]*entities.Transaction, error) {
	var rows []transactionRow
	q := t.db.WithContext(ctx).
		Where("from_address = ? OR to_address = ?", string(addr), string(addr)).
		Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}

	transactions := make([]*entities.Transaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, &entities.Transaction{
			ID:          row.ID,
			From:        entities.Address(row.FromAddress),
			To:          entities.Address(row.ToAddress),
			Amount:      toUint64(row.Amount),
			Type:        entities.TransactionType(row.Type),
			ReferenceID: row.ReferenceID,
			Description: row.Description,
			Timestamp:   row.Timestamp,
		})
	}
	return transactions, nil
}

// isUniqueViolation reports a Postgres unique_violation (23505)
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
