package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/fadedpez/wagerescrow/pkg/entities"
)

var (
	ErrRecordNotFound  = errors.New("game record not found")
	ErrRecordExists    = errors.New("game record already exists")
	ErrAccountNotFound = errors.New("account not found")
	ErrAmountOverflow  = errors.New("amount exceeds storable range")
)

// Store runs units of work against the ledger. Everything done through the
// Tx passed to fn is committed together when fn returns nil and discarded
// otherwise. Units of work touching the same record are serialized.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	// Close closes any resources used by the store
	Close() error
}

// Tx is the view of the ledger inside one unit of work. It must not be used
// after the surrounding WithinTx call returns.
type Tx interface {
	// Game records
	GetRecord(ctx context.Context, addr entities.Address) (*entities.GameRecord, error)
	InsertRecord(ctx context.Context, record *entities.GameRecord) error
	UpdateRecord(ctx context.Context, record *entities.GameRecord) error
	DeleteRecord(ctx context.Context, addr entities.Address) error

	// Closed addresses that may not be reused
	IsRetired(ctx context.Context, addr entities.Address) (bool, error)
	RetireAddress(ctx context.Context, addr entities.Address) error

	// Accounts
	GetAccount(ctx context.Context, addr entities.Address) (*entities.Account, error)
	SaveAccount(ctx context.Context, account *entities.Account) error
	DeleteAccount(ctx context.Context, addr entities.Address) error

	// Ledger entries
	AddTransaction(ctx context.Context, transaction *entities.Transaction) error
	GetTransactions(ctx context.Context, addr entities.Address, limit int) ([]*entities.Transaction, error)
}

// toInt64 guards the conversion for SQL backends that store signed integers
func toInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d", ErrAmountOverflow, v)
	}
	return int64(v), nil
}

func toUint64(v int64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}
