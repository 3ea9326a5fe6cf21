package ledger

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/google/uuid"
)

// MemoryStore implements Store using in-memory storage. Units of work run
// one at a time against a snapshot that replaces the live state on success.
type MemoryStore struct {
	state memoryState
	mu    sync.Mutex
}

type memoryState struct {
	records      map[entities.Address][]byte
	retired      map[entities.Address]time.Time
	accounts     map[entities.Address]entities.Account
	transactions []entities.Transaction
}

func (s memoryState) clone() memoryState {
	return memoryState{
		records:      maps.Clone(s.records),
		retired:      maps.Clone(s.retired),
		accounts:     maps.Clone(s.accounts),
		transactions: slices.Clip(s.transactions),
	}
}

// NewMemoryStore creates a new in-memory ledger store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: memoryState{
			records:  make(map[entities.Address][]byte),
			retired:  make(map[entities.Address]time.Time),
			accounts: make(map[entities.Address]entities.Account),
		},
	}
}

// WithinTx implements Store
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{state: s.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// Close implements Store
func (s *MemoryStore) Close() error {
	return nil
}

type memoryTx struct {
	state memoryState
}

func (t *memoryTx) GetRecord(ctx context.Context, addr entities.Address) (*entities.GameRecord, error) {
	data, exists := t.state.records[addr]
	if !exists {
		return nil, ErrRecordNotFound
	}
	return entities.DecodeRecord(addr, data)
}

func (t *memoryTx) InsertRecord(ctx context.Context, record *entities.GameRecord) error {
	if _, exists := t.state.records[record.Address]; exists {
		return ErrRecordExists
	}
	data, err := entities.EncodeRecord(record)
	if err != nil {
		return err
	}
	t.state.records[record.Address] = data
	return nil
}

func (t *memoryTx) UpdateRecord(ctx context.Context, record *entities.GameRecord) error {
	if _, exists := t.state.records[record.Address]; !exists {
		return ErrRecordNotFound
	}
	data, err := entities.EncodeRecord(record)
	if err != nil {
		return err
	}
	t.state.records[record.Address] = data
	return nil
}

func (t *memoryTx) DeleteRecord(ctx context.Context, addr entities.Address) error {
	if _, exists := t.state.records[addr]; !exists {
		return ErrRecordNotFound
	}
	delete(t.state.records, addr)
	return nil
}

func (t *memoryTx) IsRetired(ctx context.Context, addr entities.Address) (bool, error) {
	_, retired := t.state.retired[addr]
	return retired, nil
}

func (t *memoryTx) RetireAddress(ctx context.Context, addr entities.Address) error {
	if _, retired := t.state.retired[addr]; !retired {
		t.state.retired[addr] = time.Now()
	}
	return nil
}

func (t *memoryTx) GetAccount(ctx context.Context, addr entities.Address) (*entities.Account, error) {
	account, exists := t.state.accounts[addr]
	if !exists {
		return nil, ErrAccountNotFound
	}
	return &account, nil
}

func (t *memoryTx) SaveAccount(ctx context.Context, account *entities.Account) error {
	account.LastUpdated = time.Now()
	t.state.accounts[account.Address] = *account
	return nil
}

func (t *memoryTx) DeleteAccount(ctx context.Context, addr entities.Address) error {
	if _, exists := t.state.accounts[addr]; !exists {
		return ErrAccountNotFound
	}
	delete(t.state.accounts, addr)
	return nil
}

func (t *memoryTx) AddTransaction(ctx context.Context, transaction *entities.Transaction) error {
	if transaction.ID == "" {
		transaction.ID = uuid.New().String()
	}
	if transaction.Timestamp.IsZero() {
		transaction.Timestamp = time.Now()
	}
	t.state.transactions = append(t.state.transactions, *transaction)
	return nil
}

func (t *memoryTx) GetTransactions(ctx context.Context, addr entities.Address, limit int) ([]*entities.Transaction, error) {
	result := make([]*entities.Transaction, 0)
	for i := range t.state.transactions {
		tx := t.state.transactions[i]
		if tx.From == addr || tx.To == addr {
			result = append(result, &tx)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
