package ledger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/stretchr/testify/suite"
)

// StoreTestSuite runs the same behavioural checks against every Store
type StoreTestSuite struct {
	suite.Suite
	newStore func(t *testing.T) Store
	store    Store
	ctx      context.Context
}

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: func(t *testing.T) Store {
		return NewMemoryStore()
	}})
}

func TestSQLiteStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: func(t *testing.T) Store {
		store, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
		if err != nil {
			t.Fatalf("open sqlite store: %v", err)
		}
		return store
	}})
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("WAGERESCROW_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("WAGERESCROW_TEST_DATABASE_URL not set")
	}
	suite.Run(t, &StoreTestSuite{newStore: func(t *testing.T) Store {
		store, err := NewPostgresStore(context.Background(), dsn)
		if err != nil {
			t.Fatalf("open postgres store: %v", err)
		}
		if err := store.db.Exec("TRUNCATE game_records, retired_addresses, accounts, transactions").Error; err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return store
	}})
}

func (s *StoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore(s.T())
}

func (s *StoreTestSuite) TearDownTest() {
	s.store.Close()
}

func testRecord(addr entities.Address) *entities.GameRecord {
	return &entities.GameRecord{
		Address:       addr,
		Code:          "table-9",
		GameType:      entities.GameTypeSnakesAndLadders,
		Wager:         250,
		MinPlayers:    2,
		MaxPlayers:    3,
		PlayersJoined: 1,
		Players:       [entities.MaxSlots]entities.Identity{"alice"},
		Markers:       [entities.MaxSlots]entities.Marker{"red"},
		CreatedAt:     time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
	}
}

func (s *StoreTestSuite) TestRecordLifecycle() {
	record := testRecord("rec-1")

	// Insert
	err := s.store.WithinTx(s.ctx, func(tx Tx) error {
		return tx.InsertRecord(s.ctx, record)
	})
	s.Require().NoError(err)

	// Duplicate insert
	err = s.store.WithinTx(s.ctx, func(tx Tx) error {
		return tx.InsertRecord(s.ctx, record)
	})
	s.ErrorIs(err, ErrRecordExists)

	// Update
	err = s.store.WithinTx(s.ctx, func(tx Tx) error {
		got, err := tx.GetRecord(s.ctx, "rec-1")
		if err != nil {
			return err
		}
		got.Players[1] = "bob"
		got.Markers[1] = "blue"
		got.PlayersJoined = 2
		return tx.UpdateRecord(s.ctx, got)
	})
	s.Require().NoError(err)

	// Read back
	var got *entities.GameRecord
	err = s.store.WithinTx(s.ctx, func(tx Tx) error {
		var err error
		got, err = tx.GetRecord(s.ctx, "rec-1")
		return err
	})
	s.Require().NoError(err)
	s.Equal(uint8(2), got.PlayersJoined)
	s.Equal(entities.Identity("bob"), got.Players[1])
	s.Equal(record.Wager, got.Wager)
	s.Equal(record.Code, got.Code)

	// Delete
	err = s.store.WithinTx(s.ctx, func(tx Tx) error {
		return tx.DeleteRecord(s.ctx, "rec-1")
	})
	s.Require().NoError(err)

	err = s.store.WithinTx(s.ctx, func(tx Tx) error {
		_, err := tx.GetRecord(s.ctx, "rec-1")
		return err
	})
	s.ErrorIs(err, ErrRecordNotFound)
}

func (s *StoreTestSuite) TestMissingRecord() {
	err := s.store.WithinTx(s.ctx, func(tx Tx) error {
		return tx.UpdateRecord(s.ctx, testRecord("nope"))
	})
	s.ErrorIs(err, ErrRecordNotFound)

	err = s.store.WithinTx(s.ctx, func(tx Tx) error {
		return tx.DeleteRecord(s.ctx, "nope")
	})
	s.ErrorIs(err, ErrRecordNotFound)
}

func (s *StoreTestSuite) TestRetiredAddresses() {
	err := s.store.WithinTx(s.ctx, func(tx Tx) error {
		retired, err := tx.IsRetired(s.ctx, "rec-2")
		s.False(retired)
		if err != nil {
			return err
		}
		if err := tx.RetireAddress(s.ctx, "rec-2"); err != nil {
			return err
		}
		return tx.RetireAddress(s.ctx, "rec-2")
	})
	s.Require().NoError(err)

	err = s.store.WithinTx(s.ctx, func(tx Tx) error {
		retired, err := tx.IsRetired(s.ctx, "rec-2")
		s.True(retired)
		return err
	})
	s.Require().NoError(err)
}

func (s *StoreTestSuite) TestAccounts() {
	err := s.store.WithinTx(s.ctx, func(tx Tx) error {
		return tx.SaveAccount(s.ctx, &entities.Account{
			Address: "custody-1",
			Kind:    entities.AccountKindCustody,
			Owner:   "rec-1",
			Balance: 5000,
			Wrapped: 3000,
			Reserve: 2000,
		})
	})
	s.Require().NoError(err)

	var got *entities.Account
	err = s.store.WithinTx(s.ctx, func(tx Tx) error {
		var err error
		got, err = tx.GetAccount(s.ctx, "custody-1")
		return err
	})
	s.Require().NoError(err)
	s.Equal(entities.AccountKindCustody, got.Kind)
	s.Equal(entities.Address("rec-1"), got.Owner)
	s.Equal(uint64(5000), got.Balance)
	s.Equal(uint64(3000), got.Wrapped)
	s.Equal(uint64(2000), got.Reserve)
	s.False(got.LastUpdated.IsZero())

	err = s.store.WithinTx(s.ctx, func(tx Tx) error {
		got.Balance = 10
		if err := tx.SaveAccount(s.ctx, got); err != nil {
			return err
		}
		updated, err := tx.GetAccount(s.ctx, "custody-1")
		if err != nil {
			return err
		}
		s.Equal(uint64(10), updated.Balance)
		return tx.DeleteAccount(s.ctx, "custody-1")
	})
	s.Require().NoError(err)

	err = s.store.WithinTx(s.ctx, func(tx Tx) error {
		_, err := tx.GetAccount(s.ctx, "custody-1")
		return err
	})
	s.ErrorIs(err, ErrAccountNotFound)
}

func (s *StoreTestSuite) TestConcurrentFirstCreditsAreNotLost() {
	// Setup
	const (
		workers = 8
		amount  = 25
	)
	credit := func() error {
		return s.store.WithinTx(s.ctx, func(tx Tx) error {
			account, err := tx.GetAccount(s.ctx, "fresh")
			if errors.Is(err, ErrAccountNotFound) {
				account = &entities.Account{Address: "fresh", Kind: entities.AccountKindWallet}
			} else if err != nil {
				return err
			}
			account.Balance += amount
			if err := tx.SaveAccount(s.ctx, account); err != nil {
				return err
			}
			return tx.AddTransaction(s.ctx, &entities.Transaction{To: "fresh", Amount: amount, Type: entities.TransactionTypeFunding})
		})
	}

	// Execute
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- credit()
		}()
	}
	wg.Wait()
	close(errs)

	// Assert
	for err := range errs {
		s.Require().NoError(err)
	}
	err := s.store.WithinTx(s.ctx, func(tx Tx) error {
		account, err := tx.GetAccount(s.ctx, "fresh")
		if err != nil {
			return err
		}
		s.Equal(uint64(workers*amount), account.Balance)

		txs, err := tx.GetTransactions(s.ctx, "fresh", 0)
		if err != nil {
			return err
		}
		s.Len(txs, workers)
		return nil
	})
	s.Require().NoError(err)
}

func (s *StoreTestSuite) TestAmountOverflowRejected() {
	if _, ok := s.store.(*MemoryStore); ok {
		s.T().Skip("memory store keeps full uint64 range")
	}
	err := s.store.WithinTx(s.ctx, func(tx Tx) error {
		return tx.SaveAccount(s.ctx, &entities.Account{Address: "big", Kind: entities.AccountKindWallet, Balance: 1 << 63})
	})
	s.ErrorIs(err, ErrAmountOverflow)
}

func (s *StoreTestSuite) TestTransactionsNewestFirst() {
	base := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	err := s.store.WithinTx(s.ctx, func(tx Tx) error {
		for i, typ := range []entities.TransactionType{
			entities.TransactionTypeFunding,
			entities.TransactionTypeStake,
			entities.TransactionTypePayout,
		} {
			err := tx.AddTransaction(s.ctx, &entities.Transaction{
				From:      "alice",
				To:        "rec-1",
				Amount:    uint64(100 * (i + 1)),
				Type:      typ,
				Timestamp: base.Add(time.Duration(i) * time.Minute),
			})
			if err != nil {
				return err
			}
		}
		return tx.AddTransaction(s.ctx, &entities.Transaction{From: "carol", To: "dave", Amount: 1, Type: entities.TransactionTypeStake})
	})
	s.Require().NoError(err)

	var txs []*entities.Transaction
	err = s.store.WithinTx(s.ctx, func(tx Tx) error {
		var err error
		txs, err = tx.GetTransactions(s.ctx, "alice", 2)
		return err
	})
	s.Require().NoError(err)
	s.Require().Len(txs, 2)
	s.Equal(entities.TransactionTypePayout, txs[0].Type)
	s.Equal(uint64(300), txs[0].Amount)
	s.Equal(entities.TransactionTypeStake, txs[1].Type)
	s.NotEmpty(txs[0].ID)
	s.True(txs[0].Timestamp.Equal(base.Add(2 * time.Minute)))

	err = s.store.WithinTx(s.ctx, func(tx Tx) error {
		var err error
		txs, err = tx.GetTransactions(s.ctx, "rec-1", 0)
		return err
	})
	s.Require().NoError(err)
	s.Len(txs, 3)
}

func (s *StoreTestSuite) TestFailedUnitOfWorkRollsBack() {
	boom := errors.New("boom")

	err := s.store.WithinTx(s.ctx, func(tx Tx) error {
		if err := tx.InsertRecord(s.ctx, testRecord("rec-3")); err != nil {
			return err
		}
		if err := tx.SaveAccount(s.ctx, &entities.Account{Address: "rec-3", Kind: entities.AccountKindGame, Balance: 9}); err != nil {
			return err
		}
		if err := tx.AddTransaction(s.ctx, &entities.Transaction{From: "alice", To: "rec-3", Amount: 9, Type: entities.TransactionTypeStake}); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	err = s.store.WithinTx(s.ctx, func(tx Tx) error {
		_, err := tx.GetRecord(s.ctx, "rec-3")
		s.ErrorIs(err, ErrRecordNotFound)
		_, err = tx.GetAccount(s.ctx, "rec-3")
		s.ErrorIs(err, ErrAccountNotFound)
		txs, err := tx.GetTransactions(s.ctx, "rec-3", 10)
		s.Empty(txs)
		return err
	})
	s.NoError(err)
}

func (s *StoreTestSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	called := false
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		called = true
		return nil
	})

	s.Error(err)
	s.False(called)
}
