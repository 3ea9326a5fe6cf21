package escrow

import (
	"context"
	"testing"

	"github.com/fadedpez/wagerescrow/internal/types"
	"github.com/fadedpez/wagerescrow/pkg/addressing"
	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/fadedpez/wagerescrow/pkg/repositories/ledger"
	"github.com/fadedpez/wagerescrow/pkg/services/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

func TestMinimumBalance(t *testing.T) {
	schedule := DefaultReserveSchedule()

	assert.Equal(t, uint64(128*3480*2), schedule.MinimumBalance(0))
	assert.Equal(t, uint64((128+165)*3480*2), schedule.MinimumBalance(CustodyAccountSize))
	assert.Equal(t, uint64((128+8+entities.RecordSize)*3480*2), schedule.MinimumBalance(RecordAccountSize))
}

func TestNew(t *testing.T) {
	c, err := New("", DefaultReserveSchedule())
	assert.NoError(t, err)
	assert.Equal(t, KindNative, c.Kind())

	c, err = New(" Wrapped ", DefaultReserveSchedule())
	assert.NoError(t, err)
	assert.Equal(t, KindWrapped, c.Kind())

	_, err = New("paper", DefaultReserveSchedule())
	assert.Error(t, err)
}

type CustodyTestSuite struct {
	suite.Suite
	newCustody func() Custody
	custody    Custody
	store      *ledger.MemoryStore
	schedule   ReserveSchedule
	ctx        context.Context
	rec        *entities.GameRecord
}

func TestNativeCustody(t *testing.T) {
	suite.Run(t, &CustodyTestSuite{newCustody: func() Custody { return NewNativeCustody(DefaultReserveSchedule()) }})
}

func TestWrappedCustody(t *testing.T) {
	suite.Run(t, &CustodyTestSuite{newCustody: func() Custody { return NewWrappedCustody(DefaultReserveSchedule()) }})
}

func (s *CustodyTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = ledger.NewMemoryStore()
	s.schedule = DefaultReserveSchedule()
	s.custody = s.newCustody()
	s.rec = &entities.GameRecord{
		Address:       addressing.GameAddress("table-1", entities.GameTypeLudo),
		Code:          "table-1",
		GameType:      entities.GameTypeLudo,
		Wager:         1000,
		MinPlayers:    2,
		MaxPlayers:    4,
		PlayersJoined: 1,
		Players:       [entities.MaxSlots]entities.Identity{"alice"},
	}

	s.fund("alice", 10_000_000)
	s.fund("bob", 5000)
}

func (s *CustodyTestSuite) fund(id entities.Identity, amount uint64) {
	err := s.store.WithinTx(s.ctx, func(tx ledger.Tx) error {
		return wallet.Deposit(s.ctx, tx, wallet.Movement{To: addressing.WalletAddress(id), Amount: amount, Type: entities.TransactionTypeFunding})
	})
	s.Require().NoError(err)
}

func (s *CustodyTestSuite) balance(addr entities.Address) uint64 {
	var balance uint64
	err := s.store.WithinTx(s.ctx, func(tx ledger.Tx) error {
		account, err := tx.GetAccount(s.ctx, addr)
		if err != nil {
			return err
		}
		balance = account.Balance
		return nil
	})
	s.Require().NoError(err)
	return balance
}

func (s *CustodyTestSuite) reserves() uint64 {
	total := s.schedule.MinimumBalance(RecordAccountSize)
	if s.custody.Kind() == KindWrapped {
		total += s.schedule.MinimumBalance(CustodyAccountSize)
	}
	return total
}

func (s *CustodyTestSuite) open() {
	err := s.store.WithinTx(s.ctx, func(tx ledger.Tx) error {
		if err := s.custody.Open(s.ctx, tx, s.rec, "alice"); err != nil {
			return err
		}
		return s.custody.Deposit(s.ctx, tx, s.rec, "alice", s.rec.Wager)
	})
	s.Require().NoError(err)
}

func (s *CustodyTestSuite) escrow() uint64 {
	var held uint64
	err := s.store.WithinTx(s.ctx, func(tx ledger.Tx) error {
		var err error
		held, err = s.custody.Balance(s.ctx, tx, s.rec)
		return err
	})
	s.Require().NoError(err)
	return held
}

func (s *CustodyTestSuite) TestOpenChargesReserves() {
	// Execute
	s.open()

	// Assert
	s.Equal(uint64(10_000_000)-s.reserves()-s.rec.Wager, s.balance(addressing.WalletAddress("alice")))
	s.Equal(s.rec.Wager, s.escrow())
}

func (s *CustodyTestSuite) TestOpenTwice() {
	s.open()

	err := s.store.WithinTx(s.ctx, func(tx ledger.Tx) error {
		return s.custody.Open(s.ctx, tx, s.rec, "alice")
	})
	s.True(types.IsGameError(err, types.ErrInternalError))
}

func (s *CustodyTestSuite) TestOpenWithoutFunds() {
	err := s.store.WithinTx(s.ctx, func(tx ledger.Tx) error {
		return s.custody.Open(s.ctx, tx, s.rec, "bob")
	})
	s.True(types.IsGameError(err, types.ErrInsufficientFunds))
	s.Equal(uint64(5000), s.balance(addressing.WalletAddress("bob")))
}

func (s *CustodyTestSuite) TestDepositAccumulates() {
	s.open()
	s.rec.PlayersJoined = 2
	s.rec.Players[1] = "bob"

	err := s.store.WithinTx(s.ctx, func(tx ledger.Tx) error {
		return s.custody.Deposit(s.ctx, tx, s.rec, "bob", s.rec.Wager)
	})

	s.Require().NoError(err)
	s.Equal(s.rec.ExpectedEscrow(), s.escrow())
	s.Equal(uint64(4000), s.balance(addressing.WalletAddress("bob")))
}

func (s *CustodyTestSuite) TestDepositInsufficientFunds() {
	s.open()

	err := s.store.WithinTx(s.ctx, func(tx ledger.Tx) error {
		return s.custody.Deposit(s.ctx, tx, s.rec, "bob", 6000)
	})

	s.True(types.IsGameError(err, types.ErrInsufficientFunds))
	s.Equal(s.rec.Wager, s.escrow())
}

func (s *CustodyTestSuite) TestSettle() {
	// Setup
	s.open()
	s.rec.PlayersJoined = 2
	s.rec.Players[1] = "bob"
	err := s.store.WithinTx(s.ctx, func(tx ledger.Tx) error {
		return s.custody.Deposit(s.ctx, tx, s.rec, "bob", s.rec.Wager)
	})
	s.Require().NoError(err)

	// Execute
	var settlement *Settlement
	err = s.store.WithinTx(s.ctx, func(tx ledger.Tx) error {
		var err error
		settlement, err = s.custody.Settle(s.ctx, tx, s.rec, "bob")
		return err
	})

	// Assert
	s.Require().NoError(err)
	s.Equal(uint64(2000), settlement.Payout)
	s.Equal(s.reserves(), settlement.ReserveRefund)
	s.Equal(entities.Identity("alice"), settlement.Creator)
	s.Equal(uint64(6000), s.balance(addressing.WalletAddress("bob")))
	s.Equal(uint64(10_000_000)-s.rec.Wager, s.balance(addressing.WalletAddress("alice")))

	err = s.store.WithinTx(s.ctx, func(tx ledger.Tx) error {
		_, err := tx.GetAccount(s.ctx, s.rec.Address)
		return err
	})
	s.ErrorIs(err, ledger.ErrAccountNotFound)
	err = s.store.WithinTx(s.ctx, func(tx ledger.Tx) error {
		_, err := tx.GetAccount(s.ctx, addressing.CustodyAddress(s.rec.Address))
		return err
	})
	s.ErrorIs(err, ledger.ErrAccountNotFound)
}

func (s *CustodyTestSuite) TestSettleCreatorWins() {
	s.open()

	var settlement *Settlement
	err := s.store.WithinTx(s.ctx, func(tx ledger.Tx) error {
		var err error
		settlement, err = s.custody.Settle(s.ctx, tx, s.rec, "alice")
		return err
	})

	s.Require().NoError(err)
	s.Equal(s.rec.Wager, settlement.Payout)
	s.Equal(uint64(10_000_000), s.balance(addressing.WalletAddress("alice")))
}
