package escrow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fadedpez/wagerescrow/internal/types"
	"github.com/fadedpez/wagerescrow/pkg/addressing"
	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/fadedpez/wagerescrow/pkg/repositories/ledger"
	"github.com/fadedpez/wagerescrow/pkg/services/wallet"
)

// Kind names a custody variant
type Kind string

const (
	KindNative  Kind = "native"
	KindWrapped Kind = "wrapped"
)

// Settlement is the outcome of paying out a game
type Settlement struct {
	GameAddress   entities.Address
	Winner        entities.Identity
	Creator       entities.Identity
	Payout        uint64
	ReserveRefund uint64
}

// Custody holds stakes for a game record. Every method runs inside the
// caller's unit of work.
type Custody interface {
	Kind() Kind

	// Open creates the accounts backing rec, with payer funding their reserves
	Open(ctx context.Context, tx ledger.Tx, rec *entities.GameRecord, payer entities.Identity) error

	// Deposit moves a stake from a player into custody
	Deposit(ctx context.Context, tx ledger.Tx, rec *entities.GameRecord, from entities.Identity, amount uint64) error

	// Balance is the stake currently held for rec
	Balance(ctx context.Context, tx ledger.Tx, rec *entities.GameRecord) (uint64, error)

	// Settle pays the stake to winner, returns every reserve to the creator
	// and removes the backing accounts
	Settle(ctx context.Context, tx ledger.Tx, rec *entities.GameRecord, winner entities.Identity) (*Settlement, error)
}

// New returns the custody variant named by kind
func New(kind string, schedule ReserveSchedule) (Custody, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(kind))) {
	case "", KindNative:
		return NewNativeCustody(schedule), nil
	case KindWrapped:
		return NewWrappedCustody(schedule), nil
	default:
		return nil, fmt.Errorf("unknown custody kind %q", kind)
	}
}

// recordAccounts manages the account that stores the game record itself
type recordAccounts struct {
	schedule ReserveSchedule
}

func (r recordAccounts) openRecordAccount(ctx context.Context, tx ledger.Tx, rec *entities.GameRecord, payer entities.Identity) error {
	return openAccount(ctx, tx, rec.Address, rec, entities.AccountKindGame, r.schedule.MinimumBalance(RecordAccountSize), payer)
}

func openAccount(ctx context.Context, tx ledger.Tx, addr entities.Address, rec *entities.GameRecord, kind entities.AccountKind, reserve uint64, payer entities.Identity) error {
	_, err := tx.GetAccount(ctx, addr)
	if err == nil {
		return types.NewGameError(types.ErrInternalError, fmt.Sprintf("account %s already open", addr))
	}
	if !errors.Is(err, ledger.ErrAccountNotFound) {
		return err
	}

	account := &entities.Account{
		Address: addr,
		Kind:    kind,
		Owner:   rec.Address,
		Reserve: reserve,
	}
	if err := tx.SaveAccount(ctx, account); err != nil {
		return err
	}
	return wallet.Transfer(ctx, tx, wallet.Movement{
		From:        addressing.WalletAddress(payer),
		To:          addr,
		Amount:      reserve,
		Type:        entities.TransactionTypeReserve,
		ReferenceID: string(rec.Address),
		Description: fmt.Sprintf("baseline reserve for %s account", strings.ToLower(string(kind))),
	})
}

func (r recordAccounts) closeRecordAccount(ctx context.Context, tx ledger.Tx, rec *entities.GameRecord) (uint64, error) {
	return closeInto(ctx, tx, rec.Address, rec)
}

// closeInto drains addr into the record's creator and deletes it
func closeInto(ctx context.Context, tx ledger.Tx, addr entities.Address, rec *entities.GameRecord) (uint64, error) {
	return wallet.CloseAccount(ctx, tx, addr, addressing.WalletAddress(rec.Creator()),
		entities.TransactionTypeReserveRefund, string(rec.Address))
}

func payout(ctx context.Context, tx ledger.Tx, rec *entities.GameRecord, from entities.Address, winner entities.Identity, amount uint64) error {
	return wallet.Release(ctx, tx, wallet.Movement{
		From:        from,
		To:          addressing.WalletAddress(winner),
		Amount:      amount,
		Type:        entities.TransactionTypePayout,
		ReferenceID: string(rec.Address),
		Description: fmt.Sprintf("winnings for game %s", rec.Code),
	})
}

func stake(ctx context.Context, tx ledger.Tx, rec *entities.GameRecord, from entities.Identity, to entities.Address, amount uint64) error {
	return wallet.Transfer(ctx, tx, wallet.Movement{
		From:        addressing.WalletAddress(from),
		To:          to,
		Amount:      amount,
		Type:        entities.TransactionTypeStake,
		ReferenceID: string(rec.Address),
		Description: fmt.Sprintf("stake for game %s", rec.Code),
	})
}
