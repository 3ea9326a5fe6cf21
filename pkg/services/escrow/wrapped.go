package escrow

import (
	"context"
	"fmt"
	"time"

	"github.com/fadedpez/wagerescrow/pkg/addressing"
	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/fadedpez/wagerescrow/pkg/repositories/ledger"
	"github.com/google/uuid"
)

// WrappedCustody keeps stakes in a dedicated custody account owned by the
// record. Each deposit is followed by a sync so the wrapped-token balance
// always equals the native funds above the custody reserve.
type WrappedCustody struct {
	recordAccounts
}

func NewWrappedCustody(schedule ReserveSchedule) *WrappedCustody {
	return &WrappedCustody{recordAccounts{schedule: schedule}}
}

func (c *WrappedCustody) Kind() Kind { return KindWrapped }

func (c *WrappedCustody) Open(ctx context.Context, tx ledger.Tx, rec *entities.GameRecord, payer entities.Identity) error {
	if err := c.openRecordAccount(ctx, tx, rec, payer); err != nil {
		return err
	}
	return openAccount(ctx, tx, addressing.CustodyAddress(rec.Address), rec,
		entities.AccountKindCustody, c.schedule.MinimumBalance(CustodyAccountSize), payer)
}

func (c *WrappedCustody) Deposit(ctx context.Context, tx ledger.Tx, rec *entities.GameRecord, from entities.Identity, amount uint64) error {
	custody := addressing.CustodyAddress(rec.Address)
	if err := stake(ctx, tx, rec, from, custody, amount); err != nil {
		return err
	}
	return c.syncWrapped(ctx, tx, rec, custody)
}

func (c *WrappedCustody) Balance(ctx context.Context, tx ledger.Tx, rec *entities.GameRecord) (uint64, error) {
	account, err := tx.GetAccount(ctx, addressing.CustodyAddress(rec.Address))
	if err != nil {
		return 0, err
	}
	return account.Wrapped, nil
}

// Settle unwraps the full custody balance to the winner, then closes the
// custody and record accounts into the creator.
func (c *WrappedCustody) Settle(ctx context.Context, tx ledger.Tx, rec *entities.GameRecord, winner entities.Identity) (*Settlement, error) {
	custody := addressing.CustodyAddress(rec.Address)

	amount, err := c.Balance(ctx, tx, rec)
	if err != nil {
		return nil, err
	}
	if err := payout(ctx, tx, rec, custody, winner, amount); err != nil {
		return nil, err
	}
	if err := c.syncWrapped(ctx, tx, rec, custody); err != nil {
		return nil, err
	}

	custodyRefund, err := closeInto(ctx, tx, custody, rec)
	if err != nil {
		return nil, err
	}
	recordRefund, err := c.closeRecordAccount(ctx, tx, rec)
	if err != nil {
		return nil, err
	}

	return &Settlement{
		GameAddress:   rec.Address,
		Winner:        winner,
		Creator:       rec.Creator(),
		Payout:        amount,
		ReserveRefund: custodyRefund + recordRefund,
	}, nil
}

// syncWrapped sets the wrapped balance to the native funds above the reserve
func (c *WrappedCustody) syncWrapped(ctx context.Context, tx ledger.Tx, rec *entities.GameRecord, custody entities.Address) error {
	account, err := tx.GetAccount(ctx, custody)
	if err != nil {
		return err
	}

	before := account.Wrapped
	account.Wrapped = account.Spendable()
	if account.Wrapped == before {
		return nil
	}
	if err := tx.SaveAccount(ctx, account); err != nil {
		return err
	}

	delta := account.Wrapped - before
	direction := "wrapped"
	if account.Wrapped < before {
		delta = before - account.Wrapped
		direction = "unwrapped"
	}
	return tx.AddTransaction(ctx, &entities.Transaction{
		ID:          uuid.New().String(),
		From:        custody,
		To:          custody,
		Amount:      delta,
		Type:        entities.TransactionTypeWrap,
		ReferenceID: string(rec.Address),
		Description: fmt.Sprintf("%s %d", direction, delta),
		Timestamp:   time.Now(),
	})
}
