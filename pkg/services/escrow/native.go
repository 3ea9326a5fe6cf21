package escrow

import (
	"context"

	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/fadedpez/wagerescrow/pkg/repositories/ledger"
)

// NativeCustody keeps stakes in the game record's own account, next to its
// reserve.
type NativeCustody struct {
	recordAccounts
}

func NewNativeCustody(schedule ReserveSchedule) *NativeCustody {
	return &NativeCustody{recordAccounts{schedule: schedule}}
}

func (c *NativeCustody) Kind() Kind { return KindNative }

func (c *NativeCustody) Open(ctx context.Context, tx ledger.Tx, rec *entities.GameRecord, payer entities.Identity) error {
	return c.openRecordAccount(ctx, tx, rec, payer)
}

func (c *NativeCustody) Deposit(ctx context.Context, tx ledger.Tx, rec *entities.GameRecord, from entities.Identity, amount uint64) error {
	return stake(ctx, tx, rec, from, rec.Address, amount)
}

func (c *NativeCustody) Balance(ctx context.Context, tx ledger.Tx, rec *entities.GameRecord) (uint64, error) {
	account, err := tx.GetAccount(ctx, rec.Address)
	if err != nil {
		return 0, err
	}
	return account.Spendable(), nil
}

// Settle pays out everything above the reserve, then closes the record
// account into the creator.
func (c *NativeCustody) Settle(ctx context.Context, tx ledger.Tx, rec *entities.GameRecord, winner entities.Identity) (*Settlement, error) {
	amount, err := c.Balance(ctx, tx, rec)
	if err != nil {
		return nil, err
	}
	if err := payout(ctx, tx, rec, rec.Address, winner, amount); err != nil {
		return nil, err
	}

	refund, err := c.closeRecordAccount(ctx, tx, rec)
	if err != nil {
		return nil, err
	}

	return &Settlement{
		GameAddress:   rec.Address,
		Winner:        winner,
		Creator:       rec.Creator(),
		Payout:        amount,
		ReserveRefund: refund,
	}, nil
}
