package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"strings"
	"time"

	"github.com/fadedpez/wagerescrow/internal/types"
	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/fadedpez/wagerescrow/pkg/repositories/ledger"
	"github.com/google/uuid"
)

// Movement describes one transfer of native funds
type Movement struct {
	From        entities.Address
	To          entities.Address
	Amount      uint64
	Type        entities.TransactionType
	ReferenceID string
	Description string
}

// Transfer moves funds out of a player wallet inside tx. The source must hold
// the amount above its reserve; an unknown destination is opened as a wallet.
// A zero amount moves nothing.
func Transfer(ctx context.Context, tx ledger.Tx, m Movement) error {
	return move(ctx, tx, m, func(kind entities.AccountKind) bool {
		return kind == entities.AccountKindWallet
	})
}

// Release moves funds held by a game or custody account, such as a payout
func Release(ctx context.Context, tx ledger.Tx, m Movement) error {
	return move(ctx, tx, m, func(kind entities.AccountKind) bool {
		return kind == entities.AccountKindGame || kind == entities.AccountKindCustody
	})
}

func move(ctx context.Context, tx ledger.Tx, m Movement, allowed func(entities.AccountKind) bool) error {
	if m.Amount == 0 {
		return nil
	}
	if m.From == m.To {
		return types.NewGameError(types.ErrInvalidArgument, "cannot transfer to the same account")
	}

	from, err := tx.GetAccount(ctx, m.From)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return types.NewGameError(types.ErrInsufficientFunds,
				fmt.Sprintf("%s has no funds", m.From))
		}
		return err
	}
	if !allowed(from.Kind) {
		return types.NewGameError(types.ErrNotAuthorized,
			fmt.Sprintf("%s account %s cannot be debited by a %s", strings.ToLower(string(from.Kind)), m.From, strings.ToLower(string(m.Type))))
	}
	if from.Spendable() < m.Amount {
		return types.NewGameError(types.ErrInsufficientFunds,
			fmt.Sprintf("%s has %d available, needs %d", m.From, from.Spendable(), m.Amount))
	}

	to, err := loadOrOpen(ctx, tx, m.To)
	if err != nil {
		return err
	}
	if err := credit(to, m.Amount); err != nil {
		return err
	}

	from.Balance -= m.Amount
	if err := tx.SaveAccount(ctx, from); err != nil {
		return err
	}
	if err := tx.SaveAccount(ctx, to); err != nil {
		return err
	}
	return record(ctx, tx, m)
}

// Deposit credits an account from outside the ledger
func Deposit(ctx context.Context, tx ledger.Tx, m Movement) error {
	if m.Amount == 0 {
		return types.NewGameError(types.ErrInvalidAmount, "Invalid amount")
	}
	to, err := loadOrOpen(ctx, tx, m.To)
	if err != nil {
		return err
	}
	if err := credit(to, m.Amount); err != nil {
		return err
	}
	if err := tx.SaveAccount(ctx, to); err != nil {
		return err
	}
	m.From = ""
	return record(ctx, tx, m)
}

// CloseAccount sends the entire balance of addr, reserve included, to
// destination and deletes the account. It returns the amount moved.
func CloseAccount(ctx context.Context, tx ledger.Tx, addr, destination entities.Address, txType entities.TransactionType, referenceID string) (uint64, error) {
	account, err := tx.GetAccount(ctx, addr)
	if err != nil {
		return 0, err
	}
	amount := account.Balance

	if amount > 0 {
		to, err := loadOrOpen(ctx, tx, destination)
		if err != nil {
			return 0, err
		}
		if err := credit(to, amount); err != nil {
			return 0, err
		}
		if err := tx.SaveAccount(ctx, to); err != nil {
			return 0, err
		}
		err = record(ctx, tx, Movement{
			From:        addr,
			To:          destination,
			Amount:      amount,
			Type:        txType,
			ReferenceID: referenceID,
			Description: "account closed",
		})
		if err != nil {
			return 0, err
		}
	}

	if err := tx.DeleteAccount(ctx, addr); err != nil {
		return 0, err
	}
	return amount, nil
}

func loadOrOpen(ctx context.Context, tx ledger.Tx, addr entities.Address) (*entities.Account, error) {
	account, err := tx.GetAccount(ctx, addr)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, ledger.ErrAccountNotFound) {
		return nil, err
	}
	return &entities.Account{Address: addr, Kind: entities.AccountKindWallet}, nil
}

func credit(account *entities.Account, amount uint64) error {
	sum, carry := bits.Add64(account.Balance, amount, 0)
	if carry != 0 {
		return types.NewGameError(types.ErrInvalidAmount,
			fmt.Sprintf("crediting %d would overflow %s", amount, account.Address))
	}
	account.Balance = sum
	return nil
}

func record(ctx context.Context, tx ledger.Tx, m Movement) error {
	return tx.AddTransaction(ctx, &entities.Transaction{
		ID:          uuid.New().String(),
		From:        m.From,
		To:          m.To,
		Amount:      m.Amount,
		Type:        m.Type,
		ReferenceID: m.ReferenceID,
		Description: m.Description,
		Timestamp:   time.Now(),
	})
}
