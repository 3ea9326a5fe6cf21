package wallet

import (
	"context"

	"github.com/fadedpez/wagerescrow/pkg/entities"
)

type WalletService interface {
	GetOrCreateWallet(ctx context.Context, id entities.Identity) (*entities.Account, bool, error)
	Fund(ctx context.Context, id entities.Identity, amount uint64, description string) error
	GetBalance(ctx context.Context, id entities.Identity) (uint64, error)
	GetRecentTransactions(ctx context.Context, id entities.Identity, limit int) ([]*entities.Transaction, error)
}
