package wallet

import (
	"context"
	"errors"

	"github.com/fadedpez/wagerescrow/internal/logging"
	"github.com/fadedpez/wagerescrow/internal/types"
	"github.com/fadedpez/wagerescrow/pkg/addressing"
	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/fadedpez/wagerescrow/pkg/repositories/ledger"
)

// Service handles wallet business logic
type Service struct {
	store           ledger.Store
	startingBalance uint64
	logger          *logging.Logger
}

var _ WalletService = (*Service)(nil)

// NewService creates a new wallet service. New wallets start with
// startingBalance funded from outside the ledger.
func NewService(store ledger.Store, startingBalance uint64) *Service {
	return &Service{
		store:           store,
		startingBalance: startingBalance,
		logger:          logging.Default.WithPrefix("WALLET"),
	}
}

// GetOrCreateWallet retrieves a wallet or creates a new one if it doesn't exist
func (s *Service) GetOrCreateWallet(ctx context.Context, id entities.Identity) (*entities.Account, bool, error) {
	if id == entities.NoIdentity {
		return nil, false, types.NewGameError(types.ErrInvalidArgument, "identity is required")
	}

	var (
		account *entities.Account
		created bool
	)
	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		existing, err := tx.GetAccount(ctx, addressing.WalletAddress(id))
		if err == nil {
			account = existing
			return nil
		}
		if !errors.Is(err, ledger.ErrAccountNotFound) {
			return err
		}

		created = true
		account = &entities.Account{Address: addressing.WalletAddress(id), Kind: entities.AccountKindWallet}
		if s.startingBalance == 0 {
			return tx.SaveAccount(ctx, account)
		}
		if err := Deposit(ctx, tx, Movement{
			To:          account.Address,
			Amount:      s.startingBalance,
			Type:        entities.TransactionTypeFunding,
			Description: "starting balance",
		}); err != nil {
			return err
		}
		account, err = tx.GetAccount(ctx, account.Address)
		return err
	})
	if err != nil {
		return nil, false, wrapStoreError(err)
	}

	if created {
		s.logger.Info("Created wallet for %s with balance %d", id, account.Balance)
	}
	return account, created, nil
}

// Fund credits a wallet from outside the ledger
func (s *Service) Fund(ctx context.Context, id entities.Identity, amount uint64, description string) error {
	if id == entities.NoIdentity {
		return types.NewGameError(types.ErrInvalidArgument, "identity is required")
	}
	if amount == 0 {
		return types.NewGameError(types.ErrInvalidAmount, "Invalid amount")
	}

	s.logger.Info("Adding %d to wallet for %s: %s", amount, id, description)

	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		return Deposit(ctx, tx, Movement{
			To:          addressing.WalletAddress(id),
			Amount:      amount,
			Type:        entities.TransactionTypeFunding,
			Description: description,
		})
	})
	if err != nil {
		s.logger.Error("Error funding wallet for %s: %v", id, err)
		return wrapStoreError(err)
	}
	return nil
}

// GetBalance returns the current balance for an identity, zero if it has no wallet
func (s *Service) GetBalance(ctx context.Context, id entities.Identity) (uint64, error) {
	var balance uint64
	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		account, err := tx.GetAccount(ctx, addressing.WalletAddress(id))
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		balance = account.Balance
		return nil
	})
	if err != nil {
		return 0, wrapStoreError(err)
	}
	return balance, nil
}

// GetRecentTransactions retrieves recent transactions touching an identity
func (s *Service) GetRecentTransactions(ctx context.Context, id entities.Identity, limit int) ([]*entities.Transaction, error) {
	var txs []*entities.Transaction
	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		var err error
		txs, err = tx.GetTransactions(ctx, addressing.WalletAddress(id), limit)
		return err
	})
	if err != nil {
		return nil, wrapStoreError(err)
	}
	return txs, nil
}

func wrapStoreError(err error) error {
	var gameErr *types.GameError
	if types.As(err, &gameErr) {
		return err
	}
	return types.WrapError(types.ErrDatabaseError, "wallet storage failed", err)
}
