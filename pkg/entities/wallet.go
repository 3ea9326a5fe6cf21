package entities

import (
	"time"
)

// AccountKind distinguishes player wallets from accounts owned by a game
type AccountKind string

const (
	AccountKindWallet  AccountKind = "WALLET"
	AccountKindGame    AccountKind = "GAME"
	AccountKindCustody AccountKind = "CUSTODY"
)

// Account holds native funds, plus a wrapped-token balance for custody accounts
type Account struct {
	Address     Address
	Kind        AccountKind
	Owner       Address // game record address for GAME and CUSTODY accounts
	Balance     uint64  // native balance, reserve included
	Wrapped     uint64  // wrapped-token balance mirroring Balance - Reserve
	Reserve     uint64  // baseline reserve held while the account exists
	LastUpdated time.Time
}

// Spendable is the native balance above the reserve
func (a *Account) Spendable() uint64 {
	if a.Balance < a.Reserve {
		return 0
	}
	return a.Balance - a.Reserve
}

// TransactionType represents the type of ledger transaction
type TransactionType string

const (
	TransactionTypeFunding       TransactionType = "FUNDING"
	TransactionTypeStake         TransactionType = "STAKE"
	TransactionTypeReserve       TransactionType = "RESERVE"
	TransactionTypeWrap          TransactionType = "WRAP"
	TransactionTypePayout        TransactionType = "PAYOUT"
	TransactionTypeReserveRefund TransactionType = "RESERVE_REFUND"
)

// Transaction is a single movement of funds between two accounts
type Transaction struct {
	ID          string          // Unique identifier
	From        Address         // Empty for external funding
	To          Address
	Amount      uint64
	Type        TransactionType
	ReferenceID string          // Game record address, if any
	Description string
	Timestamp   time.Time
}
