package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/HackbyRd258/ElectroWallet/internal/domain"
)

// AccountRepository is the account store boundary. Implementations must be
// safe for concurrent use; the Ledger serializes all balance mutations on
// top of it. Lookups by username and address are case-insensitive exact
// matches returning at most one account.
type AccountRepository interface {
	Create(a *domain.Account) error
	FindByID(id string) (*domain.Account, bool)
	FindByUsername(username string) (*domain.Account, bool)
	FindByAddress(c domain.Currency, addr string) (*domain.Account, bool)
	UpdateBalance(id string, c domain.Currency, amount decimal.Decimal) error
	// ApplyTransfer writes both sides of a settlement in one atomic step so
	// no reader can observe a half-applied debit/credit pair.
	ApplyTransfer(fromID, toID string, c domain.Currency, fromNew, toNew decimal.Decimal) error
	Update(a *domain.Account) error
	All() []*domain.Account
}

// LedgerRepository is the append-only history boundary. No update or delete
// operation is exposed.
type LedgerRepository interface {
	Append(rec domain.LedgerRecord) error
	History() []domain.LedgerRecord
}
