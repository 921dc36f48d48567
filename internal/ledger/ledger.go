// Package ledger holds the authoritative balance state and the append-only
// transaction history. It is the single point of truth other components read
// and the single point of mutation the confirmation engine calls into at
// settlement.
package ledger

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/HackbyRd258/ElectroWallet/internal/domain"
)

// Ledger serializes all balance mutations behind one mutex so concurrent
// settlements and admin credits touching the same account cannot lose
// updates. Debit below zero is a programming error in this design
// (submission-time validation makes it unreachable) and panics rather than
// clamping.
type Ledger struct {
	mu       sync.Mutex
	accounts AccountRepository
	history  LedgerRepository
}

// New creates a ledger over the injected repositories.
func New(accounts AccountRepository, history LedgerRepository) *Ledger {
	return &Ledger{accounts: accounts, history: history}
}

// Accounts exposes the account repository for read-side collaborators.
func (l *Ledger) Accounts() AccountRepository {
	return l.accounts
}

// GetBalance returns the current balance for one account and currency.
func (l *Ledger) GetBalance(accountID string, c domain.Currency) (decimal.Decimal, error) {
	a, ok := l.accounts.FindByID(accountID)
	if !ok {
		return decimal.Zero, domain.ErrAccountNotFound
	}
	return a.Balance(c), nil
}

// Credit adds amount to an account balance.
func (l *Ledger) Credit(accountID string, c domain.Currency, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.credit(accountID, c, amount)
}

func (l *Ledger) credit(accountID string, c domain.Currency, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return domain.ErrInvalidAmount
	}
	a, ok := l.accounts.FindByID(accountID)
	if !ok {
		return domain.ErrAccountNotFound
	}
	return l.accounts.UpdateBalance(accountID, c, a.Balance(c).Add(amount))
}

// Debit subtracts amount from an account balance. Going negative is an
// invariant violation and panics.
func (l *Ledger) Debit(accountID string, c domain.Currency, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount.Sign() <= 0 {
		return domain.ErrInvalidAmount
	}
	a, ok := l.accounts.FindByID(accountID)
	if !ok {
		return domain.ErrAccountNotFound
	}
	next := a.Balance(c).Sub(amount)
	if next.Sign() < 0 {
		panic(fmt.Sprintf("ledger invariant violated: debit of %s %s would take account %s below zero",
			amount.String(), c, accountID))
	}
	return l.accounts.UpdateBalance(accountID, c, next)
}

// Settle applies a confirmed transfer atomically: debit sender, credit
// receiver, append the history record. Both balance writes land in a single
// repository step so no reader observes a half-applied pair. The sufficiency
// check happens under the same mutex as the transfer, so overlapping
// settlements against one balance cannot both pass it; the loser gets
// ErrInsufficientBalance and no mutation.
func (l *Ledger) Settle(senderID, receiverID string, c domain.Currency, amount decimal.Decimal, rec domain.LedgerRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	sender, ok := l.accounts.FindByID(senderID)
	if !ok {
		return domain.ErrAccountNotFound
	}
	receiver, ok := l.accounts.FindByID(receiverID)
	if !ok {
		return domain.ErrAccountNotFound
	}

	senderNext := sender.Balance(c).Sub(amount)
	if senderNext.Sign() < 0 {
		return domain.ErrInsufficientBalance
	}

	if err := l.accounts.ApplyTransfer(senderID, receiverID, c, senderNext, receiver.Balance(c).Add(amount)); err != nil {
		return err
	}
	return l.history.Append(rec)
}

// AppendHistory adds a record without touching balances (used for synthetic
// admin mints).
func (l *Ledger) AppendHistory(rec domain.LedgerRecord) error {
	return l.history.Append(rec)
}

// History returns the full confirmed-transaction history.
func (l *Ledger) History() []domain.LedgerRecord {
	return l.history.History()
}

// FindByUsername resolves an account by case-insensitive username.
func (l *Ledger) FindByUsername(username string) (*domain.Account, bool) {
	return l.accounts.FindByUsername(username)
}

// FindByAddress resolves an account by currency-specific address.
func (l *Ledger) FindByAddress(c domain.Currency, addr string) (*domain.Account, bool) {
	return l.accounts.FindByAddress(c, addr)
}

// CreditAll adds amount to every account's balance for the currency.
// Used by the airdrop path, which bypasses the mempool.
func (l *Ledger) CreditAll(c domain.Currency, amount decimal.Decimal) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount.Sign() <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	n := 0
	for _, a := range l.accounts.All() {
		if err := l.credit(a.ID, c, amount); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
