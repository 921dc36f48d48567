package ledger

import (
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/HackbyRd258/ElectroWallet/internal/domain"
)

// MemoryAccounts is the in-process AccountRepository. It is the default
// backend for tests and for mock mode.
type MemoryAccounts struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

// NewMemoryAccounts creates an empty in-memory account store.
func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{accounts: make(map[string]*domain.Account)}
}

// Create stores a new account. The id must be unique.
func (m *MemoryAccounts) Create(a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.ID]; ok {
		return fmt.Errorf("account %s already exists", a.ID)
	}
	m.accounts[a.ID] = a.Clone()
	return nil
}

// FindByID returns a copy of the account with the given id.
func (m *MemoryAccounts) FindByID(id string) (*domain.Account, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, false
	}
	return a.Clone(), true
}

// FindByUsername performs a case-insensitive exact lookup.
func (m *MemoryAccounts) FindByUsername(username string) (*domain.Account, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.accounts {
		if strings.EqualFold(a.Username, username) {
			return a.Clone(), true
		}
	}
	return nil, false
}

// FindByAddress performs a case-insensitive exact lookup on the address slot
// for the given currency.
func (m *MemoryAccounts) FindByAddress(c domain.Currency, addr string) (*domain.Account, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.accounts {
		if strings.EqualFold(a.Addresses[c], addr) && a.Addresses[c] != "" {
			return a.Clone(), true
		}
	}
	return nil, false
}

// UpdateBalance sets the balance for one currency of one account.
func (m *MemoryAccounts) UpdateBalance(id string, c domain.Currency, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return fmt.Errorf("account %s not found", id)
	}
	a.Balances[c] = amount
	return nil
}

// ApplyTransfer writes both settlement sides under one lock.
func (m *MemoryAccounts) ApplyTransfer(fromID, toID string, c domain.Currency, fromNew, toNew decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	from, ok := m.accounts[fromID]
	if !ok {
		return fmt.Errorf("account %s not found", fromID)
	}
	to, ok := m.accounts[toID]
	if !ok {
		return fmt.Errorf("account %s not found", toID)
	}
	from.Balances[c] = fromNew
	to.Balances[c] = toNew
	return nil
}

// Update replaces the stored account (flags, tier, addresses).
func (m *MemoryAccounts) Update(a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.ID]; !ok {
		return fmt.Errorf("account %s not found", a.ID)
	}
	m.accounts[a.ID] = a.Clone()
	return nil
}

// All returns copies of every account.
func (m *MemoryAccounts) All() []*domain.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a.Clone())
	}
	return out
}

// MemoryHistory is the in-process append-only LedgerRepository.
type MemoryHistory struct {
	mu      sync.RWMutex
	records []domain.LedgerRecord
}

// NewMemoryHistory creates an empty in-memory history store.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{}
}

// Append adds a record. Records are never updated or deleted.
func (m *MemoryHistory) Append(rec domain.LedgerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// History returns a copy of all records, newest last.
func (m *MemoryHistory) History() []domain.LedgerRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.LedgerRecord, len(m.records))
	copy(out, m.records)
	return out
}
