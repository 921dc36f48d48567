package domain

import (
	"github.com/shopspring/decimal"
)

// SubscriptionTier mirrors the wallet's plan levels.
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "Free"
	TierBasic   SubscriptionTier = "Basic"
	TierPremium SubscriptionTier = "Premium"
)

// Account is a wallet user. Balances are mutated only through the ledger's
// atomic credit/debit operations; accounts are never deleted.
type Account struct {
	ID           string                       `json:"id"`
	Username     string                       `json:"username"`
	PasswordHash string                       `json:"-"`
	Tier         SubscriptionTier             `json:"subscription_tier"`
	IsBanned     bool                         `json:"is_banned"`
	IsAdmin      bool                         `json:"is_admin"`
	Addresses    map[Currency]string          `json:"wallet_addresses"`
	Balances     map[Currency]decimal.Decimal `json:"balance"`
	Mnemonic     string                       `json:"-"`
}

// NewAccount creates an account with zero balances for all supported
// currencies and empty address slots.
func NewAccount(id, username string) *Account {
	balances := make(map[Currency]decimal.Decimal, len(Currencies))
	for _, c := range Currencies {
		balances[c] = decimal.Zero
	}
	return &Account{
		ID:        id,
		Username:  username,
		Tier:      TierFree,
		Addresses: make(map[Currency]string, len(Currencies)),
		Balances:  balances,
	}
}

// Balance returns the balance for a currency, zero if never credited.
func (a *Account) Balance(c Currency) decimal.Decimal {
	if b, ok := a.Balances[c]; ok {
		return b
	}
	return decimal.Zero
}

// Clone returns a deep copy safe to hand to external readers.
func (a *Account) Clone() *Account {
	cp := *a
	cp.Addresses = make(map[Currency]string, len(a.Addresses))
	for k, v := range a.Addresses {
		cp.Addresses[k] = v
	}
	cp.Balances = make(map[Currency]decimal.Decimal, len(a.Balances))
	for k, v := range a.Balances {
		cp.Balances[k] = v
	}
	return &cp
}
