package domain

import "time"

// Currency identifies one of the supported wallet assets.
type Currency string

const (
	BTC Currency = "BTC"
	ETH Currency = "ETH"
	SOL Currency = "SOL"
)

// Currencies lists all supported assets in display order.
var Currencies = []Currency{BTC, ETH, SOL}

// Valid reports whether the currency is one of the supported assets.
func (c Currency) Valid() bool {
	switch c {
	case BTC, ETH, SOL:
		return true
	}
	return false
}

// ConfirmationPolicy defines how a pending transaction advances for one
// currency: how many confirmations settlement requires and how often the
// per-transaction timer fires. Slower simulated block times mean fewer,
// slower confirmations.
type ConfirmationPolicy struct {
	Required     int
	TickInterval time.Duration
}

// DefaultPolicies returns the built-in confirmation policies.
// Overridable via the currencies section of the config file.
func DefaultPolicies() map[Currency]ConfirmationPolicy {
	return map[Currency]ConfirmationPolicy{
		BTC: {Required: 6, TickInterval: 10 * time.Second},
		ETH: {Required: 12, TickInterval: 4 * time.Second},
		SOL: {Required: 32, TickInterval: 800 * time.Millisecond},
	}
}
