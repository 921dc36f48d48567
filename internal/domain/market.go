package domain

import (
	"github.com/shopspring/decimal"
)

// MaxHistory bounds the rolling price history window per symbol.
const MaxHistory = 21

// PricePoint is one sample of the rolling history.
type PricePoint struct {
	Time  int64           `json:"time"`
	Price decimal.Decimal `json:"price"`
}

// MarketState is the per-symbol market view: last price, 24h change and a
// bounded FIFO history (oldest evicted first).
type MarketState struct {
	Symbol    Currency        `json:"symbol"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Change24h decimal.Decimal `json:"change24h"`
	History   []PricePoint    `json:"history"`
}

// Update applies a new price observation: recomputes the change against the
// previous price and appends to the bounded history.
func (m *MarketState) Update(price decimal.Decimal, ts int64) {
	if !m.Price.IsZero() {
		m.Change24h = price.Sub(m.Price).Div(m.Price).Mul(decimal.NewFromInt(100))
	}
	m.Price = price
	m.History = append(m.History, PricePoint{Time: ts, Price: price})
	if len(m.History) > MaxHistory {
		m.History = m.History[len(m.History)-MaxHistory:]
	}
}

// Clone returns a copy safe for external readers.
func (m *MarketState) Clone() *MarketState {
	cp := *m
	cp.History = make([]PricePoint, len(m.History))
	copy(cp.History, m.History)
	return &cp
}

// MarketTick is the event payload for a single price update.
type MarketTick struct {
	Symbol    Currency        `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Change24h decimal.Decimal `json:"change24h"`
	Timestamp int64           `json:"timestamp"`
}

// ChangeDirection returns "positive", "negative", or "neutral".
func (t MarketTick) ChangeDirection() string {
	switch t.Change24h.Sign() {
	case 1:
		return "positive"
	case -1:
		return "negative"
	}
	return "neutral"
}

// SeedMarket returns the initial market states for all supported assets.
func SeedMarket() map[Currency]*MarketState {
	return map[Currency]*MarketState{
		BTC: {Symbol: BTC, Name: "Bitcoin", Price: decimal.RequireFromString("67240.50"), Change24h: decimal.RequireFromString("2.4")},
		ETH: {Symbol: ETH, Name: "Ethereum", Price: decimal.RequireFromString("3450.22"), Change24h: decimal.RequireFromString("-1.1")},
		SOL: {Symbol: SOL, Name: "Solana", Price: decimal.RequireFromString("145.88"), Change24h: decimal.RequireFromString("5.7")},
	}
}
