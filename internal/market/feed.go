// Package market simulates the live ticker: a random walk over the seeded
// prices, optionally corrected by real polled quotes, broadcast on the event
// bus. The feed is valuation flavor only; it never touches the ledger.
package market

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HackbyRd258/ElectroWallet/internal/domain"
	"github.com/HackbyRd258/ElectroWallet/internal/event"
	"github.com/HackbyRd258/ElectroWallet/internal/infra"
)

// snapshotKey is the metadata slot the last market view persists under.
const snapshotKey = "electro:last_market"

// SnapshotStore persists the last market view across restarts.
type SnapshotStore interface {
	UpsertMetadata(ctx context.Context, key, value string, ts int64) error
	GetMetadata(ctx context.Context, key string) (string, error)
}

// Feed drives the market ticker. Freezing stops price movement but not the
// confirmation engine; the two only share the event bus.
type Feed struct {
	bus      *event.Bus
	store    SnapshotStore // optional
	interval time.Duration

	mu     sync.RWMutex
	states map[domain.Currency]*domain.MarketState
	frozen bool
	rng    *rand.Rand
}

// NewFeed creates a feed seeded with the initial market.
func NewFeed(bus *event.Bus, store SnapshotStore, interval time.Duration, seed int64) *Feed {
	return &Feed{
		bus:      bus,
		store:    store,
		interval: interval,
		states:   domain.SeedMarket(),
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Restore loads the persisted market snapshot, if any.
func (f *Feed) Restore(ctx context.Context) {
	if f.store == nil {
		return
	}
	raw, err := f.store.GetMetadata(ctx, snapshotKey)
	if err != nil || raw == "" {
		return
	}
	var states map[domain.Currency]*domain.MarketState
	if err := json.Unmarshal([]byte(raw), &states); err != nil {
		slog.Warn("market snapshot unreadable, reseeding", slog.Any("error", err))
		return
	}
	f.mu.Lock()
	for sym, st := range states {
		if sym.Valid() && st != nil && st.Price.Sign() > 0 {
			f.states[sym] = st
		}
	}
	f.mu.Unlock()
	slog.Info("market snapshot restored")
}

// Run steps the simulation until the context ends.
func (f *Feed) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("market feed stopping")
			return
		case <-ticker.C:
			f.Step(ctx)
		}
	}
}

// Step advances every symbol by one random-walk tick and publishes the
// updates. Frozen markets skip entirely.
func (f *Feed) Step(ctx context.Context) {
	f.mu.Lock()
	if f.frozen {
		f.mu.Unlock()
		return
	}

	now := time.Now().UnixMilli()
	ticks := make([]domain.MarketTick, 0, len(f.states))
	for _, st := range f.states {
		// drift within roughly +-2% per tick
		drift := decimal.NewFromFloat((f.rng.Float64() - 0.5) * 0.04)
		next := st.Price.Mul(decimal.NewFromInt(1).Add(drift))
		st.Update(next, now)
		ticks = append(ticks, domain.MarketTick{
			Symbol:    st.Symbol,
			Price:     st.Price,
			Change24h: st.Change24h,
			Timestamp: now,
		})
	}
	f.mu.Unlock()

	for _, tick := range ticks {
		f.bus.Publish(event.EvMarketUpdate, tick)
	}
	f.persist(ctx)
}

// ApplyLive overwrites prices with polled real quotes. Honors the freeze
// toggle the same way the simulated walk does.
func (f *Feed) ApplyLive(ctx context.Context, quotes map[domain.Currency]infra.LiveQuote) {
	f.mu.Lock()
	if f.frozen {
		f.mu.Unlock()
		return
	}

	now := time.Now().UnixMilli()
	ticks := make([]domain.MarketTick, 0, len(quotes))
	for sym, q := range quotes {
		st, ok := f.states[sym]
		if !ok {
			continue
		}
		st.Update(q.Price, now)
		st.Change24h = q.Change24h
		ticks = append(ticks, domain.MarketTick{
			Symbol:    sym,
			Price:     st.Price,
			Change24h: st.Change24h,
			Timestamp: now,
		})
	}
	f.mu.Unlock()

	for _, tick := range ticks {
		f.bus.Publish(event.EvMarketUpdate, tick)
	}
	f.persist(ctx)
}

// SetFrozen toggles the freeze switch and broadcasts the new state.
func (f *Feed) SetFrozen(frozen bool) {
	f.mu.Lock()
	f.frozen = frozen
	f.mu.Unlock()
	f.bus.Publish(event.EvMarketFrozen, frozen)
	slog.Info("market freeze toggled", slog.Bool("frozen", frozen))
}

// Frozen reports the freeze state.
func (f *Feed) Frozen() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.frozen
}

// State returns a copy of one symbol's market state.
func (f *Feed) State(sym domain.Currency) (*domain.MarketState, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	st, ok := f.states[sym]
	if !ok {
		return nil, false
	}
	return st.Clone(), true
}

// Snapshot returns a copy of the whole market view.
func (f *Feed) Snapshot() map[domain.Currency]*domain.MarketState {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[domain.Currency]*domain.MarketState, len(f.states))
	for sym, st := range f.states {
		out[sym] = st.Clone()
	}
	return out
}

func (f *Feed) persist(ctx context.Context) {
	if f.store == nil {
		return
	}
	snap := f.Snapshot()
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := f.store.UpsertMetadata(ctx, snapshotKey, string(raw), time.Now().UnixMilli()); err != nil {
		slog.Warn("market snapshot persist failed", slog.Any("error", err))
	}
}
