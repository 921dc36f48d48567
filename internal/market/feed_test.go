package market

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/HackbyRd258/ElectroWallet/internal/domain"
	"github.com/HackbyRd258/ElectroWallet/internal/event"
	"github.com/HackbyRd258/ElectroWallet/internal/infra"
)

// memSnapshotStore is an in-memory SnapshotStore for tests.
type memSnapshotStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemSnapshotStore() *memSnapshotStore {
	return &memSnapshotStore{data: make(map[string]string)}
}

func (m *memSnapshotStore) UpsertMetadata(_ context.Context, key, value string, _ int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memSnapshotStore) GetMetadata(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func collectTicks(bus *event.Bus) *[]domain.MarketTick {
	ticks := &[]domain.MarketTick{}
	bus.Subscribe(event.EvMarketUpdate, func(payload any) {
		if tick, ok := payload.(domain.MarketTick); ok {
			*ticks = append(*ticks, tick)
		}
	})
	return ticks
}

func TestFeed_Step(t *testing.T) {
	bus := event.NewBus()
	defer bus.Close()
	ticks := collectTicks(bus)

	feed := NewFeed(bus, nil, 0, 1)
	feed.Step(context.Background())

	if len(*ticks) != len(domain.Currencies) {
		t.Fatalf("Expected %d ticks, got %d", len(domain.Currencies), len(*ticks))
	}
	for _, tick := range *ticks {
		if tick.Price.Sign() <= 0 {
			t.Errorf("%s: non-positive price %s", tick.Symbol, tick.Price)
		}
	}

	st, ok := feed.State(domain.BTC)
	if !ok {
		t.Fatal("Expected BTC state")
	}
	if len(st.History) != 1 {
		t.Errorf("Expected 1 history point after one step, got %d", len(st.History))
	}
}

func TestFeed_StepBoundedDrift(t *testing.T) {
	bus := event.NewBus()
	defer bus.Close()

	feed := NewFeed(bus, nil, 0, 42)
	before, _ := feed.State(domain.BTC)
	feed.Step(context.Background())
	after, _ := feed.State(domain.BTC)

	ratio := after.Price.Div(before.Price)
	if ratio.LessThan(decimal.RequireFromString("0.98")) || ratio.GreaterThan(decimal.RequireFromString("1.02")) {
		t.Errorf("Single step drifted beyond 2%%: %s -> %s", before.Price, after.Price)
	}
}

func TestFeed_FreezeStopsTicks(t *testing.T) {
	bus := event.NewBus()
	defer bus.Close()
	ticks := collectTicks(bus)

	frozenEvents := 0
	bus.Subscribe(event.EvMarketFrozen, func(payload any) {
		if f, ok := payload.(bool); ok && f {
			frozenEvents++
		}
	})

	feed := NewFeed(bus, nil, 0, 1)
	feed.SetFrozen(true)

	if !feed.Frozen() {
		t.Fatal("Expected frozen feed")
	}
	if frozenEvents != 1 {
		t.Errorf("Expected 1 freeze event, got %d", frozenEvents)
	}

	feed.Step(context.Background())
	if len(*ticks) != 0 {
		t.Errorf("Frozen feed still published %d ticks", len(*ticks))
	}

	feed.SetFrozen(false)
	feed.Step(context.Background())
	if len(*ticks) == 0 {
		t.Error("Unfrozen feed published no ticks")
	}
}

func TestFeed_HistoryStaysBounded(t *testing.T) {
	bus := event.NewBus()
	defer bus.Close()

	feed := NewFeed(bus, nil, 0, 1)
	for i := 0; i < domain.MaxHistory+15; i++ {
		feed.Step(context.Background())
	}

	for _, c := range domain.Currencies {
		st, _ := feed.State(c)
		if len(st.History) != domain.MaxHistory {
			t.Errorf("%s: expected history capped at %d, got %d", c, domain.MaxHistory, len(st.History))
		}
	}
}

func TestFeed_SnapshotPersistAndRestore(t *testing.T) {
	bus := event.NewBus()
	defer bus.Close()
	ctx := context.Background()

	store := newMemSnapshotStore()
	feed := NewFeed(bus, store, 0, 1)
	feed.Step(ctx)
	stepped, _ := feed.State(domain.BTC)

	// A fresh feed restores the persisted view instead of the seed
	restored := NewFeed(bus, store, 0, 2)
	restored.Restore(ctx)
	st, _ := restored.State(domain.BTC)

	if !st.Price.Equal(stepped.Price) {
		t.Errorf("Restore mismatch: expected %s, got %s", stepped.Price, st.Price)
	}
	if len(st.History) != len(stepped.History) {
		t.Errorf("Restore history mismatch: expected %d points, got %d",
			len(stepped.History), len(st.History))
	}
}

func TestFeed_RestoreIgnoresGarbage(t *testing.T) {
	bus := event.NewBus()
	defer bus.Close()
	ctx := context.Background()

	store := newMemSnapshotStore()
	store.UpsertMetadata(ctx, snapshotKey, "{not json", 0)

	feed := NewFeed(bus, store, 0, 1)
	feed.Restore(ctx)

	st, ok := feed.State(domain.BTC)
	if !ok || st.Price.Sign() <= 0 {
		t.Error("Garbage snapshot must leave the seeded market intact")
	}
}

func TestFeed_ApplyLive(t *testing.T) {
	bus := event.NewBus()
	defer bus.Close()
	ticks := collectTicks(bus)

	feed := NewFeed(bus, nil, 0, 1)
	feed.ApplyLive(context.Background(), map[domain.Currency]infra.LiveQuote{
		domain.BTC: {Price: decimal.NewFromInt(70000), Change24h: decimal.RequireFromString("3.2")},
	})

	st, _ := feed.State(domain.BTC)
	if !st.Price.Equal(decimal.NewFromInt(70000)) {
		t.Errorf("Live quote not applied: got %s", st.Price)
	}
	if !st.Change24h.Equal(decimal.RequireFromString("3.2")) {
		t.Errorf("Live 24h change not applied: got %s", st.Change24h)
	}
	if len(*ticks) != 1 {
		t.Errorf("Expected 1 tick from live quote, got %d", len(*ticks))
	}
}
