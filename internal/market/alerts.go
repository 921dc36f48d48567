package market

import (
	"sync"

	"github.com/HackbyRd258/ElectroWallet/internal/domain"
	"github.com/HackbyRd258/ElectroWallet/internal/event"
)

// AlertBook watches market ticks and fires registered price alerts.
// Non-persistent alerts deactivate after firing; persistent ones keep
// re-firing whenever the condition holds.
type AlertBook struct {
	mu     sync.Mutex
	alerts []*domain.AlertConfig
	notify func(alert *domain.AlertConfig, tick domain.MarketTick)
}

// NewAlertBook creates an alert book subscribed to market updates on the bus.
func NewAlertBook(bus *event.Bus, notify func(alert *domain.AlertConfig, tick domain.MarketTick)) *AlertBook {
	b := &AlertBook{notify: notify}
	bus.Subscribe(event.EvMarketUpdate, func(payload any) {
		tick, ok := payload.(domain.MarketTick)
		if !ok {
			return
		}
		b.check(tick)
	})
	return b
}

// Add registers an alert.
func (b *AlertBook) Add(a *domain.AlertConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.alerts = append(b.alerts, a)
}

// Active returns the number of active alerts.
func (b *AlertBook) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, a := range b.alerts {
		if a.IsActive() {
			n++
		}
	}
	return n
}

func (b *AlertBook) check(tick domain.MarketTick) {
	b.mu.Lock()
	var fired []*domain.AlertConfig
	for _, a := range b.alerts {
		if a.Symbol != tick.Symbol {
			continue
		}
		if a.CheckCondition(tick.Price) {
			if !a.IsPersistent {
				a.SetActive(false)
			}
			fired = append(fired, a)
		}
	}
	b.mu.Unlock()

	if b.notify == nil {
		return
	}
	for _, a := range fired {
		b.notify(a, tick)
	}
}
