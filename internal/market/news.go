package market

import (
	"context"
	"log/slog"
	"time"

	"github.com/HackbyRd258/ElectroWallet/internal/event"
)

// fallbackHeadlines rotate when no external news source is wired up.
var fallbackHeadlines = []string{
	"System Notice: Maintenance window scheduled at 02:00 UTC",
	"Simulation Event: Market volatility increased for BTC",
	"Tip: Enable Price Alerts in Settings to never miss a move",
}

// NewsTicker periodically broadcasts headlines on the bus.
type NewsTicker struct {
	bus      *event.Bus
	interval time.Duration
}

// NewNewsTicker creates a news broadcaster.
func NewNewsTicker(bus *event.Bus, interval time.Duration) *NewsTicker {
	return &NewsTicker{bus: bus, interval: interval}
}

// Run broadcasts until the context ends.
func (n *NewsTicker) Run(ctx context.Context) {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	offset := 0
	for {
		select {
		case <-ctx.Done():
			slog.Info("news ticker stopping")
			return
		case <-ticker.C:
			headlines := make([]string, 0, len(fallbackHeadlines))
			for i := range fallbackHeadlines {
				headlines = append(headlines, fallbackHeadlines[(offset+i)%len(fallbackHeadlines)])
			}
			offset++
			n.bus.Publish(event.EvNewsUpdate, event.NewsPayload{
				Headlines: headlines,
				Timestamp: time.Now().UnixMilli(),
			})
		}
	}
}
