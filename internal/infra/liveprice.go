package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HackbyRd258/ElectroWallet/internal/domain"
)

// geckoSimplePrice is the CoinGecko simple/price response shape.
type geckoSimplePrice map[string]struct {
	USD       float64 `json:"usd"`
	Change24h float64 `json:"usd_24h_change"`
}

var geckoIDs = map[string]domain.Currency{
	"bitcoin":  domain.BTC,
	"ethereum": domain.ETH,
	"solana":   domain.SOL,
}

// LiveQuote is one polled market quote.
type LiveQuote struct {
	Price     decimal.Decimal
	Change24h decimal.Decimal
}

// LivePriceClient polls real market prices. The market feed treats it as
// optional flavor: when the poll fails (or the breaker is open) the feed
// keeps running on its internal random walk.
type LivePriceClient struct {
	onUpdate     func(map[domain.Currency]LiveQuote)
	pollInterval time.Duration
	apiURL       string
	httpClient   *http.Client
	breaker      *CircuitBreaker
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// NewLivePriceClient creates a poller for the given endpoint.
func NewLivePriceClient(apiURL string, pollIntervalSec int, onUpdate func(map[domain.Currency]LiveQuote)) *LivePriceClient {
	interval := 60 * time.Second
	if pollIntervalSec > 0 {
		interval = time.Duration(pollIntervalSec) * time.Second
	}
	return &LivePriceClient{
		onUpdate:     onUpdate,
		pollInterval: interval,
		apiURL:       apiURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker: NewCircuitBreaker(DefaultCircuitBreakerConfig("live-prices")),
	}
}

// Start begins polling for price updates.
func (c *LivePriceClient) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	if err := c.fetch(ctx); err != nil {
		// Not fatal; the next tick retries and the feed keeps simulating.
		slog.Warn("initial live price fetch failed", slog.Any("error", err))
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("live price polling panic recovered", slog.Any("panic", r))
			}
		}()

		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("live price polling stopped")
				return
			case <-ticker.C:
				if err := c.fetch(ctx); err != nil {
					slog.Warn("live price fetch failed", slog.Any("error", err))
				}
			}
		}
	}()

	return nil
}

// fetch polls once with retry backoff, respecting the circuit breaker.
func (c *LivePriceClient) fetch(ctx context.Context) error {
	if !c.breaker.Allow() {
		return fmt.Errorf("live price breaker open")
	}

	var lastErr error
	for i := 0; i < 3; i++ {
		if i > 0 {
			delay := CalculateBackoff(i - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := c.doFetch(ctx)
		if err == nil {
			c.breaker.RecordSuccess()
			return nil
		}
		lastErr = err
	}

	c.breaker.RecordFailure()
	return lastErr
}

func (c *LivePriceClient) doFetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var data geckoSimplePrice
	if err := json.Unmarshal(body, &data); err != nil {
		return err
	}

	quotes := make(map[domain.Currency]LiveQuote, len(geckoIDs))
	for id, sym := range geckoIDs {
		entry, ok := data[id]
		if !ok || entry.USD <= 0 {
			continue
		}
		quotes[sym] = LiveQuote{
			Price:     decimal.NewFromFloat(entry.USD),
			Change24h: decimal.NewFromFloat(entry.Change24h),
		}
	}

	if len(quotes) == 0 {
		return fmt.Errorf("empty live price response")
	}

	if c.onUpdate != nil {
		c.onUpdate(quotes)
	}
	return nil
}

// Stop stops the polling.
func (c *LivePriceClient) Stop() {
	if c.cancel != nil {
		c.cancel()
		c.wg.Wait()
	}
}
