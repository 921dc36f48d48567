// Package admin implements the god-mode console: market freeze, airdrops,
// global alerts and direct mints. These are external triggers consumed by
// the ledger and feed, bypassing the normal submit/confirm flow.
package admin

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/HackbyRd258/ElectroWallet/internal/domain"
	"github.com/HackbyRd258/ElectroWallet/internal/event"
	"github.com/HackbyRd258/ElectroWallet/internal/ledger"
	"github.com/HackbyRd258/ElectroWallet/internal/market"
)

// SystemSender labels synthetic mint records in the history.
const SystemSender = "SYSTEM"

// Console wires god-mode controls to the ledger, market feed and bus.
type Console struct {
	ledger *ledger.Ledger
	feed   *market.Feed
	bus    *event.Bus
}

// NewConsole creates the admin console.
func NewConsole(l *ledger.Ledger, feed *market.Feed, bus *event.Bus) *Console {
	return &Console{ledger: l, feed: feed, bus: bus}
}

// FreezeMarket halts (or resumes) the market feed. The confirmation engine
// is untouched: pending transfers keep settling while prices stand still.
func (c *Console) FreezeMarket(frozen bool) {
	c.feed.SetFrozen(frozen)
}

// Airdrop credits every account, bypassing the mempool, and broadcasts the
// drop.
func (c *Console) Airdrop(cur domain.Currency, amount decimal.Decimal) (int, error) {
	if !cur.Valid() {
		return 0, domain.ErrUnknownCurrency
	}
	n, err := c.ledger.CreditAll(cur, amount)
	if err != nil {
		return n, err
	}
	c.bus.Publish(event.EvAirdrop, event.AirdropPayload{
		Amount:    amount.String(),
		Currency:  string(cur),
		Timestamp: time.Now().UnixMilli(),
	})
	slog.Info("airdrop delivered",
		slog.String("amount", amount.String()),
		slog.String("currency", string(cur)),
		slog.Int("accounts", n))
	return n, nil
}

// GlobalAlert broadcasts a notification. Pure event, no state change.
func (c *Console) GlobalAlert(message string) {
	c.bus.Publish(event.EvGlobalAlert, event.AlertPayload{
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
	})
}

// Mint credits one account directly and appends a synthetic already-Confirmed
// record with the system sender.
func (c *Console) Mint(accountID string, cur domain.Currency, amount decimal.Decimal) (*domain.LedgerRecord, error) {
	if !cur.Valid() {
		return nil, domain.ErrUnknownCurrency
	}
	target, ok := c.ledger.Accounts().FindByID(accountID)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	if err := c.ledger.Credit(accountID, cur, amount); err != nil {
		return nil, err
	}

	rec := domain.LedgerRecord{
		ID:               uuid.NewString(),
		Hash:             mintHash(),
		SenderUsername:   SystemSender,
		ReceiverUsername: target.Username,
		Amount:           amount,
		Currency:         cur,
		Timestamp:        time.Now().UnixMilli(),
		Status:           domain.StatusConfirmed,
	}
	if err := c.ledger.AppendHistory(rec); err != nil {
		return nil, err
	}
	c.bus.Publish(event.EvTxConfirmed, rec)

	slog.Info("mint applied",
		slog.String("to", target.Username),
		slog.String("amount", amount.String()),
		slog.String("currency", string(cur)))
	return &rec, nil
}

func mintHash() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
