// Command walletsim runs a self-contained end-to-end demo: in-memory
// repositories, two freshly registered users, one transfer driven through the
// full confirmation lifecycle, with every bus event printed as it happens.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/HackbyRd258/ElectroWallet/internal/address"
	"github.com/HackbyRd258/ElectroWallet/internal/domain"
	"github.com/HackbyRd258/ElectroWallet/internal/engine"
	"github.com/HackbyRd258/ElectroWallet/internal/event"
	"github.com/HackbyRd258/ElectroWallet/internal/ledger"
	"github.com/HackbyRd258/ElectroWallet/internal/wallet"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	accounts := ledger.NewMemoryAccounts()
	history := ledger.NewMemoryHistory()
	book := ledger.New(accounts, history)

	registry := address.NewRegistry(time.Now().UnixNano())
	accountSvc := wallet.NewService(accounts, registry, time.Now().UnixNano())

	alice, err := accountSvc.Register("alice", "hunter2")
	if err != nil {
		fatal("register alice", err)
	}
	bob, err := accountSvc.Register("bob", "swordfish")
	if err != nil {
		fatal("register bob", err)
	}
	if err := book.Credit(alice.ID, domain.BTC, decimal.NewFromInt(2)); err != nil {
		fatal("fund alice", err)
	}

	fmt.Printf("alice BTC address: %s\n", alice.Addresses[domain.BTC])
	fmt.Printf("bob   BTC address: %s\n\n", bob.Addresses[domain.BTC])

	bus := event.NewBus()
	defer bus.Close()

	done := make(chan struct{})
	bus.Subscribe(event.EvMempoolUpdate, func(payload any) {
		pool, ok := payload.([]*domain.PendingTransaction)
		if !ok {
			return
		}
		for _, tx := range pool {
			fmt.Printf("  [%s] %s -> %s  %s %s  %d/%d\n",
				tx.Status, tx.SenderUsername, tx.ReceiverUsername,
				tx.Amount.String(), tx.Currency, tx.Confirmations, tx.Required)
		}
	})
	bus.Subscribe(event.EvTxConfirmed, func(payload any) {
		rec, ok := payload.(domain.LedgerRecord)
		if !ok {
			return
		}
		fmt.Printf("\nconfirmed: hash=%s %s %s from %s to %s\n",
			rec.Hash[:16], rec.Amount.String(), rec.Currency,
			rec.SenderUsername, rec.ReceiverUsername)
		close(done)
	})

	// Short confirmation cycle so the demo finishes in a few seconds.
	policies := map[domain.Currency]domain.ConfirmationPolicy{
		domain.BTC: {Required: 6, TickInterval: 300 * time.Millisecond},
	}
	eng := engine.New(book, bus, policies, nil)
	defer eng.Stop()

	fmt.Println("submitting 1.5 BTC alice -> bob (by address):")
	tx, err := eng.Submit(alice.ID, bob.Addresses[domain.BTC], decimal.NewFromFloat(1.5), domain.BTC)
	if err != nil {
		fatal("submit", err)
	}
	fmt.Printf("pending id=%s hash=%s\n\n", tx.ID, tx.Hash[:16])

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		fatal("confirmation", fmt.Errorf("timed out waiting for settlement"))
	}

	aliceBal, _ := book.GetBalance(alice.ID, domain.BTC)
	bobBal, _ := book.GetBalance(bob.ID, domain.BTC)
	fmt.Printf("\nfinal balances: alice=%s BTC, bob=%s BTC\n", aliceBal.String(), bobBal.String())
	fmt.Printf("history records: %d\n", len(book.History()))
}

func fatal(stage string, err error) {
	fmt.Fprintf(os.Stderr, "walletsim: %s: %v\n", stage, err)
	os.Exit(1)
}
