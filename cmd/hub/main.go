package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/HackbyRd258/ElectroWallet/internal/admin"
	"github.com/HackbyRd258/ElectroWallet/internal/app"
	"github.com/HackbyRd258/ElectroWallet/internal/domain"
	"github.com/HackbyRd258/ElectroWallet/internal/engine"
	"github.com/HackbyRd258/ElectroWallet/internal/event"
	"github.com/HackbyRd258/ElectroWallet/internal/infra"
	"github.com/HackbyRd258/ElectroWallet/internal/market"
	"github.com/HackbyRd258/ElectroWallet/internal/transport"
)

func main() {
	// Optional .env for local overrides; absence is fine.
	_ = godotenv.Load()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("bootstrap failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := bootstrap.Config
	bus := event.NewBus()
	defer bus.Close()

	// Market feed
	var snapStore market.SnapshotStore
	if bootstrap.Store != nil {
		snapStore = bootstrap.Store
	}
	feed := market.NewFeed(bus, snapStore,
		time.Duration(cfg.Market.TickIntervalMS)*time.Millisecond,
		time.Now().UnixNano())
	feed.Restore(ctx)
	go feed.Run(ctx)

	// Optional live prices layered over the simulation
	if cfg.Market.LiveURL != "" {
		live := infra.NewLivePriceClient(cfg.Market.LiveURL, cfg.Market.LivePollSec,
			func(quotes map[domain.Currency]infra.LiveQuote) {
				feed.ApplyLive(ctx, quotes)
			})
		if err := live.Start(ctx); err != nil {
			slog.Warn("live price client failed to start", slog.Any("error", err))
		}
		defer live.Stop()
	}

	// Confirmation engine, admin console, news
	var poolStore engine.PoolStore
	if bootstrap.Store != nil {
		poolStore = bootstrap.Store
	}
	eng := engine.New(bootstrap.Ledger, bus, cfg.Policies(), poolStore)
	eng.Restore(ctx)
	defer eng.Stop()
	console := admin.NewConsole(bootstrap.Ledger, feed, bus)

	newsInterval := 30 * time.Second
	if cfg.Hub.NewsIntervalMS > 0 {
		newsInterval = time.Duration(cfg.Hub.NewsIntervalMS) * time.Millisecond
	}
	go market.NewNewsTicker(bus, newsInterval).Run(ctx)

	// WebSocket hub
	hub := transport.NewHub(eng, console, feed, bootstrap.Ledger)
	defer hub.Close()
	bus.AttachTransport(hub)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"ok":           true,
			"marketFrozen": feed.Frozen(),
			"onlineUsers":  hub.Online(),
			"mempool":      len(eng.Mempool()),
		})
	})

	server := &http.Server{Addr: cfg.Hub.Addr, Handler: mux}
	go func() {
		slog.Info("hub listening", slog.String("addr", cfg.Hub.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("hub server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("server shutdown", slog.Any("error", err))
	}
}
