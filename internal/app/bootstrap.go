// Package app orchestrates startup: config, logging, storage, repositories
// and the seeded admin account.
package app

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/HackbyRd258/ElectroWallet/internal/address"
	"github.com/HackbyRd258/ElectroWallet/internal/infra"
	"github.com/HackbyRd258/ElectroWallet/internal/ledger"
	"github.com/HackbyRd258/ElectroWallet/internal/storage"
	"github.com/HackbyRd258/ElectroWallet/internal/wallet"
)

// Bootstrap orchestrates the application startup sequence.
type Bootstrap struct {
	Config   *infra.Config
	Store    *storage.WalletStore // nil in memory mode
	Ledger   *ledger.Ledger
	Accounts ledger.AccountRepository
	Wallet   *wallet.Service
	Registry *address.Registry

	lockCloser func()
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization: config, logger, store,
// repositories, admin seed.
func (b *Bootstrap) Initialize() error {
	cfg, err := infra.LoadConfig(infra.ResolveConfigPath())
	if err != nil {
		return err
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	infra.PrintBanner(cfg)

	var accounts ledger.AccountRepository
	var history ledger.LedgerRepository

	if cfg.Storage.Path != "" {
		workDir := infra.GetWorkspaceDir()
		if err := infra.EnsureDir(workDir); err != nil {
			return err
		}

		closer, err := infra.CreateLockFile(workDir)
		if err != nil {
			return err
		}
		b.lockCloser = closer

		store, err := storage.NewWalletStore(filepath.Join(workDir, cfg.Storage.Path))
		if err != nil {
			return err
		}
		b.Store = store
		accounts = store
		history = store
		slog.Info("wallet store opened", slog.String("path", cfg.Storage.Path))
	} else {
		accounts = ledger.NewMemoryAccounts()
		history = ledger.NewMemoryHistory()
		slog.Info("running on in-memory repositories")
	}

	b.Accounts = accounts
	b.Ledger = ledger.New(accounts, history)
	b.Registry = address.NewRegistry(time.Now().UnixNano())
	b.Wallet = wallet.NewService(accounts, b.Registry, time.Now().UnixNano())

	if _, err := b.Wallet.SeedAdmin(); err != nil {
		return err
	}

	slog.Info("bootstrap complete",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version))
	return nil
}

// Shutdown releases held resources.
func (b *Bootstrap) Shutdown() {
	if b.Store != nil {
		if err := b.Store.Close(); err != nil {
			slog.Warn("store close failed", slog.Any("error", err))
		}
	}
	if b.lockCloser != nil {
		b.lockCloser()
	}
}
