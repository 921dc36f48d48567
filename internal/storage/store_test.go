package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/HackbyRd258/ElectroWallet/internal/domain"
)

func newTestStore(t *testing.T) *WalletStore {
	t.Helper()
	store, err := NewWalletStore(filepath.Join(t.TempDir(), "wallet_test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestWalletStore_AccountRoundTrip(t *testing.T) {
	store := newTestStore(t)

	a := domain.NewAccount("a-1", "Alice")
	a.PasswordHash = "hash123"
	a.Mnemonic = "word1 word2"
	a.Addresses[domain.BTC] = "bc1qaliceaddraliceaddraliceaddraliceaddr"
	a.Balances[domain.BTC] = decimal.RequireFromString("1.25")

	if err := store.Create(a); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	loaded, ok := store.FindByID("a-1")
	if !ok {
		t.Fatal("Account not found after create")
	}
	if loaded.Username != "Alice" {
		t.Errorf("Username mismatch: got %s", loaded.Username)
	}
	if loaded.PasswordHash != "hash123" {
		t.Error("Password hash not persisted")
	}
	if loaded.Mnemonic != "word1 word2" {
		t.Error("Mnemonic not persisted")
	}
	if !loaded.Balance(domain.BTC).Equal(decimal.RequireFromString("1.25")) {
		t.Errorf("Balance mismatch: got %s", loaded.Balance(domain.BTC))
	}
}

func TestWalletStore_DuplicateIDRejected(t *testing.T) {
	store := newTestStore(t)

	a := domain.NewAccount("a-1", "Alice")
	if err := store.Create(a); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Create(a); err == nil {
		t.Error("Expected duplicate id to fail")
	}
}

func TestWalletStore_FindByUsernameCaseInsensitive(t *testing.T) {
	store := newTestStore(t)

	if err := store.Create(domain.NewAccount("a-1", "Alice")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, ok := store.FindByUsername("aLiCe"); !ok {
		t.Error("Username lookup should be case-insensitive")
	}
	if _, ok := store.FindByUsername("bob"); ok {
		t.Error("Unknown username should not be found")
	}
}

func TestWalletStore_FindByAddress(t *testing.T) {
	store := newTestStore(t)

	a := domain.NewAccount("a-1", "Alice")
	a.Addresses[domain.ETH] = "0x52908400098527886E0F7030069857D2E4169EE7"
	if err := store.Create(a); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, ok := store.FindByAddress(domain.ETH, "0x52908400098527886e0f7030069857d2e4169ee7")
	if !ok {
		t.Fatal("Address lookup should be case-insensitive")
	}
	if found.ID != "a-1" {
		t.Errorf("Wrong account resolved: %s", found.ID)
	}
	if _, ok := store.FindByAddress(domain.BTC, a.Addresses[domain.ETH]); ok {
		t.Error("Address lookup must be scoped to the currency")
	}
}

func TestWalletStore_ApplyTransfer(t *testing.T) {
	store := newTestStore(t)

	alice := domain.NewAccount("a-1", "alice")
	alice.Balances[domain.BTC] = decimal.NewFromInt(10)
	bob := domain.NewAccount("b-1", "bob")
	for _, a := range []*domain.Account{alice, bob} {
		if err := store.Create(a); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	if err := store.ApplyTransfer("a-1", "b-1", domain.BTC,
		decimal.NewFromInt(7), decimal.NewFromInt(3)); err != nil {
		t.Fatalf("ApplyTransfer failed: %v", err)
	}

	a, _ := store.FindByID("a-1")
	b, _ := store.FindByID("b-1")
	if !a.Balance(domain.BTC).Equal(decimal.NewFromInt(7)) {
		t.Errorf("Sender balance: expected 7, got %s", a.Balance(domain.BTC))
	}
	if !b.Balance(domain.BTC).Equal(decimal.NewFromInt(3)) {
		t.Errorf("Receiver balance: expected 3, got %s", b.Balance(domain.BTC))
	}
}

func TestWalletStore_HistoryOrdering(t *testing.T) {
	store := newTestStore(t)

	recs := []domain.LedgerRecord{
		{ID: "r3", Timestamp: 3000, Status: domain.StatusConfirmed},
		{ID: "r1", Timestamp: 1000, Status: domain.StatusConfirmed},
		{ID: "r2", Timestamp: 2000, Status: domain.StatusConfirmed},
	}
	for _, rec := range recs {
		if err := store.Append(rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	hist := store.History()
	if len(hist) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(hist))
	}
	for i, want := range []string{"r1", "r2", "r3"} {
		if hist[i].ID != want {
			t.Errorf("Record %d: expected %s, got %s", i, want, hist[i].ID)
		}
	}
}

func TestWalletStore_Metadata(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Missing key reads as empty, not error
	v, err := store.GetMetadata(ctx, "missing")
	if err != nil {
		t.Fatalf("GetMetadata failed: %v", err)
	}
	if v != "" {
		t.Errorf("Expected empty value, got %q", v)
	}

	if err := store.UpsertMetadata(ctx, "k", "v1", 1); err != nil {
		t.Fatalf("UpsertMetadata failed: %v", err)
	}
	if err := store.UpsertMetadata(ctx, "k", "v2", 2); err != nil {
		t.Fatalf("Upsert overwrite failed: %v", err)
	}

	v, err = store.GetMetadata(ctx, "k")
	if err != nil {
		t.Fatalf("GetMetadata failed: %v", err)
	}
	if v != "v2" {
		t.Errorf("Expected v2, got %q", v)
	}
}
