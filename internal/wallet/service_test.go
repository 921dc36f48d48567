package wallet

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/HackbyRd258/ElectroWallet/internal/address"
	"github.com/HackbyRd258/ElectroWallet/internal/domain"
	"github.com/HackbyRd258/ElectroWallet/internal/ledger"
)

func newTestService(t *testing.T) (*Service, *ledger.MemoryAccounts) {
	t.Helper()
	accounts := ledger.NewMemoryAccounts()
	registry := address.NewRegistry(42)
	return NewService(accounts, registry, 42), accounts
}

func TestService_Register(t *testing.T) {
	svc, _ := newTestService(t)

	a, err := svc.Register("alice", "hunter2")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if a.Username != "alice" {
		t.Errorf("Expected username alice, got %s", a.Username)
	}
	if a.Tier != domain.TierFree {
		t.Errorf("Expected Free tier, got %s", a.Tier)
	}
	if a.PasswordHash == "hunter2" || a.PasswordHash == "" {
		t.Error("Password must be stored hashed")
	}

	for _, c := range domain.Currencies {
		if !address.Validate(c, a.Addresses[c]) {
			t.Errorf("%s: invalid generated address %q", c, a.Addresses[c])
		}
		if !a.Balance(c).IsZero() {
			t.Errorf("%s: expected zero starting balance, got %s", c, a.Balance(c))
		}
	}

	words := strings.Fields(a.Mnemonic)
	if len(words) != 12 {
		t.Errorf("Expected 12-word mnemonic, got %d words", len(words))
	}
}

func TestService_RegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Register("  ", "pw"); err != domain.ErrBadCredentials {
		t.Errorf("Expected ErrBadCredentials for blank username, got %v", err)
	}

	if _, err := svc.Register("alice", "pw"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := svc.Register("ALICE", "pw"); err != domain.ErrUsernameTaken {
		t.Errorf("Expected ErrUsernameTaken case-insensitively, got %v", err)
	}
}

func TestService_UniqueAddressesAcrossAccounts(t *testing.T) {
	svc, _ := newTestService(t)

	a, _ := svc.Register("alice", "pw")
	b, _ := svc.Register("bob", "pw")

	for _, c := range domain.Currencies {
		if a.Addresses[c] == b.Addresses[c] {
			t.Errorf("%s: two accounts share the address %s", c, a.Addresses[c])
		}
	}
}

func TestService_Authenticate(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Register("alice", "hunter2")

	t.Run("valid credentials", func(t *testing.T) {
		a, err := svc.Authenticate("alice", "hunter2")
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if a.Username != "alice" {
			t.Errorf("Wrong account: %s", a.Username)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, err := svc.Authenticate("alice", "wrong"); err != domain.ErrBadCredentials {
			t.Errorf("Expected ErrBadCredentials, got %v", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		if _, err := svc.Authenticate("nobody", "pw"); err != domain.ErrBadCredentials {
			t.Errorf("Expected ErrBadCredentials, got %v", err)
		}
	})
}

func TestService_SetBanned(t *testing.T) {
	svc, accounts := newTestService(t)
	a, _ := svc.Register("alice", "pw")

	if err := svc.SetBanned(a.ID, true); err != nil {
		t.Fatalf("SetBanned failed: %v", err)
	}
	stored, _ := accounts.FindByID(a.ID)
	if !stored.IsBanned {
		t.Error("Ban flag not persisted")
	}

	if err := svc.SetBanned("nobody", true); err != domain.ErrAccountNotFound {
		t.Errorf("Expected ErrAccountNotFound, got %v", err)
	}
}

func TestService_SeedAdmin(t *testing.T) {
	svc, _ := newTestService(t)

	admin, err := svc.SeedAdmin()
	if err != nil {
		t.Fatalf("SeedAdmin failed: %v", err)
	}

	if admin.Username != "AdminGod" || !admin.IsAdmin {
		t.Error("Seeded admin missing god-mode identity")
	}
	if admin.Tier != domain.TierPremium {
		t.Errorf("Expected Premium admin tier, got %s", admin.Tier)
	}
	if !admin.Balance(domain.BTC).Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected 100 BTC, got %s", admin.Balance(domain.BTC))
	}
	if !admin.Balance(domain.ETH).Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected 500 ETH, got %s", admin.Balance(domain.ETH))
	}
	if !admin.Balance(domain.SOL).Equal(decimal.NewFromInt(10000)) {
		t.Errorf("Expected 10000 SOL, got %s", admin.Balance(domain.SOL))
	}
	if admin.Addresses[domain.BTC] != "bc1qadminx7v678hnd73ndu293ns7sk2k9sh3" {
		t.Errorf("Admin BTC address mismatch: %s", admin.Addresses[domain.BTC])
	}

	// Idempotent across restarts
	again, err := svc.SeedAdmin()
	if err != nil {
		t.Fatalf("Second SeedAdmin failed: %v", err)
	}
	if again.ID != admin.ID {
		t.Error("SeedAdmin created a second admin account")
	}
}

func TestHashPassword(t *testing.T) {
	h1 := HashPassword("admin123")
	h2 := HashPassword("admin123")
	if h1 != h2 {
		t.Error("Hash must be deterministic")
	}
	if len(h1) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(h1))
	}
	if HashPassword("other") == h1 {
		t.Error("Different passwords must hash differently")
	}
}
