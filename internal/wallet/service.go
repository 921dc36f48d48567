// Package wallet handles account onboarding: registration with unique
// usernames and addresses, mnemonic issuance, authentication and the admin
// seed account.
package wallet

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/HackbyRd258/ElectroWallet/internal/address"
	"github.com/HackbyRd258/ElectroWallet/internal/domain"
	"github.com/HackbyRd258/ElectroWallet/internal/ledger"
)

// mnemonicWords is the word pool for recovery phrases (demo only, not BIP-39
// complete).
var mnemonicWords = []string{
	"abandon", "ability", "able", "about", "above", "absent", "absorb", "abstract", "absurd", "abuse", "access", "accident",
	"account", "accuse", "achieve", "acid", "acoustic", "acquire", "across", "act", "action", "actor", "actress", "actual",
	"adapt", "add", "addict", "address", "adjust", "admit", "adult", "advance", "advice", "aerobic", "affair", "afford",
	"afraid", "again", "age", "agent", "agree", "ahead", "aim", "air", "airport", "aisle", "alarm", "album", "alcohol",
	"alert", "alien", "all", "alley", "allow", "almost", "alone", "alpha", "already", "also", "alter", "always",
}

// Service creates and authenticates accounts.
type Service struct {
	accounts ledger.AccountRepository
	registry *address.Registry

	mu  sync.Mutex
	rng *rand.Rand
}

// NewService creates the account service.
func NewService(accounts ledger.AccountRepository, registry *address.Registry, seed int64) *Service {
	return &Service{
		accounts: accounts,
		registry: registry,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Register creates a new account with unique addresses and a fresh mnemonic.
// Usernames are unique case-insensitively.
func (s *Service) Register(username, password string) (*domain.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.ErrBadCredentials
	}
	if _, taken := s.accounts.FindByUsername(username); taken {
		return nil, domain.ErrUsernameTaken
	}

	a := domain.NewAccount(uuid.NewString(), username)
	a.PasswordHash = HashPassword(password)
	a.Addresses = s.registry.GenerateAll(s.addressTaken)
	a.Mnemonic = s.newMnemonic()

	if err := s.accounts.Create(a); err != nil {
		return nil, err
	}
	slog.Info("account registered", slog.String("username", username))
	return a.Clone(), nil
}

// Authenticate verifies credentials and returns the account.
func (s *Service) Authenticate(username, password string) (*domain.Account, error) {
	a, ok := s.accounts.FindByUsername(username)
	if !ok || a.PasswordHash != HashPassword(password) {
		return nil, domain.ErrBadCredentials
	}
	return a, nil
}

// SetBanned flips the ban flag for an account.
func (s *Service) SetBanned(id string, banned bool) error {
	a, ok := s.accounts.FindByID(id)
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.IsBanned = banned
	return s.accounts.Update(a)
}

// SeedAdmin ensures the built-in administrator exists, pre-funded for god
// mode demos. Safe to call on every startup.
func (s *Service) SeedAdmin() (*domain.Account, error) {
	if a, ok := s.accounts.FindByUsername("AdminGod"); ok {
		return a, nil
	}

	a := domain.NewAccount("admin-001", "AdminGod")
	a.PasswordHash = HashPassword("admin123")
	a.Tier = domain.TierPremium
	a.IsAdmin = true
	a.Addresses = s.registry.GenerateAll(s.addressTaken)
	a.Addresses[domain.BTC] = "bc1qadminx7v678hnd73ndu293ns7sk2k9sh3"
	a.Mnemonic = s.newMnemonic()
	a.Balances[domain.BTC] = decimal.NewFromInt(100)
	a.Balances[domain.ETH] = decimal.NewFromInt(500)
	a.Balances[domain.SOL] = decimal.NewFromInt(10000)

	if err := s.accounts.Create(a); err != nil {
		return nil, err
	}
	slog.Info("admin account seeded")
	return a.Clone(), nil
}

func (s *Service) addressTaken(addr string) bool {
	for _, c := range domain.Currencies {
		if _, ok := s.accounts.FindByAddress(c, addr); ok {
			return true
		}
	}
	return false
}

func (s *Service) newMnemonic() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	words := make([]string, 12)
	for i := range words {
		words[i] = mnemonicWords[s.rng.Intn(len(mnemonicWords))]
	}
	return strings.Join(words, " ")
}

// HashPassword returns the hex SHA-256 of the password. Good enough for a
// simulation; nothing here guards real funds.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
