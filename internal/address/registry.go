// Package address generates and validates per-asset wallet address strings.
// The formats are cosmetic imitations of the real networks: bech32-style for
// BTC, hex for ETH, base58 for SOL.
package address

import (
	"math/rand"
	"regexp"
	"sync"

	"github.com/HackbyRd258/ElectroWallet/internal/domain"
)

const (
	hexCharset    = "0123456789abcdef"
	base32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l" // bech32 charset, lower
	base58Charset = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
)

var (
	// Validation is alphanumeric-loose on purpose: user-entered bech32 is
	// accepted in any case, generation stays on the strict charset.
	btcPattern = regexp.MustCompile(`^(?i)bc1[0-9a-z]{20,87}$`)
	ethPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	solPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,64}$`)
)

// Registry generates unique addresses and validates user input.
type Registry struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRegistry creates a registry seeded from the given source.
func NewRegistry(seed int64) *Registry {
	return &Registry{rng: rand.New(rand.NewSource(seed))}
}

func (r *Registry) randomString(length int, charset string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]byte, length)
	for i := range out {
		out[i] = charset[r.rng.Intn(len(charset))]
	}
	return string(out)
}

// Generate produces a fresh address for the currency.
func (r *Registry) Generate(c domain.Currency) string {
	switch c {
	case domain.BTC:
		return "bc1q" + r.randomString(38, base32Charset)
	case domain.ETH:
		return "0x" + r.randomString(40, hexCharset)
	case domain.SOL:
		return r.randomString(44, base58Charset)
	}
	return ""
}

// GenerateUnique produces an address not already claimed according to taken.
func (r *Registry) GenerateUnique(c domain.Currency, taken func(string) bool) string {
	addr := r.Generate(c)
	for taken != nil && taken(addr) {
		addr = r.Generate(c)
	}
	return addr
}

// GenerateAll produces one unique address per supported currency.
func (r *Registry) GenerateAll(taken func(string) bool) map[domain.Currency]string {
	out := make(map[domain.Currency]string, len(domain.Currencies))
	for _, c := range domain.Currencies {
		out[c] = r.GenerateUnique(c, taken)
	}
	return out
}

// Validate reports whether addr is well-formed for the currency.
func Validate(c domain.Currency, addr string) bool {
	if addr == "" {
		return false
	}
	switch c {
	case domain.BTC:
		return btcPattern.MatchString(addr) && len(addr) >= 24 && len(addr) <= 62
	case domain.ETH:
		return ethPattern.MatchString(addr)
	case domain.SOL:
		return solPattern.MatchString(addr)
	}
	return false
}
