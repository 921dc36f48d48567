// Package storage persists wallet state in SQLite. The account and history
// collections are stored as serialized JSON rows and reloaded on every read,
// simulating the shared datastore all contexts agree on.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	_ "github.com/glebarez/go-sqlite"

	"github.com/HackbyRd258/ElectroWallet/internal/domain"
)

// WalletStore handles persistent storage of accounts, confirmed history and
// metadata in SQLite. It implements ledger.AccountRepository and
// ledger.LedgerRepository.
type WalletStore struct {
	db *sql.DB
	mu sync.Mutex // serializes multi-row write paths
}

// NewWalletStore opens the SQLite wallet store with WAL mode enabled.
func NewWalletStore(dbPath string) (*WalletStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			payload BLOB NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS history (
			id TEXT PRIMARY KEY,
			ts INTEGER NOT NULL,
			payload BLOB NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &WalletStore{db: db}, nil
}

// storedAccount is the persisted account shape, including fields the public
// JSON view hides.
type storedAccount struct {
	domain.Account
	PasswordHash string `json:"password_hash"`
	Mnemonic     string `json:"mnemonic"`
}

func (s *WalletStore) writeAccount(ctx context.Context, a *domain.Account, insert bool) error {
	payload, err := json.Marshal(storedAccount{Account: *a, PasswordHash: a.PasswordHash, Mnemonic: a.Mnemonic})
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}
	if insert {
		_, err = s.db.ExecContext(ctx,
			"INSERT INTO accounts (id, username, payload) VALUES (?, ?, ?)",
			a.ID, strings.ToLower(a.Username), payload)
	} else {
		_, err = s.db.ExecContext(ctx,
			"UPDATE accounts SET username = ?, payload = ? WHERE id = ?",
			strings.ToLower(a.Username), payload, a.ID)
	}
	return err
}

func decodeAccount(payload []byte) (*domain.Account, error) {
	var sa storedAccount
	if err := json.Unmarshal(payload, &sa); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	a := sa.Account
	a.PasswordHash = sa.PasswordHash
	a.Mnemonic = sa.Mnemonic
	if a.Balances == nil {
		a.Balances = make(map[domain.Currency]decimal.Decimal)
	}
	if a.Addresses == nil {
		a.Addresses = make(map[domain.Currency]string)
	}
	return &a, nil
}

// Create inserts a new account row.
func (s *WalletStore) Create(a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAccount(context.Background(), a, true)
}

// FindByID reloads one account from the database.
func (s *WalletStore) FindByID(id string) (*domain.Account, bool) {
	var payload []byte
	err := s.db.QueryRow("SELECT payload FROM accounts WHERE id = ?", id).Scan(&payload)
	if err != nil {
		return nil, false
	}
	a, err := decodeAccount(payload)
	if err != nil {
		return nil, false
	}
	return a, true
}

// FindByUsername performs a case-insensitive exact lookup.
func (s *WalletStore) FindByUsername(username string) (*domain.Account, bool) {
	var payload []byte
	err := s.db.QueryRow("SELECT payload FROM accounts WHERE username = ?", strings.ToLower(username)).Scan(&payload)
	if err != nil {
		return nil, false
	}
	a, err := decodeAccount(payload)
	if err != nil {
		return nil, false
	}
	return a, true
}

// FindByAddress scans the account collection for a currency address match.
func (s *WalletStore) FindByAddress(c domain.Currency, addr string) (*domain.Account, bool) {
	for _, a := range s.All() {
		if a.Addresses[c] != "" && strings.EqualFold(a.Addresses[c], addr) {
			return a, true
		}
	}
	return nil, false
}

// UpdateBalance sets the balance for one currency of one account.
func (s *WalletStore) UpdateBalance(id string, c domain.Currency, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.FindByID(id)
	if !ok {
		return fmt.Errorf("account %s not found", id)
	}
	a.Balances[c] = amount
	return s.writeAccount(context.Background(), a, false)
}

// ApplyTransfer writes both settlement sides in one database transaction.
func (s *WalletStore) ApplyTransfer(fromID, toID string, c domain.Currency, fromNew, toNew decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, ok := s.FindByID(fromID)
	if !ok {
		return fmt.Errorf("account %s not found", fromID)
	}
	to, ok := s.FindByID(toID)
	if !ok {
		return fmt.Errorf("account %s not found", toID)
	}
	from.Balances[c] = fromNew
	to.Balances[c] = toNew

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, a := range []*domain.Account{from, to} {
		payload, err := json.Marshal(storedAccount{Account: *a, PasswordHash: a.PasswordHash, Mnemonic: a.Mnemonic})
		if err != nil {
			return fmt.Errorf("failed to marshal account: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE accounts SET payload = ? WHERE id = ?", payload, a.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Update replaces the stored account row.
func (s *WalletStore) Update(a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAccount(context.Background(), a, false)
}

// All reloads every account from the database.
func (s *WalletStore) All() []*domain.Account {
	rows, err := s.db.Query("SELECT payload FROM accounts ORDER BY username ASC")
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []*domain.Account
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			continue
		}
		a, err := decodeAccount(payload)
		if err != nil {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Append stores a confirmed transaction record. History rows are append-only.
func (s *WalletStore) Append(rec domain.LedgerRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	_, err = s.db.Exec(
		"INSERT INTO history (id, ts, payload) VALUES (?, ?, ?)",
		rec.ID, rec.Timestamp, payload)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// History reloads all records, oldest first.
func (s *WalletStore) History() []domain.LedgerRecord {
	rows, err := s.db.Query("SELECT payload FROM history ORDER BY ts ASC, id ASC")
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []domain.LedgerRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			continue
		}
		var rec domain.LedgerRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// UpsertMetadata saves a key-value pair to the metadata table.
func (s *WalletStore) UpsertMetadata(ctx context.Context, key, value string, ts int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at",
		key, value, ts,
	)
	return err
}

// GetMetadata retrieves a value from the metadata table. Missing keys return
// an empty string.
func (s *WalletStore) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Close closes the database connection.
func (s *WalletStore) Close() error {
	return s.db.Close()
}
