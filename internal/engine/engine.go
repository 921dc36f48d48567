// Package engine implements the transaction confirmation simulator: it
// accepts submitted transfers into a pending pool, advances each one through
// a currency-specific number of confirmations on its own timer, and applies
// balance changes to the ledger exactly once when the threshold is reached.
package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/HackbyRd258/ElectroWallet/internal/domain"
	"github.com/HackbyRd258/ElectroWallet/internal/event"
	"github.com/HackbyRd258/ElectroWallet/internal/ledger"
)

// poolKey is the metadata slot the pending pool persists under.
const poolKey = "electro:mempool"

// PoolStore persists the pending pool across restarts.
type PoolStore interface {
	UpsertMetadata(ctx context.Context, key, value string, ts int64) error
	GetMetadata(ctx context.Context, key string) (string, error)
}

// Engine is the confirmation state machine. All mempool access goes through
// its mutex; the per-transaction timers call back into advance, which is a
// no-op for ids no longer in the pool (the idempotence guard).
type Engine struct {
	ledger   *ledger.Ledger
	bus      *event.Bus
	sched    *Scheduler
	policies map[domain.Currency]domain.ConfirmationPolicy
	store    PoolStore // nil disables pool persistence

	mu   sync.Mutex
	pool map[string]*domain.PendingTransaction
}

// New creates an engine over the injected ledger, bus and policies.
// Policies missing a supported currency fall back to the defaults.
func New(l *ledger.Ledger, bus *event.Bus, policies map[domain.Currency]domain.ConfirmationPolicy, store PoolStore) *Engine {
	merged := domain.DefaultPolicies()
	for c, p := range policies {
		merged[c] = p
	}
	return &Engine{
		ledger:   l,
		bus:      bus,
		sched:    NewScheduler(),
		policies: merged,
		store:    store,
		pool:     make(map[string]*domain.PendingTransaction),
	}
}

// Submit validates a transfer intent and, on success, places it in the
// mempool with zero confirmations, emits a mempool update and starts the
// per-transaction timer. Validation failures are synchronous, leave no state
// behind and emit nothing.
//
// Debits are deliberately deferred to settlement: multiple transfers may be
// pending against the same balance at once, each checked against the balance
// as of its own submission time.
func (e *Engine) Submit(senderID, destination string, amount decimal.Decimal, c domain.Currency) (*domain.PendingTransaction, error) {
	if !c.Valid() {
		return nil, domain.ErrUnknownCurrency
	}
	if amount.Sign() <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	sender, ok := e.ledger.Accounts().FindByID(senderID)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	if sender.IsBanned {
		return nil, domain.ErrAccountBanned
	}
	if sender.Balance(c).LessThan(amount) {
		return nil, domain.ErrInsufficientBalance
	}

	receiver, ok := e.resolve(destination, c)
	if !ok {
		return nil, domain.ErrDestinationNotFound
	}
	if receiver.ID == sender.ID {
		return nil, domain.ErrSelfTransfer
	}

	policy := e.policies[c]
	tx := &domain.PendingTransaction{
		ID:               uuid.NewString(),
		Hash:             newTxHash(),
		SenderID:         sender.ID,
		SenderUsername:   sender.Username,
		ReceiverID:       receiver.ID,
		ReceiverUsername: receiver.Username,
		Amount:           amount,
		Currency:         c,
		Timestamp:        time.Now().UnixMilli(),
		Status:           domain.StatusPending,
		Confirmations:    0,
		Required:         policy.Required,
	}

	e.mu.Lock()
	e.pool[tx.ID] = tx
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.bus.Publish(event.EvMempoolUpdate, snapshot)
	e.persist(snapshot)
	e.sched.Every(tx.ID, policy.TickInterval, func() { e.advance(tx.ID) })

	slog.Info("transfer submitted",
		slog.String("id", tx.ID),
		slog.String("from", tx.SenderUsername),
		slog.String("to", tx.ReceiverUsername),
		slog.String("amount", amount.String()),
		slog.String("currency", string(c)))

	return tx.Clone(), nil
}

// resolve maps a destination string to an account: exact address match for
// the selected currency first, then username. Fails closed.
func (e *Engine) resolve(destination string, c domain.Currency) (*domain.Account, bool) {
	if destination == "" {
		return nil, false
	}
	if a, ok := e.ledger.FindByAddress(c, destination); ok {
		return a, true
	}
	if a, ok := e.ledger.FindByUsername(destination); ok {
		return a, true
	}
	return nil, false
}

// advance is the timer callback: one confirmation increment, possibly one
// settlement. A stale tick for an id that already settled finds the pool
// entry gone and does nothing.
func (e *Engine) advance(id string) {
	e.mu.Lock()

	tx, ok := e.pool[id]
	if !ok {
		e.mu.Unlock()
		e.sched.Cancel(id)
		return
	}

	tx.Confirmations++
	if tx.Confirmations < tx.Required {
		snapshot := e.snapshotLocked()
		e.mu.Unlock()
		e.bus.Publish(event.EvMempoolUpdate, snapshot)
		e.persist(snapshot)
		return
	}

	// Threshold reached. Removing the entry in the same critical section
	// that decides to settle is the exactly-once guard. The sufficiency
	// check lives inside Settle, atomic with the transfer, so overlapping
	// transfers draining one balance surface here as an error instead of
	// both passing a pre-check.
	delete(e.pool, id)
	tx.Confirmations = tx.Required
	rec := domain.RecordOf(tx, time.Now().UnixMilli())

	err := e.ledger.Settle(tx.SenderID, tx.ReceiverID, tx.Currency, tx.Amount, rec)
	switch {
	case err == nil:
		tx.Status = domain.StatusConfirmed
		snapshot := e.snapshotLocked()
		e.mu.Unlock()
		e.sched.Cancel(id)
		e.bus.Publish(event.EvMempoolUpdate, snapshot)
		e.bus.Publish(event.EvTxConfirmed, rec)
		e.persist(snapshot)

		slog.Info("transaction confirmed",
			slog.String("id", id),
			slog.String("hash", rec.Hash),
			slog.String("amount", rec.Amount.String()),
			slog.String("currency", string(rec.Currency)))

	case errors.Is(err, domain.ErrInsufficientBalance):
		tx.Status = domain.StatusFailed
		snapshot := e.snapshotLocked()
		snapshot = append(snapshot, tx.Clone())
		e.mu.Unlock()
		e.sched.Cancel(id)
		e.bus.Publish(event.EvMempoolUpdate, snapshot)
		e.persist(snapshot)

		slog.Warn("settlement failed, balance drained by overlapping transfers",
			slog.String("id", id),
			slog.String("sender", tx.SenderUsername))

	default:
		e.mu.Unlock()
		e.sched.Cancel(id)
		slog.Error("settlement error", slog.String("id", id), slog.Any("error", err))
	}
}

// AdvanceConfirmation advances a transaction by one tick outside its timer.
// Exposed for harnesses; production advancement is timer-driven.
func (e *Engine) AdvanceConfirmation(id string) {
	e.advance(id)
}

// Mempool returns a snapshot of all pending transactions, oldest first.
func (e *Engine) Mempool() []*domain.PendingTransaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Pending returns the current state of one pool entry.
func (e *Engine) Pending(id string) (*domain.PendingTransaction, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tx, ok := e.pool[id]
	if !ok {
		return nil, false
	}
	return tx.Clone(), true
}

func (e *Engine) snapshotLocked() []*domain.PendingTransaction {
	out := make([]*domain.PendingTransaction, 0, len(e.pool))
	for _, tx := range e.pool {
		out = append(out, tx.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

// persist saves the pool snapshot, best-effort. Failed entries in the
// snapshot are terminal and filtered out; only Pending entries survive a
// restart.
func (e *Engine) persist(snapshot []*domain.PendingTransaction) {
	if e.store == nil {
		return
	}
	pending := make([]*domain.PendingTransaction, 0, len(snapshot))
	for _, tx := range snapshot {
		if tx.Status == domain.StatusPending {
			pending = append(pending, tx)
		}
	}
	raw, err := json.Marshal(pending)
	if err != nil {
		return
	}
	if err := e.store.UpsertMetadata(context.Background(), poolKey, string(raw), time.Now().UnixMilli()); err != nil {
		slog.Warn("mempool persist failed", slog.Any("error", err))
	}
}

// Restore reloads the persisted pool and re-arms its timers, so a restarted
// hub continues counting confirmations where the previous process stopped.
func (e *Engine) Restore(ctx context.Context) {
	if e.store == nil {
		return
	}
	raw, err := e.store.GetMetadata(ctx, poolKey)
	if err != nil || raw == "" {
		return
	}
	var txs []*domain.PendingTransaction
	if err := json.Unmarshal([]byte(raw), &txs); err != nil {
		slog.Warn("persisted mempool unreadable, starting empty", slog.Any("error", err))
		return
	}

	restored := 0
	e.mu.Lock()
	for _, tx := range txs {
		if tx.Status != domain.StatusPending || !tx.Currency.Valid() {
			continue
		}
		e.pool[tx.ID] = tx
		restored++
	}
	e.mu.Unlock()

	e.Resume()
	if restored > 0 {
		slog.Info("mempool restored", slog.Int("pending", restored))
	}
}

// Stop cancels all confirmation timers. Pending entries stay in the pool;
// a restarted authoritative process re-arms them via Resume or Restore.
func (e *Engine) Stop() {
	e.sched.Stop()
}

// Resume re-arms timers for every pending entry already in the pool.
func (e *Engine) Resume() {
	e.mu.Lock()
	ids := make([]string, 0, len(e.pool))
	intervals := make([]time.Duration, 0, len(e.pool))
	for id, tx := range e.pool {
		ids = append(ids, id)
		intervals = append(intervals, e.policies[tx.Currency].TickInterval)
	}
	e.mu.Unlock()

	for i, id := range ids {
		id := id
		e.sched.Every(id, intervals[i], func() { e.advance(id) })
	}
}

func newTxHash() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the platform is broken
		panic(err)
	}
	return hex.EncodeToString(b)
}
