package event

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// Envelope is the cross-context wire format. The ID carries a timestamp plus
// a random suffix so that identical consecutive payloads are never coalesced
// by change-detection on the receiving side.
type Envelope struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Ts      int64           `json:"ts"`
	Payload json.RawMessage `json:"payload"`
}

// Handler consumes a locally delivered event payload.
type Handler func(payload any)

// Transport forwards envelopes to another execution context (tab, socket
// peer). Delivery is best-effort and at-least-once; consumers must stay
// idempotent or read authoritative ledger state instead of trusting the
// payload.
type Transport interface {
	Send(env Envelope) error
}

// Bus delivers typed notifications to local subscribers synchronously and to
// attached transports asynchronously.
type Bus struct {
	mu         sync.RWMutex
	handlers   map[Type][]Handler
	transports []Transport
	outbox     chan Envelope
	done       chan struct{}
	closeOnce  sync.Once
}

// NewBus creates an event bus. The transport outbox is buffered; a slow or
// dead transport never blocks a publisher.
func NewBus() *Bus {
	b := &Bus{
		handlers: make(map[Type][]Handler),
		outbox:   make(chan Envelope, 256),
		done:     make(chan struct{}),
	}
	go b.fanOut()
	return b
}

// Subscribe registers a handler. Multiple handlers per type are invoked in
// registration order.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

// AttachTransport adds a cross-context transport to the fan-out set.
func (b *Bus) AttachTransport(tr Transport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transports = append(b.transports, tr)
}

// Publish delivers the payload synchronously to same-context subscribers and
// queues it for cross-context transports.
func (b *Bus) Publish(t Type, payload any) {
	b.dispatch(t, payload)

	raw, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("event payload not serializable, local delivery only",
			slog.String("type", t.String()), slog.Any("error", err))
		return
	}

	now := time.Now()
	env := Envelope{
		ID:      fmt.Sprintf("%d-%06d", now.UnixNano(), rand.Intn(1_000_000)),
		Type:    t.String(),
		Ts:      now.UnixMilli(),
		Payload: raw,
	}

	select {
	case b.outbox <- env:
	default:
		// Transports are a notification channel, not the source of truth.
		slog.Warn("event outbox full, dropping envelope", slog.String("type", env.Type))
	}
}

// Deliver dispatches an inbound envelope from a transport to local
// subscribers. It never re-forwards, so two attached contexts cannot loop.
func (b *Bus) Deliver(env Envelope) {
	t := TypeFromWire(env.Type)
	if t == 0 {
		slog.Warn("unknown inbound event type", slog.String("type", env.Type))
		return
	}
	b.dispatch(t, env.Payload)
}

func (b *Bus) dispatch(t Type, payload any) {
	b.mu.RLock()
	hs := b.handlers[t]
	b.mu.RUnlock()

	for _, h := range hs {
		h(payload)
	}
}

func (b *Bus) fanOut() {
	for {
		select {
		case <-b.done:
			return
		case env := <-b.outbox:
			b.mu.RLock()
			trs := b.transports
			b.mu.RUnlock()
			for _, tr := range trs {
				if err := tr.Send(env); err != nil {
					slog.Warn("transport send failed",
						slog.String("type", env.Type), slog.Any("error", err))
				}
			}
		}
	}
}

// Close stops the fan-out goroutine.
func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}
