// Package transport carries events across execution contexts: a WebSocket
// hub on the authoritative side and a reconnecting client worker on the
// consumer side. Delivery is best-effort at-least-once; the ledger, not the
// event stream, stays authoritative.
package transport

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/HackbyRd258/ElectroWallet/internal/admin"
	"github.com/HackbyRd258/ElectroWallet/internal/domain"
	"github.com/HackbyRd258/ElectroWallet/internal/engine"
	"github.com/HackbyRd258/ElectroWallet/internal/event"
	"github.com/HackbyRd258/ElectroWallet/internal/infra"
	"github.com/HackbyRd258/ElectroWallet/internal/ledger"
	"github.com/HackbyRd258/ElectroWallet/internal/market"
)

// ClientMessage is the inbound wire format from connected clients.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SubmitPayload is the SUBMIT_TX message body.
type SubmitPayload struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// AirdropRequest is the ADMIN_AIRDROP message body.
type AirdropRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type hubConn struct {
	conn     *websocket.Conn
	writeMu  sync.Mutex
	username string
	limiter  *infra.RateLimiter
}

func (hc *hubConn) send(env event.Envelope) error {
	hc.writeMu.Lock()
	defer hc.writeMu.Unlock()
	hc.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return hc.conn.WriteJSON(env)
}

// Hub accepts WebSocket clients, forwards their commands into the engine and
// console, and fans bus events out to every connection. It implements
// event.Transport.
type Hub struct {
	engine  *engine.Engine
	console *admin.Console
	feed    *market.Feed
	ledger  *ledger.Ledger

	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[*hubConn]struct{}
}

// NewHub creates a hub over the given collaborators.
func NewHub(eng *engine.Engine, console *admin.Console, feed *market.Feed, l *ledger.Ledger) *Hub {
	return &Hub{
		engine:  eng,
		console: console,
		feed:    feed,
		ledger:  l,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      func(r *http.Request) bool { return true }, // demo hub, all origins
		},
		conns: make(map[*hubConn]struct{}),
	}
}

// Send broadcasts an envelope to every connected client (event.Transport).
func (h *Hub) Send(env event.Envelope) error {
	h.mu.RLock()
	conns := make([]*hubConn, 0, len(h.conns))
	for hc := range h.conns {
		conns = append(conns, hc)
	}
	h.mu.RUnlock()

	for _, hc := range conns {
		if err := hc.send(env); err != nil {
			slog.Warn("hub broadcast failed, dropping connection",
				slog.String("user", hc.username), slog.Any("error", err))
			h.drop(hc)
		}
	}
	return nil
}

// ServeWS upgrades an HTTP request into a hub connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", slog.Any("error", err))
		return
	}

	username := r.URL.Query().Get("username")
	if username == "" {
		username = fmt.Sprintf("user_%d", time.Now().UnixNano()%100000)
	}

	hc := &hubConn{conn: conn, username: username, limiter: infra.NewSubmitLimiter()}
	h.mu.Lock()
	h.conns[hc] = struct{}{}
	online := len(h.conns)
	h.mu.Unlock()

	slog.Info("client connected", slog.String("user", username), slog.Int("online", online))

	// Last market snapshot straight to the newcomer, online count to all.
	h.sendSnapshot(hc)
	h.broadcastOnline()

	go h.readLoop(hc)
}

// Online returns the number of connected clients.
func (h *Hub) Online() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) sendSnapshot(hc *hubConn) {
	snap := h.feed.Snapshot()
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	hc.send(event.Envelope{
		ID:      fmt.Sprintf("%d-snap", time.Now().UnixNano()),
		Type:    event.EvLastSnapshot.String(),
		Ts:      time.Now().UnixMilli(),
		Payload: raw,
	})
}

func (h *Hub) broadcastOnline() {
	raw, _ := json.Marshal(h.Online())
	h.Send(event.Envelope{
		ID:      fmt.Sprintf("%d-online", time.Now().UnixNano()),
		Type:    event.EvOnlineCount.String(),
		Ts:      time.Now().UnixMilli(),
		Payload: raw,
	})
}

func (h *Hub) drop(hc *hubConn) {
	h.mu.Lock()
	_, present := h.conns[hc]
	delete(h.conns, hc)
	h.mu.Unlock()

	if present {
		hc.conn.Close()
		h.broadcastOnline()
	}
}

func (h *Hub) readLoop(hc *hubConn) {
	defer h.drop(hc)

	for {
		hc.conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		_, raw, err := hc.conn.ReadMessage()
		if err != nil {
			slog.Info("client disconnected", slog.String("user", hc.username))
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			slog.Warn("unreadable client message", slog.String("user", hc.username))
			continue
		}
		h.handle(hc, msg)
	}
}

func (h *Hub) handle(hc *hubConn, msg ClientMessage) {
	switch msg.Type {
	case "SUBMIT_TX":
		h.handleSubmit(hc, msg.Payload)

	case "ADMIN_FREEZE":
		if !h.isAdmin(hc) {
			return
		}
		var frozen bool
		if err := json.Unmarshal(msg.Payload, &frozen); err != nil {
			return
		}
		h.console.FreezeMarket(frozen)

	case "ADMIN_AIRDROP":
		if !h.isAdmin(hc) {
			return
		}
		var req AirdropRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return
		}
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			return
		}
		if _, err := h.console.Airdrop(domain.Currency(req.Currency), amount); err != nil {
			slog.Warn("airdrop rejected", slog.Any("error", err))
		}

	case "ADMIN_ALERT":
		if !h.isAdmin(hc) {
			return
		}
		var message string
		if err := json.Unmarshal(msg.Payload, &message); err != nil {
			return
		}
		h.console.GlobalAlert(message)

	default:
		slog.Warn("unknown client message type", slog.String("type", msg.Type))
	}
}

func (h *Hub) handleSubmit(hc *hubConn, payload json.RawMessage) {
	if !hc.limiter.TryAcquire() {
		h.reject(hc, "rate limited, slow down")
		return
	}

	var req SubmitPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.reject(hc, "unreadable submit payload")
		return
	}

	sender, ok := h.ledger.FindByUsername(req.From)
	if !ok {
		h.reject(hc, domain.ErrAccountNotFound.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.reject(hc, domain.ErrInvalidAmount.Error())
		return
	}

	if _, err := h.engine.Submit(sender.ID, req.To, amount, domain.Currency(req.Currency)); err != nil {
		h.reject(hc, err.Error())
	}
}

// reject reports a submission failure to the one caller that produced it.
func (h *Hub) reject(hc *hubConn, reason string) {
	raw, _ := json.Marshal(map[string]string{"reason": reason})
	hc.send(event.Envelope{
		ID:      fmt.Sprintf("%d-rej", time.Now().UnixNano()),
		Type:    event.EvSubmitRejected.String(),
		Ts:      time.Now().UnixMilli(),
		Payload: raw,
	})
}

func (h *Hub) isAdmin(hc *hubConn) bool {
	a, ok := h.ledger.FindByUsername(hc.username)
	return ok && a.IsAdmin
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	for hc := range h.conns {
		hc.conn.Close()
	}
	h.conns = make(map[*hubConn]struct{})
	h.mu.Unlock()
}
