package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/HackbyRd258/ElectroWallet/internal/event"
	"github.com/HackbyRd258/ElectroWallet/internal/infra"
)

// Client maintains a WebSocket connection to a hub, delivering inbound
// envelopes to the local bus and forwarding local commands upstream. It
// reconnects with exponential backoff and survives read timeouts.
type Client struct {
	url string
	bus *event.Bus

	mu      sync.RWMutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	ReadTimeout time.Duration
}

// NewClient creates a hub client for the given ws:// URL. Inbound events are
// delivered on bus.
func NewClient(url string, bus *event.Bus) *Client {
	return &Client{
		url:         url,
		bus:         bus,
		ReadTimeout: 120 * time.Second,
	}
}

// Start initiates the connection loop.
func (c *Client) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.runLoop(ctx)
}

// Stop terminates the client.
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.close()
	c.wg.Wait()
}

func (c *Client) runLoop(ctx context.Context) {
	defer c.wg.Done()
	retry := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := c.connect(ctx); err != nil {
			slog.Warn("hub connection failed", slog.Any("error", err), slog.Int("retry", retry))
			delay := infra.CalculateBackoff(retry)
			retry++

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		retry = 0 // Reset on successful connect
		c.process()
	}
}

func (c *Client) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	slog.Info("hub connected", slog.String("url", c.url))
	return nil
}

func (c *Client) process() {
	for {
		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()
		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(c.ReadTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			slog.Warn("hub read error", slog.Any("error", err))
			c.close()
			return
		}

		var env event.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			slog.Warn("unreadable hub envelope", slog.Any("error", err))
			continue
		}
		c.bus.Deliver(env)
	}
}

// Send forwards an envelope to the hub (event.Transport).
func (c *Client) Send(env event.Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return c.write(raw)
}

// Command sends a client message (SUBMIT_TX, ADMIN_*) to the hub.
func (c *Client) Command(msgType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(ClientMessage{Type: msgType, Payload: raw})
	if err != nil {
		return err
	}
	return c.write(msg)
}

func (c *Client) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("hub not connected")
	}

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}
