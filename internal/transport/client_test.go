package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/HackbyRd258/ElectroWallet/internal/event"
)

// createMockHubServer upgrades connections and pushes the given envelopes.
func createMockHubServer(t *testing.T, envelopes []event.Envelope, inbound chan []byte) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()

		for _, env := range envelopes {
			data, _ := json.Marshal(env)
			conn.WriteMessage(websocket.TextMessage, data)
		}

		if inbound != nil {
			_, raw, err := conn.ReadMessage()
			if err == nil {
				inbound <- raw
			}
			return
		}
		time.Sleep(200 * time.Millisecond)
	}))
}

func TestClient_DeliversInboundEvents(t *testing.T) {
	raw, _ := json.Marshal(event.AlertPayload{Message: "hello", Timestamp: 1})
	server := createMockHubServer(t, []event.Envelope{
		{ID: "e1", Type: "GLOBAL_ALERT", Ts: 1, Payload: raw},
	}, nil)
	defer server.Close()

	bus := event.NewBus()
	defer bus.Close()

	got := make(chan event.AlertPayload, 1)
	bus.Subscribe(event.EvGlobalAlert, func(payload any) {
		data, ok := payload.(json.RawMessage)
		if !ok {
			return
		}
		var p event.AlertPayload
		if err := json.Unmarshal(data, &p); err == nil {
			got <- p
		}
	})

	client := NewClient(httpToWS(server.URL), bus)
	client.Start(context.Background())
	defer client.Stop()

	select {
	case p := <-got:
		if p.Message != "hello" {
			t.Errorf("Expected hello, got %s", p.Message)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Inbound envelope never delivered to the bus")
	}
}

func TestClient_Command(t *testing.T) {
	inbound := make(chan []byte, 1)
	server := createMockHubServer(t, nil, inbound)
	defer server.Close()

	bus := event.NewBus()
	defer bus.Close()

	client := NewClient(httpToWS(server.URL), bus)
	client.Start(context.Background())
	defer client.Stop()

	// Wait for the connection before writing
	deadline := time.Now().Add(3 * time.Second)
	for {
		payload, _ := json.Marshal(SubmitPayload{From: "alice", To: "bob", Amount: "1", Currency: "BTC"})
		if err := client.Command("SUBMIT_TX", json.RawMessage(payload)); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Client never connected")
		}
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case raw := <-inbound:
		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("Server received undecodable message: %v", err)
		}
		if msg.Type != "SUBMIT_TX" {
			t.Errorf("Expected SUBMIT_TX, got %s", msg.Type)
		}
		var sub SubmitPayload
		if err := json.Unmarshal(msg.Payload, &sub); err != nil {
			t.Fatalf("Submit payload not decodable: %v", err)
		}
		if sub.From != "alice" || sub.To != "bob" {
			t.Errorf("Payload mismatch: %+v", sub)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Server never received the command")
	}
}

func TestClient_SendImplementsTransport(t *testing.T) {
	var _ event.Transport = (*Client)(nil)
	var _ event.Transport = (*Hub)(nil)
}
