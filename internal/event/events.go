package event

// Type defines the type of event.
type Type uint16

const (
	EvMempoolUpdate Type = iota + 1
	EvTxConfirmed
	EvMarketUpdate
	EvMarketFrozen
	EvAirdrop
	EvGlobalAlert
	EvNewsUpdate
	EvOnlineCount
	EvLastSnapshot
	EvSubmitRejected
)

// Wire names match the original hub protocol so heterogeneous clients can
// interoperate.
var wireNames = map[Type]string{
	EvMempoolUpdate:  "MEMPOOL_UPDATE",
	EvTxConfirmed:    "TX_CONFIRMED",
	EvMarketUpdate:   "MARKET_UPDATE",
	EvMarketFrozen:   "MARKET_FROZEN",
	EvAirdrop:        "AIRDROP",
	EvGlobalAlert:    "GLOBAL_ALERT",
	EvNewsUpdate:     "NEWS_UPDATE",
	EvOnlineCount:    "ONLINE_COUNT",
	EvLastSnapshot:   "LAST_SNAPSHOT",
	EvSubmitRejected: "SUBMIT_REJECTED",
}

var wireTypes = func() map[string]Type {
	m := make(map[string]Type, len(wireNames))
	for t, n := range wireNames {
		m[n] = t
	}
	return m
}()

// String returns the wire name of the event type.
func (t Type) String() string {
	if n, ok := wireNames[t]; ok {
		return n
	}
	return "UNKNOWN"
}

// TypeFromWire resolves a wire name back to its Type. Returns 0 if unknown.
func TypeFromWire(name string) Type {
	return wireTypes[name]
}

// AlertPayload is the GLOBAL_ALERT event body.
type AlertPayload struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// AirdropPayload is the AIRDROP event body.
type AirdropPayload struct {
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Timestamp int64  `json:"timestamp"`
}

// NewsPayload is the NEWS_UPDATE event body.
type NewsPayload struct {
	Headlines []string `json:"headlines"`
	Timestamp int64    `json:"timestamp"`
}
