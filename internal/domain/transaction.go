package domain

import (
	"github.com/shopspring/decimal"
)

// TxStatus is the lifecycle state of a transfer.
type TxStatus string

const (
	StatusPending   TxStatus = "Pending"
	StatusConfirmed TxStatus = "Confirmed"
	StatusFailed    TxStatus = "Failed"
)

// PendingTransaction is a mempool entry: a submitted transfer that has not
// yet reached its confirmation threshold. Confirmations only ever increase
// and never exceed Required while the status is Pending.
type PendingTransaction struct {
	ID               string          `json:"id"`
	Hash             string          `json:"hash"`
	SenderID         string          `json:"sender_id"`
	SenderUsername   string          `json:"sender"`
	ReceiverID       string          `json:"receiver_id"`
	ReceiverUsername string          `json:"receiver"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         Currency        `json:"currency"`
	Timestamp        int64           `json:"timestamp"`
	Status           TxStatus        `json:"status"`
	Confirmations    int             `json:"confirmations"`
	Required         int             `json:"required_confirmations"`
}

// Clone returns a copy safe to publish on the event bus.
func (t *PendingTransaction) Clone() *PendingTransaction {
	cp := *t
	return &cp
}

// LedgerRecord is the immutable history entry produced by settlement.
// Its ID matches the PendingTransaction that produced it.
type LedgerRecord struct {
	ID               string          `json:"id"`
	Hash             string          `json:"hash"`
	SenderUsername   string          `json:"sender"`
	ReceiverUsername string          `json:"receiver"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         Currency        `json:"currency"`
	Timestamp        int64           `json:"timestamp"`
	Status           TxStatus        `json:"status"`
}

// RecordOf builds the ledger record for a transaction settled at ts.
func RecordOf(t *PendingTransaction, ts int64) LedgerRecord {
	return LedgerRecord{
		ID:               t.ID,
		Hash:             t.Hash,
		SenderUsername:   t.SenderUsername,
		ReceiverUsername: t.ReceiverUsername,
		Amount:           t.Amount,
		Currency:         t.Currency,
		Timestamp:        ts,
		Status:           StatusConfirmed,
	}
}
