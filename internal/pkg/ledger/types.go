package ledger

import "context"

// BusinessData mirrors the exam record tuple returned by the ledger contract's
// getBusinessData entry point. Field order follows the contract ABI.
type BusinessData struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Creator        string `json:"creator"`
	Timestamp      int64  `json:"timestamp"`
	PublicValue1   uint64 `json:"publicValue1"`
	PublicValue2   uint64 `json:"publicValue2"`
	IsVerified     bool   `json:"isVerified"`
	DecryptedValue uint64 `json:"decryptedValue"`
}

// Tx is a pending-transaction handle returned by signer-bound calls.
// The operation is not durable until Wait returns nil.
type Tx interface {
	// Hash returns the transaction hash.
	Hash() string
	// Wait blocks until the transaction is included or fails.
	Wait(ctx context.Context) error
}

// Receipt is the settlement state of a submitted transaction.
type Receipt struct {
	Status       string `json:"status"`
	RevertReason string `json:"revertReason,omitempty"`
}

// Receipt status values reported by the gateway node.
const (
	ReceiptPending  = "pending"
	ReceiptSuccess  = "success"
	ReceiptReverted = "reverted"
)
