package domain

import "time"

// TransactionStatus is the lifecycle state of a payment transaction.
type TransactionStatus string

const (
	// TransactionStatusPending means the gateway has not yet confirmed.
	TransactionStatusPending TransactionStatus = "pending"
	// TransactionStatusCompleted means the gateway confirmed the payment.
	TransactionStatusCompleted TransactionStatus = "completed"
	// TransactionStatusFailed means the gateway reported a definitive failure.
	TransactionStatusFailed TransactionStatus = "failed"
	// TransactionStatusVerificationFailed means the gateway could not be
	// reached or answered ambiguously. The payment itself may still have
	// happened; a later verification attempt can settle it.
	TransactionStatusVerificationFailed TransactionStatus = "verification_failed"
)

// Transaction is one payment awaiting or past gateway verification.
type Transaction struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Provider    string            `json:"provider"`
	ProviderRef string            `json:"provider_ref,omitempty"`
	Status      TransactionStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Succeeded reports whether the transaction ended in a confirmed payment.
func (t *Transaction) Succeeded() bool {
	return t.Status == TransactionStatusCompleted
}
