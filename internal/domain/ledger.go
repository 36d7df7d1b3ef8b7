package domain

import "time"

type TransactionType string

const (
	TransactionTypePayment TransactionType = "payment"
	TransactionTypeDeposit TransactionType = "deposit"
	TransactionTypeRefund  TransactionType = "refund"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Transaction is a coarse ledger entry tied to a reservation.
type Transaction struct {
	ID            string            `json:"id"`
	RenterID      string            `json:"renter_id"`
	ReservationID *string           `json:"reservation_id,omitempty"`
	Type          TransactionType   `json:"type"`
	AmountCents   int64             `json:"amount_cents"`
	Status        TransactionStatus `json:"status"`
	Description   string            `json:"description"`
	Date          time.Time         `json:"date"`
	CreatedOn     time.Time         `json:"created_on"`
	UpdatedOn     time.Time         `json:"updated_on"`
}

type LedgerSummary struct {
	CollectedCents int64            `json:"collected_cents"`
	PendingCents   int64            `json:"pending_cents"`
	RefundedCents  int64            `json:"refunded_cents"`
	StatusCount    map[string]int32 `json:"status_count"`
}
