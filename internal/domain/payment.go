package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusProcessing        PaymentStatus = "processing"
	PaymentStatusSucceeded         PaymentStatus = "succeeded"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusCancelled         PaymentStatus = "cancelled"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

type PaymentMethod string

const PaymentMethodCash PaymentMethod = "cash"

// PaymentBreakdown is stored in the payment record's metadata column.
type PaymentBreakdown struct {
	UnitID         string `json:"unit_id"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	RentalDays     int32  `json:"rental_days"`
	DailyRateCents int64  `json:"daily_rate_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
	DepositCents   int64  `json:"deposit_cents"`
	CustomerName   string `json:"customer_name,omitempty"`
	CustomerEmail  string `json:"customer_email,omitempty"`
}

type PaymentRecord struct {
	ID                string           `json:"id"`
	ReservationID     string           `json:"reservation_id"`
	RenterID          string           `json:"renter_id"`
	AmountCents       int64            `json:"amount_cents"`
	Currency          string           `json:"currency"`
	Status            PaymentStatus    `json:"status"`
	PaymentMethod     PaymentMethod    `json:"payment_method"`
	RefundAmountCents int64            `json:"refund_amount_cents"`
	RefundReason      string           `json:"refund_reason"`
	Metadata          PaymentBreakdown `json:"metadata"`
	CreatedOn         time.Time        `json:"created_on"`
	UpdatedOn         time.Time        `json:"updated_on"`
}
