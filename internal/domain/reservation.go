package domain

import (
	"fmt"
	"time"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusCompleted ReservationStatus = "completed"
)

// Action is a requested lifecycle transition.
type Action string

const (
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

var reservationTransitions = map[ReservationStatus]map[Action]ReservationStatus{
	ReservationStatusPending: {
		ActionApprove: ReservationStatusConfirmed,
		ActionReject:  ReservationStatusCancelled,
		ActionCancel:  ReservationStatusCancelled,
	},
	ReservationStatusConfirmed: {
		ActionComplete: ReservationStatusCompleted,
		ActionCancel:   ReservationStatusCancelled,
	},
	ReservationStatusCancelled: {},
	ReservationStatusCompleted: {},
}

func (s ReservationStatus) IsValid() bool {
	_, ok := reservationTransitions[s]
	return ok
}

// Next returns the status reached by applying action, or false when the
// action is not allowed from s.
func (s ReservationStatus) Next(action Action) (ReservationStatus, bool) {
	next, ok := reservationTransitions[s][action]
	return next, ok
}

func (s ReservationStatus) IsTerminal() bool {
	return len(reservationTransitions[s]) == 0
}

// HoldsUnit reports whether a reservation in this status owns its unit's
// availability lock.
func (s ReservationStatus) HoldsUnit() bool {
	return s == ReservationStatusConfirmed
}

func ParseReservationStatus(s string) (ReservationStatus, error) {
	status := ReservationStatus(s)
	if !status.IsValid() {
		return "", NewValidationError("status", fmt.Sprintf("unknown reservation status %q", s))
	}
	return status, nil
}

type Reservation struct {
	ID         string `json:"id"`
	RenterID   string `json:"renter_id"`
	UnitID     string `json:"unit_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	PickupTime string `json:"pickup_time,omitempty"`
	ReturnTime string `json:"return_time,omitempty"`
	// Price snapshot taken from the unit at booking time.
	DailyRateCents  int64             `json:"daily_rate_cents"`
	RentalDays      int32             `json:"rental_days"`
	SubtotalCents   int64             `json:"subtotal_cents"`
	DepositCents    int64             `json:"deposit_cents"`
	TotalPriceCents int64             `json:"total_price_cents"`
	Status          ReservationStatus `json:"status"`
	AdminNotes      string            `json:"admin_notes"`
	CancelReason    string            `json:"cancel_reason"`
	// Customer snapshot at time of booking.
	CustomerName     string    `json:"customer_name,omitempty"`
	CustomerEmail    string    `json:"customer_email,omitempty"`
	CustomerPhone    string    `json:"customer_phone,omitempty"`
	PaymentMethod    string    `json:"payment_method,omitempty"`
	PaymentReference string    `json:"payment_reference,omitempty"`
	PaymentProofURL  string    `json:"payment_proof_url,omitempty"`
	CreatedOn        time.Time `json:"created_on"`
	UpdatedOn        time.Time `json:"updated_on"`
}

type ActorRole string

const (
	ActorAdmin  ActorRole = "admin"
	ActorRenter ActorRole = "renter"
)

// Actor identifies who requested a transition.
type Actor struct {
	ID   string
	Role ActorRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == ActorAdmin
}

type ReservationFilter struct {
	RenterID string
	UnitID   string
	Status   ReservationStatus
	Page     int32
	PageSize int32
}

// TransitionResult is returned by every lifecycle operation. The reservation
// reflects the authoritative write; Failures lists dependent stores that did
// not converge and are left for reconciliation.
type TransitionResult struct {
	Reservation *Reservation          `json:"reservation"`
	Previous    ReservationStatus     `json:"previous_status,omitempty"`
	Failures    []*PropagationFailure `json:"-"`
}

func (r *TransitionResult) Consistent() bool {
	return len(r.Failures) == 0
}
