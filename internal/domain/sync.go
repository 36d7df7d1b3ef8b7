package domain

import "fmt"

// LifecycleEvent drives the ledger / payment record status mapping.
type LifecycleEvent string

const (
	EventBooked     LifecycleEvent = "booked"
	EventApproved   LifecycleEvent = "approved"
	EventCompleted  LifecycleEvent = "completed"
	EventCancelled  LifecycleEvent = "cancelled"
	EventMarkedPaid LifecycleEvent = "marked_paid"
)

type syncTarget struct {
	ledger  TransactionStatus
	payment PaymentStatus
}

var syncTargets = map[LifecycleEvent]syncTarget{
	EventBooked:     {TransactionStatusPending, PaymentStatusPending},
	EventApproved:   {TransactionStatusPending, PaymentStatusPending},
	EventCompleted:  {TransactionStatusCompleted, PaymentStatusSucceeded},
	EventCancelled:  {TransactionStatusCancelled, PaymentStatusCancelled},
	EventMarkedPaid: {TransactionStatusCompleted, PaymentStatusSucceeded},
}

// Statuses a row may be moved out of for each target. Sync only moves rows
// forward: a row already collected or refunded is never rewritten, and a row
// already at the target matches nothing, so re-applying an event is a no-op.
var ledgerSyncFrom = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending:   nil,
	TransactionStatusCompleted: {TransactionStatusPending, TransactionStatusFailed},
	TransactionStatusCancelled: {TransactionStatusPending, TransactionStatusFailed},
}

var paymentSyncFrom = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:   nil,
	PaymentStatusSucceeded: {PaymentStatusPending, PaymentStatusProcessing, PaymentStatusFailed},
	PaymentStatusCancelled: {PaymentStatusPending, PaymentStatusProcessing, PaymentStatusFailed},
}

func (e LifecycleEvent) LedgerTarget() (TransactionStatus, []TransactionStatus) {
	t := syncTargets[e].ledger
	return t, ledgerSyncFrom[t]
}

func (e LifecycleEvent) PaymentTarget() (PaymentStatus, []PaymentStatus) {
	t := syncTargets[e].payment
	return t, paymentSyncFrom[t]
}

func (e LifecycleEvent) IsValid() bool {
	_, ok := syncTargets[e]
	return ok
}

// EventForStatus maps a reservation status to the event whose mapping a
// reconciliation pass replays.
func EventForStatus(s ReservationStatus) (LifecycleEvent, error) {
	switch s {
	case ReservationStatusPending:
		return EventBooked, nil
	case ReservationStatusConfirmed:
		return EventApproved, nil
	case ReservationStatusCompleted:
		return EventCompleted, nil
	case ReservationStatusCancelled:
		return EventCancelled, nil
	}
	return "", fmt.Errorf("no lifecycle event for status %q", s)
}

// SideResult reports one side of a dual write. Updated counts the rows whose
// status changed; zero with a nil Err means the side was already converged.
type SideResult struct {
	Updated int64 `json:"updated"`
	Err     error `json:"-"`
}

func (r SideResult) OK() bool {
	return r.Err == nil
}

type SyncResult struct {
	ReservationID string         `json:"reservation_id"`
	Event         LifecycleEvent `json:"event"`
	Ledger        SideResult     `json:"ledger"`
	Payment       SideResult     `json:"payment"`
}

func (r *SyncResult) OK() bool {
	return r.Ledger.OK() && r.Payment.OK()
}

func (r *SyncResult) Failures() []*PropagationFailure {
	var failures []*PropagationFailure
	if r.Ledger.Err != nil {
		failures = append(failures, &PropagationFailure{Store: StoreLedger, ReservationID: r.ReservationID, Err: r.Ledger.Err})
	}
	if r.Payment.Err != nil {
		failures = append(failures, &PropagationFailure{Store: StorePayment, ReservationID: r.ReservationID, Err: r.Payment.Err})
	}
	return failures
}

// ReconcileReport describes what a reconciliation pass did for a reservation.
type ReconcileReport struct {
	ReservationID      string                `json:"reservation_id"`
	Status             ReservationStatus     `json:"status"`
	CreatedTransaction bool                  `json:"created_transaction"`
	CreatedPayment     bool                  `json:"created_payment"`
	Sync               *SyncResult           `json:"sync"`
	AvailabilityBefore Availability          `json:"availability_before"`
	AvailabilityAfter  Availability          `json:"availability_after"`
	Failures           []*PropagationFailure `json:"-"`
}
