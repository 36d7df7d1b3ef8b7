package service

import (
	"context"
	"time"

	"motorent-backend/internal/domain"
)

// AvailabilityService owns the unit availability flag.
type AvailabilityService interface {
	// Lock reserves the unit for reservationID. Re-locking by the holder is
	// a no-op; any other state fails with domain.ErrUnitUnavailable.
	Lock(ctx context.Context, unitID, reservationID string) error
	Release(ctx context.Context, unitID string) error
	// ReleaseHold releases the unit only if reservationID holds it.
	ReleaseHold(ctx context.Context, unitID, reservationID string) error
	SetMaintenance(ctx context.Context, unitID string) error
	ClearMaintenance(ctx context.Context, unitID string) error
	// Converge sets the flag to Reserved if a confirmed reservation holds the
	// unit and Available otherwise. Units in maintenance are left alone, and
	// so is a fresh hold by a reservation that is still pending approval.
	// The write only lands if the unit is unchanged since it was read.
	Converge(ctx context.Context, unitID string) (before, after domain.Availability, err error)
	GetUnit(ctx context.Context, unitID string) (*domain.Unit, error)
	ListUnits(ctx context.Context, availability domain.Availability) ([]domain.Unit, error)
}

type BookingRequest struct {
	UnitID           string
	RenterID         string
	StartDate        string
	EndDate          string
	PickupTime       string
	ReturnTime       string
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    string
	PaymentMethod    string
	PaymentReference string
	PaymentProofURL  string
	Notes            string
}

type ReservationService interface {
	Book(ctx context.Context, req BookingRequest) (*domain.Reservation, error)
	Approve(ctx context.Context, reservationID, adminID string) (*domain.TransitionResult, error)
	Reject(ctx context.Context, reservationID, adminID, reason string) (*domain.TransitionResult, error)
	Complete(ctx context.Context, reservationID, adminID string) (*domain.TransitionResult, error)
	Cancel(ctx context.Context, reservationID string, actor domain.Actor, reason string) (*domain.TransitionResult, error)
	GetReservation(ctx context.Context, actor domain.Actor, reservationID string) (*domain.Reservation, error)
	ListReservations(ctx context.Context, actor domain.Actor, filter domain.ReservationFilter) ([]domain.Reservation, int32, error)
	UpdateNotes(ctx context.Context, reservationID, notes string) error
	// RemindReturns notifies renters of confirmed reservations due back on
	// or before today and returns how many reminders were stored.
	RemindReturns(ctx context.Context, today time.Time) (int, error)
}

type PaymentService interface {
	// EnsureRecords creates the payment ledger entry and payment record of a
	// reservation when they are missing.
	EnsureRecords(ctx context.Context, r *domain.Reservation) (createdTransaction, createdPayment bool, err error)
	SyncStatus(ctx context.Context, reservationID string, event domain.LifecycleEvent) (*domain.SyncResult, error)
	MarkPaid(ctx context.Context, reservationID string) (*domain.SyncResult, error)
	Refund(ctx context.Context, paymentID string, amountCents int64, reason string) (*domain.PaymentRecord, error)
	ListTransactions(ctx context.Context, reservationID string) ([]domain.Transaction, error)
	ListPayments(ctx context.Context, reservationID string) ([]domain.PaymentRecord, error)
	LedgerSummary(ctx context.Context, since time.Time) (*domain.LedgerSummary, error)
}

type NotificationService interface {
	// Notify persists n and pushes it to live transports. recipient is used
	// for email and may be nil. Only the durable write can fail the call.
	Notify(ctx context.Context, n *domain.Notification, recipient *domain.Recipient) error
	GetNotifications(ctx context.Context, recipientID string, page, pageSize int32) ([]domain.Notification, int32, error)
	UnreadCount(ctx context.Context, recipientID string) (int32, error)
	MarkAsRead(ctx context.Context, recipientID, notificationID string) error
	MarkAllAsRead(ctx context.Context, recipientID string) (int64, error)
	DeleteAll(ctx context.Context, recipientID string) (int64, error)
}

type ReconcileService interface {
	ReconcileReservation(ctx context.Context, reservationID string) (*domain.ReconcileReport, error)
	ReconcileRecent(ctx context.Context, since time.Time) ([]*domain.ReconcileReport, error)
}

type EmailService interface {
	SendReservationUpdate(ctx context.Context, to domain.Recipient, subject, body string) error
}

// LicenseVerifier reports whether a renter has a driver's license on file.
type LicenseVerifier interface {
	HasLicense(ctx context.Context, renterID string) (bool, error)
}

// LifecycleOptions tunes the reservation engine.
type LifecycleOptions struct {
	DepositBasisPoints int64
	Currency           string
	StoreTimeout       time.Duration
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

func (o LifecycleOptions) withDefaults() LifecycleOptions {
	if o.DepositBasisPoints == 0 {
		o.DepositBasisPoints = 2000
	}
	if o.Currency == "" {
		o.Currency = "PHP"
	}
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = 5 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// withStoreTimeout bounds a single call to a backing store.
func withStoreTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
