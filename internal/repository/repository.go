package repository

import (
	"context"
	"time"

	"motorent-backend/internal/domain"
)

type UnitRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Unit, error)
	List(ctx context.Context, availability domain.Availability) ([]domain.Unit, error)

	// TryReserve moves the unit to Reserved for reservationID if it is
	// Available or already held by reservationID. It reports false when the
	// unit is held by another reservation or in maintenance.
	TryReserve(ctx context.Context, unitID, reservationID string) (bool, error)
	// ReleaseReserved moves a Reserved unit back to Available and clears the
	// holder. A non-empty holder restricts the release to that reservation.
	// Units in any other state are left untouched.
	ReleaseReserved(ctx context.Context, unitID, holder string) (bool, error)
	SetAvailability(ctx context.Context, unitID string, availability domain.Availability, reservedBy *string) error
	// SwapAvailability writes to/toHolder only if the unit is still at
	// from/fromHolder. It reports false when the unit changed in between.
	SwapAvailability(ctx context.Context, unitID string, from domain.Availability, fromHolder *string, to domain.Availability, toHolder *string) (bool, error)
}

type RenterRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Renter, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	// UpdateStatus writes r.Status and r.CancelReason only if the stored
	// status is still from.
	UpdateStatus(ctx context.Context, r *domain.Reservation, from domain.ReservationStatus) (bool, error)
	UpdateNotes(ctx context.Context, id, notes string) error
	List(ctx context.Context, filter domain.ReservationFilter) ([]domain.Reservation, int32, error)
	GetConfirmedByUnit(ctx context.Context, unitID string) (*domain.Reservation, error)
	ListUpdatedSince(ctx context.Context, since time.Time) ([]domain.Reservation, error)
	ListConfirmedEndingBy(ctx context.Context, date string) ([]domain.Reservation, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	ListByReservation(ctx context.Context, reservationID string) ([]domain.Transaction, error)
	// UpdatePaymentStatus moves the reservation's payment-type entries whose
	// status is in from to the target status. An empty from matches nothing.
	UpdatePaymentStatus(ctx context.Context, reservationID string, to domain.TransactionStatus, from []domain.TransactionStatus) (int64, error)
	Summary(ctx context.Context, since time.Time) (*domain.LedgerSummary, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.PaymentRecord) error
	GetByID(ctx context.Context, id string) (*domain.PaymentRecord, error)
	ListByReservation(ctx context.Context, reservationID string) ([]domain.PaymentRecord, error)
	// UpdateCashStatus moves the reservation's cash payment records whose
	// status is in from to the target status. An empty from matches nothing.
	UpdateCashStatus(ctx context.Context, reservationID string, to domain.PaymentStatus, from []domain.PaymentStatus) (int64, error)
	// ApplyRefund records a refund on a succeeded payment record. It reports
	// false when the record is no longer succeeded.
	ApplyRefund(ctx context.Context, id string, status domain.PaymentStatus, amountCents int64, reason string) (bool, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, recipientID string, limit, offset int32) ([]domain.Notification, int32, error)
	CountUnread(ctx context.Context, recipientID string) (int32, error)
	MarkAsRead(ctx context.Context, id, recipientID string) error
	MarkAllAsRead(ctx context.Context, recipientID string) (int64, error)
	DeleteAll(ctx context.Context, recipientID string) (int64, error)
}
