package service

import (
	"context"
	"sync"
	"time"

	"motorent-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockUnitRepo
type MockUnitRepo struct {
	mock.Mock
}

func (m *MockUnitRepo) GetByID(ctx context.Context, id string) (*domain.Unit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Unit), args.Error(1)
}
func (m *MockUnitRepo) List(ctx context.Context, availability domain.Availability) ([]domain.Unit, error) {
	args := m.Called(ctx, availability)
	return args.Get(0).([]domain.Unit), args.Error(1)
}
func (m *MockUnitRepo) TryReserve(ctx context.Context, unitID, reservationID string) (bool, error) {
	args := m.Called(ctx, unitID, reservationID)
	return args.Bool(0), args.Error(1)
}
func (m *MockUnitRepo) ReleaseReserved(ctx context.Context, unitID, holder string) (bool, error) {
	args := m.Called(ctx, unitID, holder)
	return args.Bool(0), args.Error(1)
}
func (m *MockUnitRepo) SetAvailability(ctx context.Context, unitID string, availability domain.Availability, reservedBy *string) error {
	args := m.Called(ctx, unitID, availability, reservedBy)
	return args.Error(0)
}

func (m *MockUnitRepo) SwapAvailability(ctx context.Context, unitID string, from domain.Availability, fromHolder *string, to domain.Availability, toHolder *string) (bool, error) {
	args := m.Called(ctx, unitID, from, fromHolder, to, toHolder)
	return args.Bool(0), args.Error(1)
}

// MockRenterRepo
type MockRenterRepo struct {
	mock.Mock
}

func (m *MockRenterRepo) GetByID(ctx context.Context, id string) (*domain.Renter, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Renter), args.Error(1)
}

// MockReservationRepo
type MockReservationRepo struct {
	mock.Mock
}

func (m *MockReservationRepo) Create(ctx context.Context, r *domain.Reservation) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockReservationRepo) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Hand out a copy so the service cannot mutate the fixture.
	r := *args.Get(0).(*domain.Reservation)
	return &r, args.Error(1)
}
func (m *MockReservationRepo) UpdateStatus(ctx context.Context, r *domain.Reservation, from domain.ReservationStatus) (bool, error) {
	args := m.Called(ctx, r, from)
	return args.Bool(0), args.Error(1)
}
func (m *MockReservationRepo) UpdateNotes(ctx context.Context, id, notes string) error {
	args := m.Called(ctx, id, notes)
	return args.Error(0)
}
func (m *MockReservationRepo) List(ctx context.Context, filter domain.ReservationFilter) ([]domain.Reservation, int32, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Reservation), args.Get(1).(int32), args.Error(2)
}
func (m *MockReservationRepo) GetConfirmedByUnit(ctx context.Context, unitID string) (*domain.Reservation, error) {
	args := m.Called(ctx, unitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) ListUpdatedSince(ctx context.Context, since time.Time) ([]domain.Reservation, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) ListConfirmedEndingBy(ctx context.Context, date string) ([]domain.Reservation, error) {
	args := m.Called(ctx, date)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

// MockTransactionRepo
type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}
func (m *MockTransactionRepo) ListByReservation(ctx context.Context, reservationID string) ([]domain.Transaction, error) {
	args := m.Called(ctx, reservationID)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}
func (m *MockTransactionRepo) UpdatePaymentStatus(ctx context.Context, reservationID string, to domain.TransactionStatus, from []domain.TransactionStatus) (int64, error) {
	args := m.Called(ctx, reservationID, to, from)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockTransactionRepo) Summary(ctx context.Context, since time.Time) (*domain.LedgerSummary, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerSummary), args.Error(1)
}

// MockPaymentRepo
type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) Create(ctx context.Context, p *domain.PaymentRecord) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockPaymentRepo) GetByID(ctx context.Context, id string) (*domain.PaymentRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	p := *args.Get(0).(*domain.PaymentRecord)
	return &p, args.Error(1)
}
func (m *MockPaymentRepo) ListByReservation(ctx context.Context, reservationID string) ([]domain.PaymentRecord, error) {
	args := m.Called(ctx, reservationID)
	return args.Get(0).([]domain.PaymentRecord), args.Error(1)
}
func (m *MockPaymentRepo) UpdateCashStatus(ctx context.Context, reservationID string, to domain.PaymentStatus, from []domain.PaymentStatus) (int64, error) {
	args := m.Called(ctx, reservationID, to, from)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockPaymentRepo) ApplyRefund(ctx context.Context, id string, status domain.PaymentStatus, amountCents int64, reason string) (bool, error) {
	args := m.Called(ctx, id, status, amountCents, reason)
	return args.Bool(0), args.Error(1)
}

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
func (m *MockNotificationRepo) List(ctx context.Context, recipientID string, limit, offset int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, recipientID, limit, offset)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}
func (m *MockNotificationRepo) CountUnread(ctx context.Context, recipientID string) (int32, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int32), args.Error(1)
}
func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id, recipientID string) error {
	args := m.Called(ctx, id, recipientID)
	return args.Error(0)
}
func (m *MockNotificationRepo) MarkAllAsRead(ctx context.Context, recipientID string) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockNotificationRepo) DeleteAll(ctx context.Context, recipientID string) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

// MockPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Name() string { return "mock" }
func (m *MockPublisher) Publish(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendReservationUpdate(ctx context.Context, to domain.Recipient, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

// memUnitRepo is an in-memory unit store with the same conditional-write
// semantics as the postgres implementation.
type memUnitRepo struct {
	mu    sync.Mutex
	units map[string]*domain.Unit
}

func newMemUnitRepo(units ...domain.Unit) *memUnitRepo {
	repo := &memUnitRepo{units: make(map[string]*domain.Unit)}
	for i := range units {
		u := units[i]
		repo.units[u.ID] = &u
	}
	return repo
}

func (r *memUnitRepo) GetByID(ctx context.Context, id string) (*domain.Unit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUnitRepo) List(ctx context.Context, availability domain.Availability) ([]domain.Unit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Unit
	for _, u := range r.units {
		if availability == "" || u.Availability == availability {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *memUnitRepo) TryReserve(ctx context.Context, unitID, reservationID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[unitID]
	if !ok {
		return false, nil
	}
	held := u.Availability == domain.AvailabilityReserved && u.ReservedBy != nil && *u.ReservedBy == reservationID
	if u.Availability != domain.AvailabilityAvailable && !held {
		return false, nil
	}
	id := reservationID
	u.Availability = domain.AvailabilityReserved
	u.ReservedBy = &id
	u.UpdatedOn = time.Now()
	return true, nil
}

func (r *memUnitRepo) ReleaseReserved(ctx context.Context, unitID, holder string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[unitID]
	if !ok || u.Availability != domain.AvailabilityReserved {
		return false, nil
	}
	if holder != "" && (u.ReservedBy == nil || *u.ReservedBy != holder) {
		return false, nil
	}
	u.Availability = domain.AvailabilityAvailable
	u.ReservedBy = nil
	u.UpdatedOn = time.Now()
	return true, nil
}

func (r *memUnitRepo) SetAvailability(ctx context.Context, unitID string, availability domain.Availability, reservedBy *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[unitID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Availability = availability
	u.ReservedBy = reservedBy
	u.UpdatedOn = time.Now()
	return nil
}

func (r *memUnitRepo) SwapAvailability(ctx context.Context, unitID string, from domain.Availability, fromHolder *string, to domain.Availability, toHolder *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[unitID]
	if !ok || u.Availability != from || !sameHolder(u.ReservedBy, fromHolder) {
		return false, nil
	}
	u.Availability = to
	u.ReservedBy = toHolder
	u.UpdatedOn = time.Now()
	return true, nil
}
