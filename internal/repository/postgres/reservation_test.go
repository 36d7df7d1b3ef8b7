package postgres_test

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reservationCols = []string{"id", "renter_id", "unit_id", "start_date", "end_date", "pickup_time", "return_time",
	"daily_rate_cents", "rental_days", "subtotal_cents", "deposit_cents", "total_price_cents", "status", "admin_notes", "cancel_reason",
	"customer_name", "customer_email", "customer_phone", "payment_method", "payment_reference", "payment_proof_url", "created_on", "updated_on"}

func reservationRow(id string, status domain.ReservationStatus) []driver.Value {
	now := time.Now()
	return []driver.Value{id, "renter-1", "u1", "2025-06-01", "2025-06-03", "", "",
		int64(80000), int32(2), int64(160000), int64(32000), int64(192000), string(status), "", "",
		"Juan Dela Cruz", "juan@example.com", "", "cash", "", "", now, now}
}

func TestReservationRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewReservationRepository(db)

	rs := &domain.Reservation{
		ID:              "r1",
		RenterID:        "renter-1",
		UnitID:          "u1",
		StartDate:       "2025-06-01",
		EndDate:         "2025-06-03",
		DailyRateCents:  80000,
		RentalDays:      2,
		SubtotalCents:   160000,
		DepositCents:    32000,
		TotalPriceCents: 192000,
		Status:          domain.ReservationStatusPending,
	}

	mock.ExpectExec("INSERT INTO reservations").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Create(context.Background(), rs)
	assert.NoError(t, err)
	assert.False(t, rs.CreatedOn.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewReservationRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id = \\$1").
			WithArgs("r1").
			WillReturnRows(sqlmock.NewRows(reservationCols).AddRow(reservationRow("r1", domain.ReservationStatusPending)...))

		rs, err := repo.GetByID(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "r1", rs.ID)
		assert.Equal(t, domain.ReservationStatusPending, rs.Status)
		assert.Equal(t, int64(192000), rs.TotalPriceCents)
		assert.Equal(t, "2025-06-01", rs.StartDate)
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM reservations WHERE id = \\$1").
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows(reservationCols))

		_, err := repo.GetByID(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestReservationRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewReservationRepository(db)
	ctx := context.Background()

	t.Run("Compare and set wins", func(t *testing.T) {
		rs := &domain.Reservation{ID: "r1", Status: domain.ReservationStatusConfirmed}
		mock.ExpectExec("UPDATE reservations SET status = \\$1").
			WithArgs(domain.ReservationStatusConfirmed, "", sqlmock.AnyArg(), "r1", domain.ReservationStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.UpdateStatus(ctx, rs, domain.ReservationStatusPending)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Status moved underneath", func(t *testing.T) {
		rs := &domain.Reservation{ID: "r1", Status: domain.ReservationStatusCancelled, CancelReason: "late"}
		mock.ExpectExec("UPDATE reservations SET status = \\$1").
			WithArgs(domain.ReservationStatusCancelled, "late", sqlmock.AnyArg(), "r1", domain.ReservationStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.UpdateStatus(ctx, rs, domain.ReservationStatusPending)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Second confirmation for a unit is unit unavailable", func(t *testing.T) {
		rs := &domain.Reservation{ID: "r2", UnitID: "u1", Status: domain.ReservationStatusConfirmed}
		mock.ExpectExec("UPDATE reservations SET status = \\$1").
			WithArgs(domain.ReservationStatusConfirmed, "", sqlmock.AnyArg(), "r2", domain.ReservationStatusPending).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_reservations_confirmed_unit"})

		ok, err := repo.UpdateStatus(ctx, rs, domain.ReservationStatusPending)
		assert.ErrorIs(t, err, domain.ErrUnitUnavailable)
		assert.False(t, ok)
	})

	t.Run("Other unique violations surface unchanged", func(t *testing.T) {
		rs := &domain.Reservation{ID: "r3", UnitID: "u1", Status: domain.ReservationStatusConfirmed}
		mock.ExpectExec("UPDATE reservations SET status = \\$1").
			WithArgs(domain.ReservationStatusConfirmed, "", sqlmock.AnyArg(), "r3", domain.ReservationStatusPending).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "reservations_pkey"})

		_, err := repo.UpdateStatus(ctx, rs, domain.ReservationStatusPending)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrUnitUnavailable)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewReservationRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM").
		WithArgs("renter-1", domain.ReservationStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE 1=1 AND renter_id = \\$1 AND status = \\$2 ORDER BY created_on DESC LIMIT \\$3 OFFSET \\$4").
		WithArgs("renter-1", domain.ReservationStatusPending, int32(20), int32(0)).
		WillReturnRows(sqlmock.NewRows(reservationCols).AddRow(reservationRow("r1", domain.ReservationStatusPending)...))

	list, count, err := repo.List(context.Background(), domain.ReservationFilter{RenterID: "renter-1", Status: domain.ReservationStatusPending})
	require.NoError(t, err)
	assert.Equal(t, int32(1), count)
	assert.Len(t, list, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepository_GetConfirmedByUnit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewReservationRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM reservations WHERE unit_id = \\$1 AND status = 'confirmed'").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(reservationCols))

	_, err = repo.GetConfirmedByUnit(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
