package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/logger"
	"motorent-backend/internal/repository"

	"github.com/lib/pq"
)

const confirmedUnitIndex = "uq_reservations_confirmed_unit"

type reservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

const reservationColumns = `id, renter_id, unit_id, start_date::text, end_date::text, pickup_time, return_time,
	daily_rate_cents, rental_days, subtotal_cents, deposit_cents, total_price_cents, status, admin_notes, cancel_reason,
	customer_name, customer_email, customer_phone, payment_method, payment_reference, payment_proof_url, created_on, updated_on`

func scanReservation(row interface{ Scan(...any) error }) (*domain.Reservation, error) {
	rs := &domain.Reservation{}
	err := row.Scan(&rs.ID, &rs.RenterID, &rs.UnitID, &rs.StartDate, &rs.EndDate, &rs.PickupTime, &rs.ReturnTime,
		&rs.DailyRateCents, &rs.RentalDays, &rs.SubtotalCents, &rs.DepositCents, &rs.TotalPriceCents, &rs.Status, &rs.AdminNotes, &rs.CancelReason,
		&rs.CustomerName, &rs.CustomerEmail, &rs.CustomerPhone, &rs.PaymentMethod, &rs.PaymentReference, &rs.PaymentProofURL, &rs.CreatedOn, &rs.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

func (r *reservationRepository) Create(ctx context.Context, rs *domain.Reservation) error {
	logger.EnterMethod("reservationRepository.Create", "reservationID", rs.ID, "unitID", rs.UnitID, "renterID", rs.RenterID)

	query := `INSERT INTO reservations (id, renter_id, unit_id, start_date, end_date, pickup_time, return_time,
	          daily_rate_cents, rental_days, subtotal_cents, deposit_cents, total_price_cents, status, admin_notes,
	          customer_name, customer_email, customer_phone, payment_method, payment_reference, payment_proof_url, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`
	now := time.Now()
	logger.DatabaseCall("INSERT", "reservations", "reservationID", rs.ID)
	_, err := r.db.ExecContext(ctx, query, rs.ID, rs.RenterID, rs.UnitID, rs.StartDate, rs.EndDate, rs.PickupTime, rs.ReturnTime,
		rs.DailyRateCents, rs.RentalDays, rs.SubtotalCents, rs.DepositCents, rs.TotalPriceCents, rs.Status, rs.AdminNotes,
		rs.CustomerName, rs.CustomerEmail, rs.CustomerPhone, rs.PaymentMethod, rs.PaymentReference, rs.PaymentProofURL, now, now)
	logger.DatabaseResult("INSERT", 1, err, "reservationID", rs.ID)
	if err != nil {
		logger.ExitMethodWithError("reservationRepository.Create", err, "reservationID", rs.ID)
		return err
	}
	rs.CreatedOn = now
	rs.UpdatedOn = now
	logger.ExitMethod("reservationRepository.Create", "reservationID", rs.ID)
	return nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	logger.DatabaseCall("SELECT", "reservations", "reservationID", id)
	rs, err := scanReservation(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return rs, err
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, rs *domain.Reservation, from domain.ReservationStatus) (bool, error) {
	query := `UPDATE reservations SET status = $1, cancel_reason = $2, updated_on = $3 WHERE id = $4 AND status = $5`
	now := time.Now()
	logger.DatabaseCall("UPDATE", "reservations", "reservationID", rs.ID, "from", from, "to", rs.Status)

	result, err := r.db.ExecContext(ctx, query, rs.Status, rs.CancelReason, now, rs.ID, from)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "reservationID", rs.ID)
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == confirmedUnitIndex {
			return false, fmt.Errorf("%w: unit %s already has a confirmed reservation", domain.ErrUnitUnavailable, rs.UnitID)
		}
		return false, err
	}
	n, err := result.RowsAffected()
	logger.DatabaseResult("UPDATE", n, err, "reservationID", rs.ID)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	rs.UpdatedOn = now
	return true, nil
}

func (r *reservationRepository) UpdateNotes(ctx context.Context, id, notes string) error {
	query := `UPDATE reservations SET admin_notes = $1, updated_on = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, notes, time.Now(), id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *reservationRepository) List(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, int32, error) {
	sql := `SELECT ` + reservationColumns + ` FROM reservations WHERE 1=1`
	var args []any
	argIdx := 1
	if f.RenterID != "" {
		sql += fmt.Sprintf(" AND renter_id = $%d", argIdx)
		args = append(args, f.RenterID)
		argIdx++
	}
	if f.UnitID != "" {
		sql += fmt.Sprintf(" AND unit_id = $%d", argIdx)
		args = append(args, f.UnitID)
		argIdx++
	}
	if f.Status != "" {
		sql += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, f.Status)
		argIdx++
	}

	var count int32
	countSql := "SELECT count(*) FROM (" + sql + ") AS sub"
	if err := r.db.QueryRowContext(ctx, countSql, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	page, pageSize := f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	sql += fmt.Sprintf(" ORDER BY created_on DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, (page-1)*pageSize)

	reservations, err := r.query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	return reservations, count, nil
}

func (r *reservationRepository) GetConfirmedByUnit(ctx context.Context, unitID string) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE unit_id = $1 AND status = 'confirmed'
	          ORDER BY updated_on DESC LIMIT 1`
	rs, err := scanReservation(r.db.QueryRowContext(ctx, query, unitID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return rs, err
}

func (r *reservationRepository) ListUpdatedSince(ctx context.Context, since time.Time) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE updated_on >= $1 ORDER BY updated_on`
	return r.query(ctx, query, since)
}

func (r *reservationRepository) ListConfirmedEndingBy(ctx context.Context, date string) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE status = 'confirmed' AND end_date <= $1 ORDER BY end_date`
	return r.query(ctx, query, date)
}

func (r *reservationRepository) query(ctx context.Context, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		rs, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *rs)
	}
	return reservations, rows.Err()
}
