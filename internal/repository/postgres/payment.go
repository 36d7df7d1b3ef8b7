package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/logger"
	"motorent-backend/internal/repository"

	"github.com/lib/pq"
)

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `id, reservation_id, renter_id, amount_cents, currency, status, payment_method,
	refund_amount_cents, refund_reason, metadata, created_on, updated_on`

func scanPayment(row interface{ Scan(...any) error }) (*domain.PaymentRecord, error) {
	p := &domain.PaymentRecord{}
	var metadata []byte
	err := row.Scan(&p.ID, &p.ReservationID, &p.RenterID, &p.AmountCents, &p.Currency, &p.Status, &p.PaymentMethod,
		&p.RefundAmountCents, &p.RefundReason, &metadata, &p.CreatedOn, &p.UpdatedOn)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.PaymentRecord) error {
	logger.EnterMethod("paymentRepository.Create", "paymentID", p.ID, "reservationID", p.ReservationID)

	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		logger.ExitMethodWithError("paymentRepository.Create", err, "reason", "failed to marshal metadata")
		return err
	}

	query := `INSERT INTO payment_records (id, reservation_id, renter_id, amount_cents, currency, status, payment_method,
	          refund_amount_cents, refund_reason, metadata, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	now := time.Now()
	logger.DatabaseCall("INSERT", "payment_records", "paymentID", p.ID)
	_, err = r.db.ExecContext(ctx, query, p.ID, p.ReservationID, p.RenterID, p.AmountCents, p.Currency, p.Status, p.PaymentMethod,
		p.RefundAmountCents, p.RefundReason, metadata, now, now)
	logger.DatabaseResult("INSERT", 1, err, "paymentID", p.ID)
	if err != nil {
		logger.ExitMethodWithError("paymentRepository.Create", err, "paymentID", p.ID)
		return err
	}
	p.CreatedOn = now
	p.UpdatedOn = now
	logger.ExitMethod("paymentRepository.Create", "paymentID", p.ID)
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*domain.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_records WHERE id = $1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

func (r *paymentRepository) ListByReservation(ctx context.Context, reservationID string) ([]domain.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_records WHERE reservation_id = $1 ORDER BY created_on`
	rows, err := r.db.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.PaymentRecord
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *p)
	}
	return records, rows.Err()
}

func (r *paymentRepository) UpdateCashStatus(ctx context.Context, reservationID string, to domain.PaymentStatus, from []domain.PaymentStatus) (int64, error) {
	if len(from) == 0 {
		return 0, nil
	}
	statuses := make([]string, len(from))
	for i, s := range from {
		statuses[i] = string(s)
	}

	query := `UPDATE payment_records SET status = $1, updated_on = $2
	          WHERE reservation_id = $3 AND payment_method = 'cash' AND status = ANY($4)`
	logger.DatabaseCall("UPDATE", "payment_records", "reservationID", reservationID, "to", to)
	result, err := r.db.ExecContext(ctx, query, to, time.Now(), reservationID, pq.Array(statuses))
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "reservationID", reservationID)
		return 0, err
	}
	n, err := result.RowsAffected()
	logger.DatabaseResult("UPDATE", n, err, "reservationID", reservationID)
	return n, err
}

func (r *paymentRepository) ApplyRefund(ctx context.Context, id string, status domain.PaymentStatus, amountCents int64, reason string) (bool, error) {
	query := `UPDATE payment_records SET status = $1, refund_amount_cents = $2, refund_reason = $3, updated_on = $4
	          WHERE id = $5 AND status = 'succeeded'`
	logger.DatabaseCall("UPDATE", "payment_records", "paymentID", id, "status", status)
	result, err := r.db.ExecContext(ctx, query, status, amountCents, reason, time.Now(), id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	logger.DatabaseResult("UPDATE", n, err, "paymentID", id)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
