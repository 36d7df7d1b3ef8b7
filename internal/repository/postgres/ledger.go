package postgres

import (
	"context"
	"database/sql"
	"time"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/logger"
	"motorent-backend/internal/repository"

	"github.com/lib/pq"
)

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `INSERT INTO transactions (id, renter_id, reservation_id, type, amount_cents, status, description, date, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	now := time.Now()
	if tx.Date.IsZero() {
		tx.Date = now
	}
	logger.DatabaseCall("INSERT", "transactions", "transactionID", tx.ID, "type", tx.Type)
	_, err := r.db.ExecContext(ctx, query, tx.ID, tx.RenterID, tx.ReservationID, tx.Type, tx.AmountCents, tx.Status, tx.Description, tx.Date, now, now)
	logger.DatabaseResult("INSERT", 1, err, "transactionID", tx.ID)
	if err != nil {
		return err
	}
	tx.CreatedOn = now
	tx.UpdatedOn = now
	return nil
}

func (r *transactionRepository) ListByReservation(ctx context.Context, reservationID string) ([]domain.Transaction, error) {
	query := `SELECT id, renter_id, reservation_id, type, amount_cents, status, description, date, created_on, updated_on
	          FROM transactions WHERE reservation_id = $1 ORDER BY created_on`
	rows, err := r.db.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var resID sql.NullString
		if err := rows.Scan(&tx.ID, &tx.RenterID, &resID, &tx.Type, &tx.AmountCents, &tx.Status, &tx.Description, &tx.Date, &tx.CreatedOn, &tx.UpdatedOn); err != nil {
			return nil, err
		}
		if resID.Valid {
			tx.ReservationID = &resID.String
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *transactionRepository) UpdatePaymentStatus(ctx context.Context, reservationID string, to domain.TransactionStatus, from []domain.TransactionStatus) (int64, error) {
	if len(from) == 0 {
		return 0, nil
	}
	statuses := make([]string, len(from))
	for i, s := range from {
		statuses[i] = string(s)
	}

	query := `UPDATE transactions SET status = $1, updated_on = $2
	          WHERE reservation_id = $3 AND type = 'payment' AND status = ANY($4)`
	logger.DatabaseCall("UPDATE", "transactions", "reservationID", reservationID, "to", to)
	result, err := r.db.ExecContext(ctx, query, to, time.Now(), reservationID, pq.Array(statuses))
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "reservationID", reservationID)
		return 0, err
	}
	n, err := result.RowsAffected()
	logger.DatabaseResult("UPDATE", n, err, "reservationID", reservationID)
	return n, err
}

func (r *transactionRepository) Summary(ctx context.Context, since time.Time) (*domain.LedgerSummary, error) {
	summary := &domain.LedgerSummary{
		StatusCount: make(map[string]int32),
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT type, status, count(*), COALESCE(sum(amount_cents), 0)
		FROM transactions
		WHERE date >= $1
		GROUP BY type, status`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var txType domain.TransactionType
		var status domain.TransactionStatus
		var count int32
		var amount int64
		if err := rows.Scan(&txType, &status, &count, &amount); err != nil {
			return nil, err
		}
		summary.StatusCount[string(txType)+":"+string(status)] = count
		switch {
		case txType == domain.TransactionTypeRefund && status == domain.TransactionStatusCompleted:
			summary.RefundedCents += amount
		case status == domain.TransactionStatusCompleted:
			summary.CollectedCents += amount
		case status == domain.TransactionStatusPending:
			summary.PendingCents += amount
		}
	}
	return summary, rows.Err()
}
