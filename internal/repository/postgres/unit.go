package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/logger"
	"motorent-backend/internal/repository"
)

type unitRepository struct {
	db *sql.DB
}

func NewUnitRepository(db *sql.DB) repository.UnitRepository {
	return &unitRepository{db: db}
}

const unitColumns = `id, name, plate_number, daily_rate_cents, availability, reserved_by, created_on, updated_on`

func scanUnit(row interface{ Scan(...any) error }) (*domain.Unit, error) {
	u := &domain.Unit{}
	var reservedBy sql.NullString
	if err := row.Scan(&u.ID, &u.Name, &u.PlateNumber, &u.DailyRateCents, &u.Availability, &reservedBy, &u.CreatedOn, &u.UpdatedOn); err != nil {
		return nil, err
	}
	if reservedBy.Valid {
		u.ReservedBy = &reservedBy.String
	}
	return u, nil
}

func (r *unitRepository) GetByID(ctx context.Context, id string) (*domain.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units WHERE id = $1`
	logger.DatabaseCall("SELECT", "units", "unitID", id)
	u, err := scanUnit(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return u, err
}

func (r *unitRepository) List(ctx context.Context, availability domain.Availability) ([]domain.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units`
	var args []any
	if availability != "" {
		query += ` WHERE availability = $1`
		args = append(args, availability)
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []domain.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, *u)
	}
	return units, rows.Err()
}

func (r *unitRepository) TryReserve(ctx context.Context, unitID, reservationID string) (bool, error) {
	query := `UPDATE units SET availability = 'Reserved', reserved_by = $2, updated_on = $3
	          WHERE id = $1 AND (availability = 'Available' OR (availability = 'Reserved' AND reserved_by = $2))`
	logger.DatabaseCall("UPDATE", "units", "unitID", unitID, "reservationID", reservationID, "op", "reserve")

	result, err := r.db.ExecContext(ctx, query, unitID, reservationID, time.Now())
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "unitID", unitID)
		return false, err
	}
	n, err := result.RowsAffected()
	logger.DatabaseResult("UPDATE", n, err, "unitID", unitID)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *unitRepository) ReleaseReserved(ctx context.Context, unitID, holder string) (bool, error) {
	query := `UPDATE units SET availability = 'Available', reserved_by = NULL, updated_on = $2
	          WHERE id = $1 AND availability = 'Reserved'`
	args := []any{unitID, time.Now()}
	if holder != "" {
		query += ` AND reserved_by = $3`
		args = append(args, holder)
	}
	logger.DatabaseCall("UPDATE", "units", "unitID", unitID, "holder", holder, "op", "release")

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "unitID", unitID)
		return false, err
	}
	n, err := result.RowsAffected()
	logger.DatabaseResult("UPDATE", n, err, "unitID", unitID)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *unitRepository) SetAvailability(ctx context.Context, unitID string, availability domain.Availability, reservedBy *string) error {
	query := `UPDATE units SET availability = $2, reserved_by = $3, updated_on = $4 WHERE id = $1`
	logger.DatabaseCall("UPDATE", "units", "unitID", unitID, "availability", availability)

	result, err := r.db.ExecContext(ctx, query, unitID, availability, reservedBy, time.Now())
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

func (r *unitRepository) SwapAvailability(ctx context.Context, unitID string, from domain.Availability, fromHolder *string, to domain.Availability, toHolder *string) (bool, error) {
	query := `UPDATE units SET availability = $4, reserved_by = $5, updated_on = $6
	          WHERE id = $1 AND availability = $2 AND reserved_by IS NOT DISTINCT FROM $3`
	logger.DatabaseCall("UPDATE", "units", "unitID", unitID, "from", from, "to", to, "op", "swap")

	result, err := r.db.ExecContext(ctx, query, unitID, from, fromHolder, to, toHolder, time.Now())
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "unitID", unitID)
		return false, err
	}
	n, err := result.RowsAffected()
	logger.DatabaseResult("UPDATE", n, err, "unitID", unitID)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
