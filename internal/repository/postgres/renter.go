package postgres

import (
	"context"
	"database/sql"
	"errors"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/repository"
)

type renterRepository struct {
	db *sql.DB
}

func NewRenterRepository(db *sql.DB) repository.RenterRepository {
	return &renterRepository{db: db}
}

func (r *renterRepository) GetByID(ctx context.Context, id string) (*domain.Renter, error) {
	renter := &domain.Renter{}
	query := `SELECT id, full_name, email, phone, license_url, created_on FROM renters WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&renter.ID, &renter.FullName, &renter.Email, &renter.Phone, &renter.LicenseURL, &renter.CreatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return renter, nil
}
