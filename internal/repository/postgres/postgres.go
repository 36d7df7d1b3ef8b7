package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"motorent-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.UnitRepository
	repository.RenterRepository
	repository.ReservationRepository
	repository.TransactionRepository
	repository.PaymentRepository
	repository.NotificationRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		UnitRepository:         NewUnitRepository(db),
		RenterRepository:       NewRenterRepository(db),
		ReservationRepository:  NewReservationRepository(db),
		TransactionRepository:  NewTransactionRepository(db),
		PaymentRepository:      NewPaymentRepository(db),
		NotificationRepository: NewNotificationRepository(db),
	}
}

// Open connects to postgres and verifies the connection.
func Open(ctx context.Context, dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}
