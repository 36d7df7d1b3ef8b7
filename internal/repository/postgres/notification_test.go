package postgres_test

import (
	"context"
	"testing"
	"time"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewNotificationRepository(db)
	n := &domain.Notification{
		ID:          "n1",
		RecipientID: "renter-1",
		Title:       "Reservation rejected",
		Message:     "incomplete documents",
		Type:        domain.NotificationTypeRejected,
		Attributes:  map[string]string{"reservation_id": "r1"},
	}

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs("n1", "renter-1", "Reservation rejected", "incomplete documents", domain.NotificationTypeRejected, false, []byte(`{"reservation_id":"r1"}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), n))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewNotificationRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM notifications WHERE recipient_id = \\$1").
		WithArgs("renter-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT (.+) FROM notifications WHERE recipient_id = \\$1 ORDER BY created_on DESC").
		WithArgs("renter-1", int32(10), int32(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "recipient_id", "title", "message", "type", "is_read", "attributes", "created_on"}).
			AddRow("n2", "renter-1", "Reservation confirmed", "See you soon", "confirmed", false, []byte(`{}`), time.Now()).
			AddRow("n1", "renter-1", "Booking received", "We got it", "info", true, []byte(`{"reservation_id":"r1"}`), time.Now().Add(-time.Hour)))

	notes, count, err := repo.List(context.Background(), "renter-1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(2), count)
	require.Len(t, notes, 2)
	assert.Equal(t, "n2", notes[0].ID)
	assert.Equal(t, "r1", notes[1].Attributes["reservation_id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkAsRead(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewNotificationRepository(db)

	mock.ExpectExec("UPDATE notifications SET is_read = TRUE WHERE id = \\$1 AND recipient_id = \\$2").
		WithArgs("n1", "someone-else").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.MarkAsRead(context.Background(), "n1", "someone-else")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
