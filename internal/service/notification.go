package service

import (
	"context"
	"fmt"
	"time"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/logger"
	"motorent-backend/internal/notify"
	"motorent-backend/internal/repository"

	"github.com/google/uuid"
)

type notificationService struct {
	noteRepo  repository.NotificationRepository
	publisher notify.Publisher
	emailSvc  EmailService
	timeout   time.Duration
}

func NewNotificationService(noteRepo repository.NotificationRepository, publisher notify.Publisher, emailSvc EmailService, timeout time.Duration) NotificationService {
	if emailSvc == nil {
		emailSvc = noopEmailService{}
	}
	return &notificationService{
		noteRepo:  noteRepo,
		publisher: publisher,
		emailSvc:  emailSvc,
		timeout:   timeout,
	}
}

func (s *notificationService) Notify(ctx context.Context, n *domain.Notification, recipient *domain.Recipient) error {
	logger.EnterMethod("notificationService.Notify", "recipientID", n.RecipientID, "type", n.Type)

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedOn.IsZero() {
		n.CreatedOn = time.Now()
	}

	// At-least-once: the insert is retried once with the same id.
	err := s.persist(ctx, n)
	if err != nil {
		logger.Warn("Notification insert failed, retrying", "notificationID", n.ID, "error", err)
		err = s.persist(ctx, n)
	}
	if err != nil {
		logger.ExitMethodWithError("notificationService.Notify", err, "notificationID", n.ID)
		return fmt.Errorf("failed to store notification: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, n); err != nil {
			logger.Warn("Live notification push incomplete", "notificationID", n.ID, "error", err)
		}
	}

	if recipient != nil && recipient.Email != "" {
		if err := s.emailSvc.SendReservationUpdate(ctx, *recipient, n.Title, n.Message); err != nil {
			logger.Warn("Notification email failed", "notificationID", n.ID, "error", err)
		}
	}

	logger.ExitMethod("notificationService.Notify", "notificationID", n.ID)
	return nil
}

func (s *notificationService) persist(ctx context.Context, n *domain.Notification) error {
	sctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()
	return s.noteRepo.Create(sctx, n)
}

func (s *notificationService) GetNotifications(ctx context.Context, recipientID string, page, pageSize int32) ([]domain.Notification, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.noteRepo.List(ctx, recipientID, pageSize, offset)
}

func (s *notificationService) UnreadCount(ctx context.Context, recipientID string) (int32, error) {
	return s.noteRepo.CountUnread(ctx, recipientID)
}

func (s *notificationService) MarkAsRead(ctx context.Context, recipientID, notificationID string) error {
	return s.noteRepo.MarkAsRead(ctx, notificationID, recipientID)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, recipientID string) (int64, error) {
	return s.noteRepo.MarkAllAsRead(ctx, recipientID)
}

func (s *notificationService) DeleteAll(ctx context.Context, recipientID string) (int64, error) {
	return s.noteRepo.DeleteAll(ctx, recipientID)
}
