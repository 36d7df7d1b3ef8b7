package service

import (
	"context"
	"fmt"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/logger"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type sendGridEmailService struct {
	client    sendClient
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	if apiKey == "" {
		return noopEmailService{}
	}
	return &sendGridEmailService{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *sendGridEmailService) SendReservationUpdate(ctx context.Context, to domain.Recipient, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(to.Name, to.Email)

	greeting := "Hello"
	if to.Name != "" {
		greeting = "Hello " + to.Name
	}
	plainText := fmt.Sprintf("%s,\n\n%s\n\nBest regards,\nThe %s Team", greeting, body, s.fromName)
	message := mail.NewSingleEmail(from, subject, recipient, plainText, "")

	logger.ExternalServiceCall("sendgrid", "Send", "subject", subject)
	response, err := s.client.SendWithContext(ctx, message)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult("sendgrid", "Send", err, "subject", subject)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

type noopEmailService struct{}

func (noopEmailService) SendReservationUpdate(ctx context.Context, to domain.Recipient, subject, body string) error {
	logger.Debug("Email disabled, skipping", "subject", subject)
	return nil
}
