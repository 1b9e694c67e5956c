package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"troop-backend/internal/domain"
	"troop-backend/internal/logger"
)

// sendGridDeliverer sends each row directly, for deployments without the Apps
// Script queue.
type sendGridDeliverer struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewSendGridDeliverer(apiKey, fromEmail, fromName string) EmailDeliverer {
	return &sendGridDeliverer{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *sendGridDeliverer) Name() string { return "sendgrid" }

func (s *sendGridDeliverer) Deliver(ctx context.Context, rows []domain.EmailRow) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	for i, r := range rows {
		message := mail.NewSingleEmail(from, r.Subject, mail.NewEmail(r.Name, r.To), "", r.HTMLBody)

		logger.ExternalServiceCall("sendgrid", "send", "to", r.To, "type", r.Type)
		response, err := s.client.SendWithContext(ctx, message)
		if err == nil && response.StatusCode >= 400 {
			err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
		}
		logger.ExternalServiceResult("sendgrid", "send", err, "to", r.To)
		if err != nil {
			return fmt.Errorf("row %d of %d: %w", i+1, len(rows), err)
		}
	}
	return nil
}

// noopDeliverer logs rows without sending them.
type noopDeliverer struct{}

func NewNoopDeliverer() EmailDeliverer {
	return noopDeliverer{}
}

func (noopDeliverer) Name() string { return "noop" }

func (noopDeliverer) Deliver(_ context.Context, rows []domain.EmailRow) error {
	for i, r := range rows {
		logger.Info("noop_email_send", "index", i, "type", r.Type, "to", r.To, "subject", r.Subject)
	}
	return nil
}
