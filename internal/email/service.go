package email

import (
	"context"

	"github.com/subtrack/subtrack/internal/logger"
)

// Message is a single rendered email
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender is the delivery capability used by the reminder dispatcher
type Sender interface {
	Send(ctx context.Context, msg Message) (messageID string, err error)
}

// Email delivers rendered messages through the shared EmailClient
type Email struct {
	client *EmailClient
	logger *logger.Logger
}

var _ Sender = (*Email)(nil)

func NewEmail(client *EmailClient, logger *logger.Logger) *Email {
	return &Email{
		client: client,
		logger: logger,
	}
}

// NewSender exposes Email as the Sender interface for injection
func NewSender(e *Email) Sender {
	return e
}

// Send performs exactly one delivery attempt. A disabled client sends nothing and
// returns an ErrInvalidOperation error.
func (s *Email) Send(ctx context.Context, msg Message) (string, error) {
	if !s.client.IsEnabled() {
		s.logger.Warnw("email client is disabled, skipping email send",
			"to", msg.To,
			"subject", msg.Subject,
		)
		return "", errEmailDisabled()
	}

	messageID, err := s.client.SendEmail(ctx, s.client.GetFromAddress(), msg.To, msg.Subject, msg.HTML, msg.Text)
	if err != nil {
		s.logger.Errorw("failed to send email",
			"error", err,
			"to", msg.To,
			"subject", msg.Subject,
		)
		return "", err
	}

	s.logger.Infow("email sent successfully",
		"message_id", messageID,
		"to", msg.To,
		"subject", msg.Subject,
	)
	return messageID, nil
}
