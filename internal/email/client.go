package email

import (
	"context"
	"net/http"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/subtrack/subtrack/internal/config"
	ierr "github.com/subtrack/subtrack/internal/errors"
	"github.com/subtrack/subtrack/internal/logger"
)

// EmailClient talks to Resend. It is built once at startup and shared.
type EmailClient struct {
	client *resend.Client
	cfg    config.EmailConfig
	logger *logger.Logger
}

func NewEmailClient(cfg *config.Configuration, logger *logger.Logger) *EmailClient {
	c := &EmailClient{
		cfg:    cfg.Email,
		logger: logger,
	}

	if !cfg.Email.Enabled {
		logger.Info("email client is disabled")
		return c
	}
	if cfg.Email.ResendAPIKey == "" {
		logger.Warn("email is enabled but no resend api key is configured, disabling email")
		c.cfg.Enabled = false
		return c
	}

	c.client = resend.NewCustomClient(newHTTPClient(), cfg.Email.ResendAPIKey)
	return c
}

// sendTimeout bounds one delivery attempt. Sends are never retried: Resend may have accepted
// a request that timed out or failed with a 5xx.
const sendTimeout = 30 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: sendTimeout}
}

func (c *EmailClient) IsEnabled() bool {
	return c != nil && c.cfg.Enabled && c.client != nil
}

func (c *EmailClient) GetFromAddress() string {
	return c.cfg.FromAddress
}

// SendEmail sends one email and returns the provider message id
func (c *EmailClient) SendEmail(ctx context.Context, from, to, subject, html, text string) (string, error) {
	if !c.IsEnabled() {
		return "", errEmailDisabled()
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
		Text:    text,
		ReplyTo: c.cfg.ReplyTo,
	}

	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to send email").
			WithReportableDetails(map[string]interface{}{
				"to":      to,
				"subject": subject,
			}).
			Mark(ierr.ErrHTTPClient)
	}
	return sent.Id, nil
}

func errEmailDisabled() error {
	return ierr.NewError("email client is disabled").
		WithHint("Email delivery is disabled").
		Mark(ierr.ErrInvalidOperation)
}
