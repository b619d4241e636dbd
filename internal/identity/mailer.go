package identity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers login-link emails.
type Mailer interface {
	SendLoginLink(ctx context.Context, to, link string) error
}

// SendGridMailer implements Mailer via the SendGrid API.
type SendGridMailer struct {
	apiKey   string
	from     string
	fromName string
}

// NewSendGridMailer creates a Mailer using the given API key and sender.
func NewSendGridMailer(apiKey, from string) *SendGridMailer {
	return &SendGridMailer{apiKey: apiKey, from: from, fromName: "Client Portal"}
}

// SendLoginLink emails a one-time sign-in link.
func (m *SendGridMailer) SendLoginLink(_ context.Context, to, link string) error {
	if m.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}

	body := fmt.Sprintf("Click the link below to sign in to your client portal:\n\n%s\n\nThis link expires in 15 minutes. If you did not request it, you can ignore this email.", link)
	html := fmt.Sprintf(`<p>Click the link below to sign in to your client portal:</p><p><a href="%s">Sign in</a></p><p>This link expires in 15 minutes. If you did not request it, you can ignore this email.</p>`, link)

	message := mail.NewSingleEmail(
		mail.NewEmail(m.fromName, m.from),
		"Your sign-in link",
		mail.NewEmail("", to),
		body,
		html,
	)

	response, err := sendgrid.NewSendClient(m.apiKey).Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d body=%s", response.StatusCode, response.Body)
	}

	return nil
}

// LogMailer logs links instead of sending them. Used in development when no
// SendGrid key is configured.
type LogMailer struct{}

// SendLoginLink logs the link at info level.
func (LogMailer) SendLoginLink(_ context.Context, to, link string) error {
	slog.Info("login link issued", "to", to, "link", link)
	return nil
}
