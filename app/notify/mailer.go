package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/rss-watch/app/database"
	"github.com/wneessen/go-mail"
)

// MailError classifies every failure to build or deliver a notification.
type MailError struct {
	Server string
	Err    error
}

func (e *MailError) Error() string {
	return fmt.Sprintf("failed to send mail via %s: %v", e.Server, e.Err)
}

func (e *MailError) Unwrap() error {
	return e.Err
}

// Mailer delivers plain-text notifications over SMTP with mandatory STARTTLS.
type Mailer struct {
	timeout time.Duration
}

func NewMailer(timeout time.Duration) *Mailer {
	return &Mailer{timeout: timeout}
}

// Send opens a fresh session per message. Credentials are taken from
// settings on every call so edits apply to the next notification.
func (m *Mailer) Send(ctx context.Context, settings database.Settings, subject, body string) error {
	server := fmt.Sprintf("%s:%d", settings.SMTPServer, settings.SMTPPort)

	msg, err := buildMessage(settings, subject, body)
	if err != nil {
		return &MailError{Server: server, Err: err}
	}

	client, err := mail.NewClient(settings.SMTPServer, m.clientOptions(settings)...)
	if err != nil {
		return &MailError{Server: server, Err: fmt.Errorf("failed to create client: %w", err)}
	}

	sendCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := client.DialAndSendWithContext(sendCtx, msg); err != nil {
		return &MailError{Server: server, Err: err}
	}

	slog.Debug("Mail sent", "server", server, "to", settings.MailTo, "subject", subject)
	return nil
}

func (m *Mailer) clientOptions(settings database.Settings) []mail.Option {
	opts := []mail.Option{
		mail.WithPort(settings.SMTPPort),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(m.timeout),
	}

	if settings.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(settings.SMTPUsername),
			mail.WithPassword(settings.SMTPPassword),
		)
	}

	return opts
}

func buildMessage(settings database.Settings, subject, body string) (*mail.Msg, error) {
	if settings.MailFrom == "" {
		return nil, fmt.Errorf("sender address is not configured")
	}
	if settings.MailTo == "" {
		return nil, fmt.Errorf("recipient address is not configured")
	}

	msg := mail.NewMsg()
	if err := msg.From(settings.MailFrom); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(settings.MailTo); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, body)

	return msg, nil
}
