package mail

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/smtp"
	"net/url"
	"strings"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

// Mailer delivers the two kinds of outbound mail the storefront sends.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
	SendContact(ctx context.Context, msg ContactMessage) error
}

// ContactMessage is a visitor's contact form submission.
type ContactMessage struct {
	Name          string
	Email         string
	Subject       string
	Message       string
	AttachmentURL string
}

// ErrNotConfigured is returned by New outside development when SMTP
// credentials are missing.
var ErrNotConfigured = errors.New("SMTP credentials are not configured")

// New returns an SMTP mailer. Without SMTP credentials it falls back to a
// log-only mailer in development and fails in every other environment.
func New(cfg *config.MailConfig, environment string) (Mailer, error) {
	if cfg.Username == "" || cfg.Password == "" {
		if environment != "development" {
			return nil, fmt.Errorf("%w (environment %q)", ErrNotConfigured, environment)
		}
		logger.Warn("SMTP credentials not set, mail will only be logged", nil)
		return &LogMailer{}, nil
	}
	return &SMTPMailer{cfg: *cfg, send: smtp.SendMail}, nil
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPMailer struct {
	cfg  config.MailConfig
	send sendFunc
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	body := fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; padding: 20px;">
	<h2>Password reset</h2>
	<p>We received a request to reset the password for your account.</p>
	<p><a href="%s">Choose a new password</a></p>
	<p style="color: #999; font-size: 14px;">This link is valid for %s. If you did not request a reset you can ignore this email.</p>
</body>
</html>
`, html.EscapeString(resetURL), m.cfg.ResetTokenTTL)

	return m.deliver(ctx, to, "", "Password reset request", body)
}

// SendContact forwards a contact form to the configured receiver. Replies go
// to the visitor.
func (m *SMTPMailer) SendContact(ctx context.Context, msg ContactMessage) error {
	var b strings.Builder
	fmt.Fprintf(&b, "<html>\n<body style=\"font-family: Arial, sans-serif; padding: 20px;\">\n")
	fmt.Fprintf(&b, "\t<p><strong>From:</strong> %s &lt;%s&gt;</p>\n", html.EscapeString(msg.Name), html.EscapeString(msg.Email))
	fmt.Fprintf(&b, "\t<p>%s</p>\n", strings.ReplaceAll(html.EscapeString(msg.Message), "\n", "<br>"))
	if msg.AttachmentURL != "" {
		fmt.Fprintf(&b, "\t<p><a href=\"%s\">Attachment</a></p>\n", html.EscapeString(msg.AttachmentURL))
	}
	b.WriteString("</body>\n</html>\n")

	return m.deliver(ctx, m.cfg.ContactReceiver, msg.Email, msg.Subject, b.String())
}

// deliver runs the blocking SMTP exchange off the caller's goroutine so a
// cancelled request does not wait on a slow relay.
func (m *SMTPMailer) deliver(ctx context.Context, to, replyTo, subject, body string) error {
	message := buildMessage(m.cfg.From, to, replyTo, subject, body)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.SMTPHost)
	addr := m.cfg.SMTPHost + ":" + m.cfg.SMTPPort

	done := make(chan error, 1)
	go func() {
		done <- m.send(addr, auth, m.cfg.From, []string{to}, message)
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("Failed to send email", err, map[string]interface{}{
				"to":      to,
				"subject": subject,
			})
			return fmt.Errorf("send mail: %w", err)
		}
		logger.Info("Email sent", map[string]interface{}{
			"to":      to,
			"subject": subject,
		})
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildMessage(from, to, replyTo, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	if replyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", sanitizeHeader(replyTo))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader(subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// sanitizeHeader drops CR and LF so user input cannot add headers.
func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}

// LogMailer writes mail to the log instead of sending it. Reset tokens are
// never written out.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	logger.Info("[DEV MODE] Password reset link", map[string]interface{}{
		"to":        to,
		"reset_url": redactToken(resetURL),
	})
	return nil
}

func (LogMailer) SendContact(ctx context.Context, msg ContactMessage) error {
	logger.Info("[DEV MODE] Contact message", map[string]interface{}{
		"name":           msg.Name,
		"email":          msg.Email,
		"subject":        msg.Subject,
		"attachment_url": msg.AttachmentURL,
	})
	return nil
}

// redactToken masks the token query parameter of a reset link.
func redactToken(resetURL string) string {
	u, err := url.Parse(resetURL)
	if err != nil {
		return "[unparseable reset url]"
	}
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
