package mail

import (
	"bytes"
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestMailer(sendErr error) (*SMTPMailer, *capturedMail) {
	captured := &capturedMail{}
	m := &SMTPMailer{
		cfg: config.MailConfig{
			SMTPHost:        "smtp.example.com",
			SMTPPort:        "587",
			Username:        "shop@example.com",
			Password:        "secret",
			From:            "shop@example.com",
			ContactReceiver: "owner@example.com",
			ResetTokenTTL:   time.Hour,
		},
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			captured.addr = addr
			captured.from = from
			captured.to = to
			captured.msg = string(msg)
			return sendErr
		},
	}
	return m, captured
}

func TestNew_FallsBackToLogMailerInDevelopment(t *testing.T) {
	m, err := New(&config.MailConfig{}, "development")
	require.NoError(t, err)
	_, ok := m.(*LogMailer)
	assert.True(t, ok)

	m, err = New(&config.MailConfig{Username: "u", Password: "p"}, "development")
	require.NoError(t, err)
	_, ok = m.(*SMTPMailer)
	assert.True(t, ok)
}

func TestNew_RequiresCredentialsOutsideDevelopment(t *testing.T) {
	for _, env := range []string{"production", "staging", ""} {
		m, err := New(&config.MailConfig{Username: "u"}, env)
		assert.ErrorIs(t, err, ErrNotConfigured, env)
		assert.Nil(t, m)
	}

	m, err := New(&config.MailConfig{Username: "u", Password: "p"}, "production")
	require.NoError(t, err)
	_, ok := m.(*SMTPMailer)
	assert.True(t, ok)
}

func TestRedactToken(t *testing.T) {
	assert.Equal(t, "https://shop/reset?token=REDACTED", redactToken("https://shop/reset?token=RAWTOKEN0123"))
	assert.Equal(t, "https://shop/reset?lang=en&token=REDACTED", redactToken("https://shop/reset?token=RAWTOKEN0123&lang=en"))
	assert.Equal(t, "https://shop/reset", redactToken("https://shop/reset"))
}

func TestSMTPMailer_SendPasswordReset(t *testing.T) {
	m, captured := newTestMailer(nil)

	err := m.SendPasswordReset(context.Background(), "ann@example.com", "https://shop.example.com/reset?token=abc")

	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:587", captured.addr)
	assert.Equal(t, []string{"ann@example.com"}, captured.to)
	assert.Contains(t, captured.msg, "Subject: Password reset request\r\n")
	assert.Contains(t, captured.msg, "https://shop.example.com/reset?token=abc")
}

func TestSMTPMailer_SendContact(t *testing.T) {
	m, captured := newTestMailer(nil)

	err := m.SendContact(context.Background(), ContactMessage{
		Name:          "Visitor <script>",
		Email:         "visitor@example.com",
		Subject:       "Custom order\r\nBcc: evil@example.com",
		Message:       "line one\nline two",
		AttachmentURL: "https://bucket.example.com/contact/1.png",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"owner@example.com"}, captured.to)
	assert.Contains(t, captured.msg, "Reply-To: visitor@example.com\r\n")
	assert.Contains(t, captured.msg, "Subject: Custom orderBcc: evil@example.com\r\n")
	assert.Equal(t, 1, strings.Count(captured.msg, "Bcc:"))
	assert.Contains(t, captured.msg, "Visitor &lt;script&gt;")
	assert.Contains(t, captured.msg, "line one<br>line two")
	assert.Contains(t, captured.msg, "https://bucket.example.com/contact/1.png")
}

func TestSMTPMailer_SendFailure(t *testing.T) {
	m, _ := newTestMailer(errors.New("550 relay denied"))

	err := m.SendPasswordReset(context.Background(), "ann@example.com", "https://x")

	assert.Error(t, err)
}

func TestSMTPMailer_ContextCancelled(t *testing.T) {
	m, _ := newTestMailer(nil)
	block := make(chan struct{})
	defer close(block)
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		<-block
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.SendPasswordReset(ctx, "ann@example.com", "https://x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	logger.Initialize(logger.Config{Level: "info", Format: "json", Output: &buf})
	t.Cleanup(func() { logger.Initialize(logger.Config{Level: "info", Format: "json"}) })

	var m Mailer = LogMailer{}
	assert.NoError(t, m.SendPasswordReset(context.Background(), "a@example.com", "https://shop/reset?token=RAWTOKEN0123"))
	assert.NoError(t, m.SendContact(context.Background(), ContactMessage{Name: "n"}))

	assert.NotContains(t, buf.String(), "RAWTOKEN0123")
	assert.Contains(t, buf.String(), "token=REDACTED")
}
