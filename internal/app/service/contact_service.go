package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"

	appmail "github.com/ikkim/storefront-backend/internal/mail"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

var (
	ErrInvalidContactInput = errors.New("invalid contact form")
	ErrContactDelivery     = errors.New("contact message could not be sent")
)

type ContactService interface {
	Send(ctx context.Context, msg appmail.ContactMessage) error
}

type contactService struct {
	mailer appmail.Mailer
}

func NewContactService(mailer appmail.Mailer) ContactService {
	return &contactService{mailer: mailer}
}

func (s *contactService) Send(ctx context.Context, msg appmail.ContactMessage) error {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Subject = strings.TrimSpace(msg.Subject)
	msg.AttachmentURL = strings.TrimSpace(msg.AttachmentURL)

	if msg.Name == "" || msg.Email == "" || msg.Subject == "" || strings.TrimSpace(msg.Message) == "" {
		return fmt.Errorf("%w: all fields are required", ErrInvalidContactInput)
	}
	if _, err := mail.ParseAddress(msg.Email); err != nil {
		return fmt.Errorf("%w: email is not valid", ErrInvalidContactInput)
	}
	if msg.AttachmentURL != "" {
		u, err := url.Parse(msg.AttachmentURL)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return fmt.Errorf("%w: attachment_url must be an http(s) URL", ErrInvalidContactInput)
		}
	}

	if err := s.mailer.SendContact(ctx, msg); err != nil {
		logger.Error("Failed to send contact message", err, nil)
		return ErrContactDelivery
	}

	logger.Info("Contact message sent", map[string]interface{}{
		"subject":        msg.Subject,
		"has_attachment": msg.AttachmentURL != "",
	})
	return nil
}
