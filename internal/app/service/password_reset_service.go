package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/mail"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrInvalidResetToken   = errors.New("password reset token is invalid or has expired")
	ErrInvalidResetInput   = errors.New("invalid password reset input")
	ErrResetDeliveryFailed = errors.New("password reset email could not be sent")
)

// DefaultResetTokenTTL is how long a mailed reset link stays usable.
const DefaultResetTokenTTL = time.Hour

type PasswordResetService interface {
	IssueResetToken(ctx context.Context, email string) error
	ConsumeResetToken(ctx context.Context, rawToken, newPassword string) error
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

type ResetConfig struct {
	ResetURLBase string
	TokenTTL     time.Duration
	Now          func() time.Time
}

type passwordResetService struct {
	userRepo repository.UserRepository
	mailer   mail.Mailer
	urlBase  string
	ttl      time.Duration
	now      func() time.Time
}

func NewPasswordResetService(userRepo repository.UserRepository, mailer mail.Mailer, cfg ResetConfig) PasswordResetService {
	s := &passwordResetService{
		userRepo: userRepo,
		mailer:   mailer,
		urlBase:  cfg.ResetURLBase,
		ttl:      cfg.TokenTTL,
		now:      cfg.Now,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultResetTokenTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// IssueResetToken mails a single-use reset link to email. An unknown email is
// not an error, so callers answer both cases identically.
func (s *passwordResetService) IssueResetToken(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidResetInput)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Password reset requested for unknown email", nil)
			return nil
		}
		return fmt.Errorf("find user for reset: %w", err)
	}

	raw, err := util.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	expires := s.now().UTC().Add(s.ttl)
	if err := s.userRepo.SetResetToken(ctx, user.ID, util.HashResetToken(raw), expires); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, s.resetURL(raw)); err != nil {
		logger.Error("Failed to deliver password reset email", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return ErrResetDeliveryFailed
	}

	logger.Info("Password reset token issued", map[string]interface{}{
		"user_id":    user.ID,
		"expires_at": expires,
	})
	return nil
}

func (s *passwordResetService) resetURL(raw string) string {
	sep := "?"
	if strings.Contains(s.urlBase, "?") {
		sep = "&"
	}
	return s.urlBase + sep + "token=" + url.QueryEscape(raw)
}

// ConsumeResetToken sets newPassword for the holder of rawToken. Wrong,
// expired and already used tokens all return ErrInvalidResetToken.
func (s *passwordResetService) ConsumeResetToken(ctx context.Context, rawToken, newPassword string) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return fmt.Errorf("%w: token is required", ErrInvalidResetInput)
	}
	if err := util.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResetInput, err)
	}

	passwordHash, err := util.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResetInput, err)
	}

	ok, err := s.userRepo.ConsumeResetToken(ctx, util.HashResetToken(rawToken), passwordHash, s.now().UTC())
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if !ok {
		logger.Warn("Invalid or expired reset token presented", nil)
		return ErrInvalidResetToken
	}

	logger.Info("Password reset completed", nil)
	return nil
}

// PurgeExpiredTokens clears lapsed token pairs. Expiry is enforced when a
// token is consumed, so this only keeps the table tidy.
func (s *passwordResetService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.userRepo.ClearExpiredResetTokens(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge expired reset tokens: %w", err)
	}
	if n > 0 {
		logger.Info("Expired reset tokens purged", map[string]interface{}{
			"count": n,
		})
	}
	return n, nil
}
