package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidAccountData = errors.New("invalid account data")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// TokenBlacklist records revoked token ids until they would have expired.
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, tokenID string, expiry time.Duration) error
	IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

type AuthService interface {
	Signup(ctx context.Context, username, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, *util.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	Logout(ctx context.Context, accessClaims *util.Claims, refreshToken string) error
	GetUserByID(ctx context.Context, id uint) (*model.User, error)
	UpdateEmail(ctx context.Context, userID uint, newEmail string) (*model.User, error)
	UpdatePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error
}

type authService struct {
	userRepo      repository.UserRepository
	blacklist     TokenBlacklist
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewAuthService builds the account service. blacklist may be nil, in which
// case logout is stateless and tokens live until they expire.
func NewAuthService(
	userRepo repository.UserRepository,
	blacklist TokenBlacklist,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		blacklist:     blacklist,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Signup(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: all fields are required", ErrInvalidAccountData)
	}
	if err := util.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}

	logger.Info("Attempting user signup", map[string]interface{}{
		"email": email,
	})

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hashed, err := util.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}

	user := &model.User{Username: username, Email: email, PasswordHash: hashed}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race with a concurrent signup for the same email
		if apperrors.IsDuplicateKey(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Info("User signed up", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*model.User, *util.TokenPair, error) {
	email = normalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("find user: %w", err)
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := util.GenerateTokenPair(user.ID, user.Email, s.jwtSecret, s.accessExpiry, s.refreshExpiry)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	logger.Info("User logged in", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, tokens, nil
}

// RefreshToken exchanges a valid refresh token for a new pair. With a
// blacklist configured the presented refresh token is revoked (rotation).
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateRefreshToken(refreshToken, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsTokenBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check token blacklist: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	user, err := s.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	tokens, err := util.GenerateTokenPair(user.ID, user.Email, s.jwtSecret, s.accessExpiry, s.refreshExpiry)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	if s.blacklist != nil {
		if err := s.blacklist.BlacklistToken(ctx, claims.ID, claims.RemainingTTL(time.Now())); err != nil {
			return nil, fmt.Errorf("revoke refresh token: %w", err)
		}
	}
	return tokens, nil
}

// Logout revokes the access token and, when given, the refresh token.
func (s *authService) Logout(ctx context.Context, accessClaims *util.Claims, refreshToken string) error {
	if s.blacklist == nil || accessClaims == nil {
		return nil
	}

	now := time.Now()
	if err := s.blacklist.BlacklistToken(ctx, accessClaims.ID, accessClaims.RemainingTTL(now)); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}

	if refreshToken != "" {
		claims, err := util.ValidateRefreshToken(refreshToken, s.jwtSecret)
		// an unusable refresh token needs no revocation
		if err == nil && claims.UserID == accessClaims.UserID {
			if err := s.blacklist.BlacklistToken(ctx, claims.ID, claims.RemainingTTL(now)); err != nil {
				return fmt.Errorf("revoke refresh token: %w", err)
			}
		}
	}

	logger.Info("User logged out", map[string]interface{}{
		"user_id": accessClaims.UserID,
	})
	return nil
}

func (s *authService) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *authService) UpdateEmail(ctx context.Context, userID uint, newEmail string) (*model.User, error) {
	newEmail = normalizeEmail(newEmail)
	if newEmail == "" {
		return nil, fmt.Errorf("%w: new email is required", ErrInvalidAccountData)
	}

	if err := s.userRepo.UpdateEmail(ctx, userID, newEmail); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrUserNotFound
		case apperrors.IsDuplicateKey(err):
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("update email: %w", err)
	}

	logger.Info("User email updated", map[string]interface{}{
		"user_id": userID,
	})
	return s.GetUserByID(ctx, userID)
}

func (s *authService) UpdatePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: all fields are required", ErrInvalidAccountData)
	}
	if err := util.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !util.VerifyPassword(user.PasswordHash, oldPassword) {
		return ErrInvalidCredentials
	}

	hashed, err := util.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hashed); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}

	logger.Info("User password updated", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}
