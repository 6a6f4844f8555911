package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

// ResetRequestedMessage is returned whether or not the account exists.
const ResetRequestedMessage = "If an account with that email exists, a password reset link has been sent."

type PasswordResetController struct {
	resetService service.PasswordResetService
}

func NewPasswordResetController(resetService service.PasswordResetService) *PasswordResetController {
	return &PasswordResetController{
		resetService: resetService,
	}
}

type RequestPasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ConfirmPasswordResetRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// RequestPasswordReset mails a reset link
// POST /api/auth/request-password-reset
func (ctrl *PasswordResetController) RequestPasswordReset(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RequestPasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	if err := ctrl.resetService.IssueResetToken(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrInvalidResetInput) {
			apperrors.BadRequest(c, apperrors.ValidationRequired, "Email is required.")
			return
		}
		log.Error("Password reset request failed", err, nil)
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.InternalMailError,
			"We could not process your password reset request. Please try again later.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": ResetRequestedMessage})
}

// ConfirmPasswordReset sets a new password using a mailed token
// POST /api/auth/confirm-password-reset
func (ctrl *PasswordResetController) ConfirmPasswordReset(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ConfirmPasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	err := ctrl.resetService.ConsumeResetToken(c.Request.Context(), req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidResetToken):
			apperrors.BadRequest(c, apperrors.ResetTokenInvalid, "Password reset token is invalid or has expired.")
		case errors.Is(err, service.ErrInvalidResetInput):
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Password must be at least 6 characters.")
		default:
			log.Error("Password reset confirmation failed", err, nil)
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset successfully."})
}
