package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	appmail "github.com/ikkim/storefront-backend/internal/mail"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

type ContactController struct {
	contactService service.ContactService
}

func NewContactController(contactService service.ContactService) *ContactController {
	return &ContactController{
		contactService: contactService,
	}
}

type ContactRequest struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Subject       string `json:"subject" binding:"required"`
	Message       string `json:"message" binding:"required"`
	AttachmentURL string `json:"attachment_url"`
}

// SendMail forwards the contact form to the shop inbox
// POST /send_mail
func (ctrl *ContactController) SendMail(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	err := ctrl.contactService.Send(c.Request.Context(), appmail.ContactMessage{
		Name:          req.Name,
		Email:         req.Email,
		Subject:       req.Subject,
		Message:       req.Message,
		AttachmentURL: req.AttachmentURL,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidContactInput) {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, strings.TrimPrefix(err.Error(), service.ErrInvalidContactInput.Error()+": "))
			return
		}
		log.Error("Failed to send contact mail", err, nil)
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.InternalMailError, "Failed to send email")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email sent successfully"})
}
