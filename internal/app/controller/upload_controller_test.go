package controller

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPresigner struct {
	err error
}

func (s *stubPresigner) PresignAttachmentUpload(ctx context.Context, filename, contentType string) (*storage.PresignedUpload, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &storage.PresignedUpload{
		UploadURL: "https://bucket.s3.amazonaws.com/contact/k.pdf?X-Amz-Signature=sig",
		FileURL:   "https://bucket.s3.amazonaws.com/contact/k.pdf",
		Key:       "contact/k.pdf",
		ExpiresAt: time.Date(2026, 3, 1, 12, 15, 0, 0, time.UTC),
	}, nil
}

func uploadRouter(presigner AttachmentPresigner) *gin.Engine {
	router := newTestRouter()
	router.POST("/api/upload/presigned-url", NewUploadController(presigner).GeneratePresignedURL)
	return router
}

func TestUploadController_GeneratePresignedURL(t *testing.T) {
	router := uploadRouter(&stubPresigner{})

	w := doJSON(t, router, http.MethodPost, "/api/upload/presigned-url", gin.H{"filename": "k.pdf", "content_type": "application/pdf"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "contact/k.pdf", body["key"])
	assert.Equal(t, "https://bucket.s3.amazonaws.com/contact/k.pdf", body["file_url"])
	assert.Contains(t, body["upload_url"], "X-Amz-Signature")
}

func TestUploadController_Errors(t *testing.T) {
	tests := []struct {
		name      string
		presigner AttachmentPresigner
		body      gin.H
		status    int
		code      string
	}{
		{"not configured", nil, gin.H{"filename": "a.png", "content_type": "image/png"}, http.StatusServiceUnavailable, "UPLOAD_FAILED"},
		{"missing filename", &stubPresigner{}, gin.H{"content_type": "image/png"}, http.StatusBadRequest, "VALIDATION_INVALID_INPUT"},
		{"type not allowed", &stubPresigner{err: storage.ErrContentTypeNotAllowed}, gin.H{"filename": "a.exe", "content_type": "application/x-msdownload"}, http.StatusBadRequest, "UPLOAD_INVALID_FILE_TYPE"},
		{"presign failure", &stubPresigner{err: errors.New("no credentials")}, gin.H{"filename": "a.png", "content_type": "image/png"}, http.StatusInternalServerError, "UPLOAD_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, uploadRouter(tt.presigner), http.MethodPost, "/api/upload/presigned-url", tt.body)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeBody(t, w)["error"])
		})
	}
}
