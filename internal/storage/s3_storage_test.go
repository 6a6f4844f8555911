package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/ikkim/storefront-backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T, baseURL string) *S3Storage {
	t.Helper()
	s, err := NewS3Storage(context.Background(), &config.S3Config{
		Region:          "us-east-1",
		Bucket:          "shop-attachments",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
		BaseURL:         baseURL,
	})
	require.NoError(t, err)
	return s
}

func TestNewS3Storage_RequiresBucket(t *testing.T) {
	_, err := NewS3Storage(context.Background(), &config.S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}

func TestPresignAttachmentUpload(t *testing.T) {
	s := newTestStorage(t, "")

	upload, err := s.PresignAttachmentUpload(context.Background(), "Reference.PNG", "image/png")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(upload.Key, "contact/"))
	assert.True(t, strings.HasSuffix(upload.Key, ".png"))
	assert.Contains(t, upload.UploadURL, "shop-attachments")
	assert.Contains(t, upload.UploadURL, upload.Key)
	assert.Contains(t, upload.UploadURL, "X-Amz-Signature=")
	assert.Equal(t, "https://shop-attachments.s3.us-east-1.amazonaws.com/"+upload.Key, upload.FileURL)
}

func TestPresignAttachmentUpload_BaseURL(t *testing.T) {
	s := newTestStorage(t, "https://cdn.example.com/")

	upload, err := s.PresignAttachmentUpload(context.Background(), "notes.txt", "text/plain")

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/"+upload.Key, upload.FileURL)
}

func TestPresignAttachmentUpload_RejectsContentType(t *testing.T) {
	s := newTestStorage(t, "")

	_, err := s.PresignAttachmentUpload(context.Background(), "run.exe", "application/x-msdownload")

	assert.ErrorIs(t, err, ErrContentTypeNotAllowed)
}
