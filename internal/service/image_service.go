// Package service contains business logic layered between handlers and the
// remote backend.
package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"quill/internal/config"
	"quill/internal/models"
	"quill/internal/observability"

	"github.com/google/uuid"

	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	DefaultImageMaxSizeMB = 10
	DefaultStorageBucket  = "post-images"
)

// ObjectStore is the storage surface of the remote backend client.
type ObjectStore interface {
	UploadObject(ctx context.Context, bucket, name, contentType string, data []byte) (string, error)
	RemoveObject(ctx context.Context, bucket, name string) error
}

// AttachImageInput carries one uploaded image payload.
type AttachImageInput struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ImageService manages the post image attachment lifecycle. Every operation
// is best effort: failures are logged and surfaced to the caller, but callers
// never let them block the primary post mutation.
type ImageService struct {
	store        ObjectStore
	bucket       string
	maxSizeBytes int64
	logger       *slog.Logger
}

// NewImageService creates an image service over the given object store.
func NewImageService(store ObjectStore, cfg *config.Config) *ImageService {
	bucket := DefaultStorageBucket
	maxSizeMB := DefaultImageMaxSizeMB

	if cfg != nil {
		if cfg.StorageBucket != "" {
			bucket = cfg.StorageBucket
		}
		if cfg.ImageMaxSizeMB > 0 {
			maxSizeMB = cfg.ImageMaxSizeMB
		}
	}

	return &ImageService{
		store:        store,
		bucket:       bucket,
		maxSizeBytes: int64(maxSizeMB) * 1024 * 1024,
		logger:       observability.GlobalLogger.Logger,
	}
}

// Attach validates and uploads an image, returning its public URL. A globally
// unique object name is generated from a random identifier plus the original
// extension.
func (s *ImageService) Attach(ctx context.Context, in AttachImageInput) (string, error) {
	if len(in.Content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxSizeBytes {
		return "", models.NewValidationError(
			fmt.Sprintf("File too large (max %dMB)", s.maxSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !strings.HasPrefix(detectedType, "image/") {
		return "", models.NewValidationError("Invalid image type")
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(in.Content)); err != nil {
		return "", models.NewValidationError("Invalid image file")
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = detectedType
	}

	name := uuid.New().String() + strings.ToLower(filepath.Ext(in.Filename))
	url, err := s.store.UploadObject(ctx, s.bucket, name, contentType, in.Content)
	if err != nil {
		s.logger.ErrorContext(ctx, "image upload failed",
			slog.String("object", name),
			slog.String("error", err.Error()),
		)
		return "", err
	}

	s.logger.InfoContext(ctx, "image uploaded",
		slog.String("object", name),
		slog.String("url", url),
	)
	return url, nil
}

// Remove deletes the stored object behind a public URL. Unknown URLs and
// storage failures are logged; callers treat the delete as advisory.
func (s *ImageService) Remove(ctx context.Context, imageURL string) error {
	name, ok := s.objectName(imageURL)
	if !ok {
		s.logger.WarnContext(ctx, "image url not in managed bucket, skipping delete",
			slog.String("url", imageURL))
		return nil
	}

	if err := s.store.RemoveObject(ctx, s.bucket, name); err != nil {
		s.logger.ErrorContext(ctx, "image delete failed",
			slog.String("object", name),
			slog.String("error", err.Error()),
		)
		return err
	}

	s.logger.InfoContext(ctx, "image deleted", slog.String("object", name))
	return nil
}

// objectName extracts the object name from a public URL in this service's
// bucket.
func (s *ImageService) objectName(imageURL string) (string, bool) {
	marker := "/object/public/" + s.bucket + "/"
	idx := strings.Index(imageURL, marker)
	if idx < 0 {
		return "", false
	}
	name := imageURL[idx+len(marker):]
	if name == "" {
		return "", false
	}
	return name, true
}
