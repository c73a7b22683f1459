package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"docportal/internal/logging"
	"docportal/internal/model"
	"docportal/internal/storage"
)

const (
	// DefaultMaxImageBytes is the largest signature image accepted.
	DefaultMaxImageBytes int64 = 1024 * 1024

	imageURLExpiry = 15 * time.Minute
)

// SignatureImageURL is a short-lived link to the caller's signature image.
type SignatureImageURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignatureImageService manages the PNG image used for custom signature appearances.
type SignatureImageService interface {
	Put(ctx context.Context, user model.User, r io.Reader) error
	URL(ctx context.Context, user model.User) (*SignatureImageURL, error)
	Delete(ctx context.Context, user model.User) error
}

type signatureImageService struct {
	store    storage.Storage
	log      *logging.Logger
	maxBytes int64
	now      func() time.Time
}

// NewSignatureImageService constructs the service. A nil store disables every operation
// with ErrStorageDisabled.
func NewSignatureImageService(store storage.Storage, log *logging.Logger, maxBytes int64) SignatureImageService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &signatureImageService{
		store:    store,
		log:      log.With(map[string]any{"component": "signature_image"}),
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

func (s *signatureImageService) Put(ctx context.Context, user model.User, r io.Reader) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	if r == nil {
		return invalid("file", "image is required")
	}
	img, ok, err := readAllLimited(r, s.maxBytes)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	if !ok {
		return invalid("file", fmt.Sprintf("image exceeds the maximum size of %d bytes", s.maxBytes))
	}
	if len(img) == 0 || http.DetectContentType(img) != "image/png" {
		return invalid("file", "image must be a PNG")
	}

	key := storage.SignatureImageKey(user.ID)
	if _, err := s.store.Put(ctx, key, bytes.NewReader(img), storage.PutObjectOptions{
		Size:        int64(len(img)),
		ContentType: "image/png",
		Metadata:    map[string]string{"user-id": user.ID},
	}); err != nil {
		return fmt.Errorf("store signature image: %w", err)
	}
	s.log.Info("signature_image_stored", map[string]any{"user_id": user.ID, "size": len(img)})
	return nil
}

func (s *signatureImageService) URL(ctx context.Context, user model.User) (*SignatureImageURL, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	u, err := s.store.PresignGet(ctx, storage.SignatureImageKey(user.ID), imageURLExpiry)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &SignatureImageURL{URL: u, ExpiresAt: s.now().UTC().Add(imageURLExpiry)}, nil
}

func (s *signatureImageService) Delete(ctx context.Context, user model.User) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	return s.store.Delete(ctx, storage.SignatureImageKey(user.ID))
}
