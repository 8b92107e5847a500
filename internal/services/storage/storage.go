package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/terminal-bench/policedash/internal/models"
	"github.com/terminal-bench/policedash/pkg/utils"
)

var (
	ErrEmptyFile           = errors.New("file is empty")
	ErrTooLarge            = errors.New("file exceeds the maximum upload size")
	ErrExtensionNotAllowed = errors.New("file type is not allowed")
	ErrInvalidKey          = errors.New("invalid storage key")
	ErrObjectNotFound      = errors.New("stored object not found")
)

// Backend stores attachment bytes under opaque keys.
type Backend interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// Service handles attachment storage operations
type Service struct {
	backend     Backend
	maxFileSize int64
	allowed     []string
	now         func() time.Time
}

// NewService creates a storage service over backend.
func NewService(backend Backend, maxFileSize int64) *Service {
	return &Service{
		backend:     backend,
		maxFileSize: maxFileSize,
		allowed:     utils.DefaultAllowedExtensions,
		now:         time.Now,
	}
}

// MaxFileSize is the largest accepted upload in bytes.
func (s *Service) MaxFileSize() int64 { return s.maxFileSize }

// StorageKey builds the object key for a new upload by an officer.
func StorageKey(officerID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s/%s/%s", officerID.String(), at.UTC().Format("2006/01/02"), uuid.New().String())
}

// Upload stores size bytes from reader and returns the attachment metadata
// (not yet recorded in any store).
func (s *Service) Upload(ctx context.Context, officerID uuid.UUID, reader io.Reader, size int64, filename string) (*models.Attachment, error) {
	name, err := utils.SanitizeFilename(filename)
	if err != nil {
		return nil, err
	}
	if !utils.IsAllowedExtension(name, s.allowed) {
		return nil, fmt.Errorf("%w: %s", ErrExtensionNotAllowed, utils.GetExtension(name))
	}
	if size <= 0 {
		return nil, ErrEmptyFile
	}
	if size > s.maxFileSize {
		return nil, ErrTooLarge
	}

	now := s.now()
	key := StorageKey(officerID, now)
	mime := utils.GetMimeType(name)

	hasher := sha256.New()
	body := io.TeeReader(io.LimitReader(reader, size), hasher)
	if err := s.backend.Put(ctx, key, body, size, mime); err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	return &models.Attachment{
		ID:         uuid.New(),
		UploadedBy: officerID,
		Name:       name,
		Size:       size,
		MimeType:   mime,
		Checksum:   hex.EncodeToString(hasher.Sum(nil)),
		StorageKey: key,
		CreatedAt:  now,
	}, nil
}

// Download opens a stored object.
func (s *Service) Download(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if !utils.ValidatePath(storageKey) {
		return nil, ErrInvalidKey
	}
	return s.backend.Get(ctx, storageKey)
}

// Delete removes a stored object.
func (s *Service) Delete(ctx context.Context, storageKey string) error {
	if !utils.ValidatePath(storageKey) {
		return ErrInvalidKey
	}
	return s.backend.Remove(ctx, storageKey)
}
