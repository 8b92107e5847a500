package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terminal-bench/policedash/pkg/crypto"
	"github.com/terminal-bench/policedash/pkg/utils"
)

func newTestService(max int64) (*Service, *MemoryBackend) {
	backend := NewMemoryBackend()
	svc := NewService(backend, max)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	return svc, backend
}

func TestUpload(t *testing.T) {
	ctx := context.Background()
	officer := uuid.New()

	t.Run("should store and checksum", func(t *testing.T) {
		svc, backend := newTestService(1024)
		content := []byte("FIR 118/2024 Kandukur PS")

		att, err := svc.Upload(ctx, officer, bytes.NewReader(content), int64(len(content)), "fir-118.pdf")
		require.NoError(t, err)

		sum := sha256.Sum256(content)
		assert.Equal(t, hex.EncodeToString(sum[:]), att.Checksum)
		assert.Equal(t, "application/pdf", att.MimeType)
		assert.Equal(t, officer, att.UploadedBy)
		assert.True(t, strings.HasPrefix(att.StorageKey, officer.String()+"/2024/03/01/"))
		assert.Equal(t, 1, backend.Len())

		rc, err := svc.Download(ctx, att.StorageKey)
		require.NoError(t, err)
		defer rc.Close()
		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("should reject oversized files", func(t *testing.T) {
		svc, backend := newTestService(4)
		_, err := svc.Upload(ctx, officer, strings.NewReader("too large"), 9, "a.txt")
		assert.ErrorIs(t, err, ErrTooLarge)
		assert.Equal(t, 0, backend.Len())
	})

	t.Run("should reject empty files", func(t *testing.T) {
		svc, backend := newTestService(1024)
		_, err := svc.Upload(ctx, officer, strings.NewReader(""), 0, "empty.txt")
		assert.ErrorIs(t, err, ErrEmptyFile)
		assert.Equal(t, 0, backend.Len())
	})

	t.Run("should reject disallowed extensions", func(t *testing.T) {
		svc, _ := newTestService(1024)
		_, err := svc.Upload(ctx, officer, strings.NewReader("MZ"), 2, "tool.exe")
		assert.ErrorIs(t, err, ErrExtensionNotAllowed)
	})

	t.Run("should reject unsafe names", func(t *testing.T) {
		svc, _ := newTestService(1024)
		_, err := svc.Upload(ctx, officer, strings.NewReader("x"), 1, "../../etc/passwd.txt")
		assert.ErrorIs(t, err, utils.ErrPathTraversal)
	})

	t.Run("should fail on short bodies", func(t *testing.T) {
		svc, backend := newTestService(1024)
		_, err := svc.Upload(ctx, officer, strings.NewReader("abc"), 10, "a.txt")
		assert.Error(t, err)
		assert.Equal(t, 0, backend.Len())
	})
}

func TestDownloadAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, backend := newTestService(1024)

	_, err := svc.Download(ctx, "../secrets")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = svc.Download(ctx, "missing/key")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	att, err := svc.Upload(ctx, uuid.New(), strings.NewReader("memo"), 4, "memo.txt")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, att.StorageKey))
	assert.Equal(t, 0, backend.Len())
	assert.ErrorIs(t, svc.Delete(ctx, "/abs"), ErrInvalidKey)
}

func TestNewMinioBackendRequiresConfig(t *testing.T) {
	_, err := NewMinioBackend(context.Background(), nil)
	assert.Error(t, err)
}

func TestEncryptedBackend(t *testing.T) {
	ctx := context.Background()
	enc, err := crypto.NewEncryptor("attachment-secret-for-tests")
	require.NoError(t, err)

	inner := NewMemoryBackend()
	svc := NewService(NewEncryptedBackend(inner, enc), 1024)
	content := "panchanama of seized items"

	att, err := svc.Upload(ctx, uuid.New(), strings.NewReader(content), int64(len(content)), "seizure.txt")
	require.NoError(t, err)
	sum := sha256.Sum256([]byte(content))
	assert.Equal(t, hex.EncodeToString(sum[:]), att.Checksum)

	t.Run("should store ciphertext only", func(t *testing.T) {
		raw, err := inner.Get(ctx, att.StorageKey)
		require.NoError(t, err)
		data, err := io.ReadAll(raw)
		require.NoError(t, err)
		assert.Len(t, data, len(content)+enc.Overhead())
		assert.NotContains(t, string(data), content)
	})

	t.Run("should decrypt on download", func(t *testing.T) {
		rc, err := svc.Download(ctx, att.StorageKey)
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, content, string(data))
	})

	t.Run("should detect objects moved between keys", func(t *testing.T) {
		raw, err := inner.Get(ctx, att.StorageKey)
		require.NoError(t, err)
		data, err := io.ReadAll(raw)
		require.NoError(t, err)
		require.NoError(t, inner.Put(ctx, "other/key", bytes.NewReader(data), int64(len(data)), ""))

		_, err = svc.Download(ctx, "other/key")
		assert.ErrorIs(t, err, crypto.ErrDecrypt)
	})

	t.Run("should pass through missing objects", func(t *testing.T) {
		_, err := svc.Download(ctx, "missing/key")
		assert.ErrorIs(t, err, ErrObjectNotFound)
	})
}
