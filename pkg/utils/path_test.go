package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePath(t *testing.T) {
	t.Run("should accept object keys", func(t *testing.T) {
		assert.True(t, ValidatePath("5b0c/2024/03/01/8a9e"))
		assert.True(t, ValidatePath("reports/fir.pdf"))
	})

	t.Run("should reject traversal", func(t *testing.T) {
		assert.False(t, ValidatePath("../etc/passwd"))
		assert.False(t, ValidatePath("files/../../etc/passwd"))
		assert.False(t, ValidatePath("files/./../../etc/passwd"))
		assert.False(t, ValidatePath("/etc/passwd"))
	})

	t.Run("should detect URL-encoded traversal", func(t *testing.T) {
		assert.False(t, ValidatePath("%2e%2e%2f%2e%2e%2fetc%2fpasswd"))
		assert.False(t, ValidatePath("%2e%2e/etc/passwd"))
		assert.False(t, ValidatePath("%zz"))
	})

	t.Run("should detect null bytes and backslashes", func(t *testing.T) {
		assert.False(t, ValidatePath("files/evil.php\x00.jpg"))
		assert.False(t, ValidatePath(`files\..\secret`))
		assert.False(t, ValidatePath(""))
	})
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		err  error
	}{
		{"plain", "FIR-2024-118.pdf", "FIR-2024-118.pdf", nil},
		{"trims spaces", "  report.docx ", "report.docx", nil},
		{"replaces reserved characters", `case:12|a?.txt`, "case_12_a_.txt", nil},
		{"drops leading dots", ".hidden.png", "hidden.png", nil},
		{"empty", "   ", "", ErrEmptyFilename},
		{"null byte", "evil.php\x00.jpg", "", ErrInvalidFilename},
		{"traversal", "../../etc/passwd", "", ErrPathTraversal},
		{"encoded traversal", "%2e%2e%2fpasswd", "", ErrPathTraversal},
		{"windows separator", `..\boot.ini`, "", ErrPathTraversal},
		{"only dots", "...", "", ErrInvalidFilename},
		{"too long", strings.Repeat("a", 300) + ".pdf", "", ErrFilenameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFilename(tt.in)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsAllowedExtension(t *testing.T) {
	assert.True(t, IsAllowedExtension("scan.PDF", DefaultAllowedExtensions))
	assert.True(t, IsAllowedExtension("photo.jpg", []string{"jpg"}))
	assert.False(t, IsAllowedExtension("payload.exe", DefaultAllowedExtensions))
	assert.False(t, IsAllowedExtension("README", DefaultAllowedExtensions))
}

func TestGetMimeType(t *testing.T) {
	assert.Equal(t, "application/pdf", GetMimeType("fir.pdf"))
	assert.Equal(t, "image/jpeg", GetMimeType("Photo.JPEG"))
	assert.Equal(t, "application/octet-stream", GetMimeType("blob.bin"))
}
