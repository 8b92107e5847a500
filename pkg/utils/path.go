package utils

import (
	"errors"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"unicode"
)

const maxFilenameLength = 255

// DefaultAllowedExtensions lists the attachment types officers may upload.
var DefaultAllowedExtensions = []string{
	".pdf", ".jpg", ".jpeg", ".png", ".txt", ".csv", ".doc", ".docx", ".xls", ".xlsx", ".mp4",
}

var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".mp4":  "video/mp4",
}

var (
	ErrEmptyFilename   = errors.New("file name is required")
	ErrInvalidFilename = errors.New("file name contains invalid characters")
	ErrPathTraversal   = errors.New("file name must not contain path segments")
	ErrFilenameTooLong = errors.New("file name is too long")
)

// ValidatePath reports whether p is a relative path that stays inside its
// root. Percent-encoded input is decoded before checking; NUL bytes and
// backslashes are rejected outright.
func ValidatePath(p string) bool {
	if decoded, err := url.PathUnescape(p); err == nil {
		p = decoded
	} else {
		return false
	}
	if p == "" || strings.ContainsAny(p, "\x00\\") {
		return false
	}
	if strings.HasPrefix(p, "/") {
		return false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return false
		}
	}
	cleaned := path.Clean(p)
	return cleaned != ".." && !strings.HasPrefix(cleaned, "../")
}

// SanitizeFilename reduces an uploaded file name to a safe base name.
// Names that try to escape a directory are rejected rather than rewritten.
func SanitizeFilename(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyFilename
	}
	if strings.ContainsRune(name, 0) {
		return "", ErrInvalidFilename
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", ErrPathTraversal
	}

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return -1
		case strings.ContainsRune(`<>:"|?*`, r):
			return '_'
		}
		return r
	}, name)
	cleaned = strings.TrimLeft(cleaned, ".")
	if cleaned == "" {
		return "", ErrInvalidFilename
	}
	if len(cleaned) > maxFilenameLength {
		return "", ErrFilenameTooLong
	}
	return cleaned, nil
}

// GetExtension returns the lower-cased file extension.
func GetExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// IsAllowedExtension checks if a file extension is allowed. Entries may be
// written with or without the leading dot.
func IsAllowedExtension(filename string, allowed []string) bool {
	ext := GetExtension(filename)
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		a = strings.ToLower(a)
		if ext == a || ext == "."+a {
			return true
		}
	}
	return false
}

// GetMimeType returns MIME type based on extension
func GetMimeType(filename string) string {
	if mime, ok := mimeTypes[GetExtension(filename)]; ok {
		return mime
	}
	return "application/octet-stream"
}
