package convert

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"heiconv/internal/models"
)

// SaveUpload validates and persists one incoming file, creating the
// session. On any failure nothing is persisted.
func (s *Service) SaveUpload(filename string, size int64, r io.Reader) (*models.Session, error) {
	name := sanitizeFilename(filename)
	if name == "" {
		return nil, &ValidationError{Reason: "No file selected"}
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".heic" && ext != ".heif" {
		return nil, &ValidationError{Reason: "Invalid file type. Only HEIC/HEIF files are supported."}
	}
	if size > s.maxBytes {
		return nil, &ValidationError{Reason: fmt.Sprintf("File too large. Maximum size is %d MB.", s.maxBytes>>20)}
	}

	id := uuid.NewString()
	path := filepath.Join(s.uploadDir, id+"_"+name)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	// The declared size is client-supplied; cap the copy so an oversized
	// body cannot sneak past the check above.
	written, err := io.Copy(dst, io.LimitReader(r, s.maxBytes+1))
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("save upload: %w", err)
	}
	if written > s.maxBytes {
		_ = os.Remove(path)
		return nil, &ValidationError{Reason: fmt.Sprintf("File too large. Maximum size is %d MB.", s.maxBytes>>20)}
	}
	if written == 0 {
		_ = os.Remove(path)
		return nil, &ValidationError{Reason: "No file provided"}
	}

	return s.store.Create(id, path, name, written), nil
}

// sanitizeFilename keeps the base name and replaces anything outside a
// conservative character set, mirroring werkzeug's secure_filename.
func sanitizeFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	cleaned := strings.Trim(b.String(), "._")
	if cleaned == "" {
		return ""
	}
	return cleaned
}
