package convert

import (
	"path/filepath"
	"strings"

	"heiconv/internal/models"
)

// DownloadInfo names the file to stream back for a completed session.
type DownloadInfo struct {
	Path     string
	Filename string
	MIME     string
}

// Download resolves the converted file for the session. The download
// filename is the original base name with the extension swapped to the
// output format's.
func (s *Service) Download(id string) (*DownloadInfo, error) {
	sess, ok := s.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.Status != models.StatusCompleted || sess.ConvertedPath == "" {
		return nil, ErrNotReady
	}
	base := strings.TrimSuffix(sess.OriginalFilename, filepath.Ext(sess.OriginalFilename))
	return &DownloadInfo{
		Path:     sess.ConvertedPath,
		Filename: base + sess.OutputFormat.Ext(),
		MIME:     sess.OutputFormat.MIME(),
	}, nil
}
