package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"heiconv/internal/models"
)

// Convert runs the codec for the session's uploaded file. Exactly one
// conversion is allowed per session: uploaded -> converting ->
// {completed | error}. The converting state only lasts for the duration
// of this call, and only the caller that wins the uploaded -> converting
// transition runs the codec.
func (s *Service) Convert(ctx context.Context, id string, format models.OutputFormat, stripMetadata bool) (*models.Session, error) {
	sess, claimed := s.store.Transition(id, models.StatusUploaded, models.StatusConverting)
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	if !claimed {
		return nil, ErrInvalidState
	}

	started := time.Now()
	outPath, outBytes, err := s.runCodec(sess.UploadedPath, id, format, stripMetadata)
	rec := models.ConversionRecord{
		SessionID:        id,
		OriginalFilename: sess.OriginalFilename,
		OutputFormat:     format,
		StripMetadata:    stripMetadata,
		InputBytes:       sess.Size,
		OutputBytes:      outBytes,
		DurationMS:       time.Since(started).Milliseconds(),
	}
	if err != nil {
		s.store.Update(id, func(m *models.Session) {
			m.Status = models.StatusError
			m.ErrorDetail = err.Error()
		})
		rec.Outcome = string(models.StatusError)
		rec.Detail = err.Error()
		s.recordOutcome(ctx, rec)
		return nil, err
	}

	updated, ok := s.store.Update(id, func(m *models.Session) {
		m.Status = models.StatusCompleted
		m.ConvertedPath = outPath
		m.OutputFormat = format
	})
	if !ok {
		// The session was cleared while the codec ran; nothing owns
		// the output file anymore.
		_ = os.Remove(outPath)
		return nil, ErrSessionNotFound
	}
	rec.Outcome = string(models.StatusCompleted)
	s.recordOutcome(ctx, rec)
	return updated, nil
}

func (s *Service) runCodec(uploadedPath, id string, format models.OutputFormat, stripMetadata bool) (string, int64, error) {
	src, err := os.Open(uploadedPath)
	if err != nil {
		return "", 0, fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close()

	decoded, err := s.codec.Decode(src)
	if err != nil {
		return "", 0, err
	}

	outPath := filepath.Join(s.uploadDir, id+"_out"+format.Ext())
	dst, err := os.Create(outPath)
	if err != nil {
		return "", 0, fmt.Errorf("create output file: %w", err)
	}
	if err := s.codec.Encode(dst, decoded, format, stripMetadata); err != nil {
		dst.Close()
		_ = os.Remove(outPath)
		return "", 0, err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(outPath)
		return "", 0, fmt.Errorf("close output file: %w", err)
	}
	info, err := os.Stat(outPath)
	if err != nil {
		return "", 0, fmt.Errorf("stat output file: %w", err)
	}
	return outPath, info.Size(), nil
}
