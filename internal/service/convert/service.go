package convert

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"heiconv/internal/codec"
	"heiconv/internal/models"
	"heiconv/internal/session"
)

// Recorder persists the per-conversion audit row. A nil Recorder disables
// history.
type Recorder interface {
	RecordConversion(ctx context.Context, rec models.ConversionRecord) (int64, error)
}

// Service orchestrates the upload, convert, download and clear steps of
// the pipeline.
type Service struct {
	store     *session.Store
	codec     codec.Adapter
	history   Recorder
	uploadDir string
	maxBytes  int64
}

// NewService wires the pipeline together and ensures the upload directory
// exists.
func NewService(store *session.Store, adapter codec.Adapter, history Recorder, uploadDir string, maxBytes int64) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if adapter == nil {
		return nil, fmt.Errorf("codec adapter is required")
	}
	if uploadDir == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Service{
		store:     store,
		codec:     adapter,
		history:   history,
		uploadDir: uploadDir,
		maxBytes:  maxBytes,
	}, nil
}

// Status returns a snapshot of the session.
func (s *Service) Status(id string) (*models.Session, error) {
	sess, ok := s.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// StartSessionCleaner launches the background janitor for idle sessions
// and orphaned upload files.
func (s *Service) StartSessionCleaner(ctx context.Context, ttl, interval time.Duration) {
	s.store.StartJanitor(ctx, s.uploadDir, ttl, interval)
}

func (s *Service) recordOutcome(ctx context.Context, rec models.ConversionRecord) {
	if s.history == nil {
		return
	}
	if _, err := s.history.RecordConversion(ctx, rec); err != nil {
		// History is an audit trail; losing a row must not fail the request.
		log.Printf("record conversion failed: %v", err)
	}
}
