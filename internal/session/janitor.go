package session

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"heiconv/internal/models"
)

const (
	DefaultSessionTTL      = time.Hour
	DefaultCleanupInterval = 10 * time.Minute
)

// StartJanitor launches the background cleaner. It expires sessions idle
// beyond ttl and sweeps uploadDir for stale files no live session owns
// (leftovers from a previous process life).
func (s *Store) StartJanitor(ctx context.Context, uploadDir string, ttl, interval time.Duration) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	go s.janitorLoop(ctx, uploadDir, ttl, interval)
}

func (s *Store) janitorLoop(ctx context.Context, uploadDir string, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.expireIdleSessions(ttl)
			if err := s.sweepOrphans(uploadDir, ttl); err != nil {
				log.Printf("sweep upload dir error: %v", err)
			}
		}
	}
}

func (s *Store) expireIdleSessions(ttl time.Duration) {
	cutoff := time.Now().UTC().Add(-ttl)
	for _, sess := range s.snapshotAll() {
		// A converting session is mid-request; leave it to its handler.
		if sess.Status == models.StatusConverting {
			continue
		}
		if sess.UpdatedAt.Before(cutoff) {
			log.Printf("expiring idle session %s (%s)", sess.ID, sess.Status)
			s.Delete(sess.ID)
		}
	}
}

// sweepOrphans removes upload-dir files older than ttl that no live
// session references.
func (s *Store) sweepOrphans(uploadDir string, ttl time.Duration) error {
	if uploadDir == "" {
		return nil
	}
	entries, err := os.ReadDir(uploadDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	cutoff := time.Now().Add(-ttl)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(uploadDir, entry.Name())
		if s.ownsFile(path) {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove orphan file %s failed: %v", path, err)
		}
	}
	return nil
}
