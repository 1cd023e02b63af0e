package session

import (
	"os"
	"sync"
	"time"

	"heiconv/internal/models"
)

// Store is the process-wide session registry. It exclusively owns the
// records and the files they reference; entries are lost on restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*models.Session)}
}

// Create registers a freshly uploaded file under the caller-generated id
// and returns a snapshot of the new session record.
func (s *Store) Create(id, uploadedPath, originalFilename string, size int64) *models.Session {
	now := time.Now().UTC()
	sess := &models.Session{
		ID:               id,
		OriginalFilename: originalFilename,
		UploadedPath:     uploadedPath,
		Status:           models.StatusUploaded,
		Size:             size,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	snapshot := *sess
	return &snapshot
}

// Get returns a snapshot of the session, if present.
func (s *Store) Get(id string) (*models.Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.RUnlock()
		return nil, false
	}
	snapshot := *sess
	s.mu.RUnlock()
	return &snapshot, true
}

// Update mutates the session under the store lock and stamps UpdatedAt.
// It returns the post-mutation snapshot, or false when the id is unknown.
func (s *Store) Update(id string, fn func(*models.Session)) (*models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	fn(sess)
	sess.UpdatedAt = time.Now().UTC()
	snapshot := *sess
	return &snapshot, true
}

// Transition moves the session from one status to the next in a single
// locked step. It returns (nil, false) for an unknown id, and the current
// snapshot with false when the session is not in the expected status.
func (s *Store) Transition(id string, from, to models.Status) (*models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if sess.Status != from {
		snapshot := *sess
		return &snapshot, false
	}
	sess.Status = to
	sess.UpdatedAt = time.Now().UTC()
	snapshot := *sess
	return &snapshot, true
}

// Delete removes the record and unlinks both referenced files. File
// removal is best-effort; a missing id is not an error.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	removeIfSet(sess.UploadedPath)
	removeIfSet(sess.ConvertedPath)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// snapshotAll returns copies of every live session, for the janitor.
func (s *Store) snapshotAll() []models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, *sess)
	}
	return out
}

// ownsFile reports whether any live session references the given path.
func (s *Store) ownsFile(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.UploadedPath == path || sess.ConvertedPath == path {
			return true
		}
	}
	return false
}

func removeIfSet(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
