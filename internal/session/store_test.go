package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"heiconv/internal/models"
)

func writeTempFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestStoreLifecycle(t *testing.T) {
	dir := t.TempDir()
	store := NewStore()

	uploaded := writeTempFile(t, dir, "a_photo.heic")
	sess := store.Create("sess-1", uploaded, "photo.heic", 7)
	if sess.ID == "" {
		t.Fatalf("expected generated session id")
	}
	if sess.Status != models.StatusUploaded {
		t.Fatalf("expected uploaded status, got %s", sess.Status)
	}

	got, ok := store.Get(sess.ID)
	if !ok || got.OriginalFilename != "photo.heic" {
		t.Fatalf("get returned %v ok=%v", got, ok)
	}

	converted := writeTempFile(t, dir, "a_out.jpg")
	got, ok = store.Update(sess.ID, func(s *models.Session) {
		s.Status = models.StatusCompleted
		s.ConvertedPath = converted
		s.OutputFormat = models.FormatJPEG
	})
	if !ok {
		t.Fatalf("update reported unknown session")
	}
	if got.Status != models.StatusCompleted || got.ConvertedPath != converted {
		t.Fatalf("update not visible: %+v", got)
	}
	if !got.UpdatedAt.After(sess.UpdatedAt) && !got.UpdatedAt.Equal(sess.UpdatedAt) {
		t.Fatalf("expected UpdatedAt to advance")
	}

	store.Delete(sess.ID)
	if _, ok := store.Get(sess.ID); ok {
		t.Fatalf("session should be gone after delete")
	}
	for _, path := range []string{uploaded, converted} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("expected %s to be removed, err=%v", path, err)
		}
	}

	// Second delete is a no-op.
	store.Delete(sess.ID)
}

func TestStoreGetReturnsSnapshot(t *testing.T) {
	store := NewStore()
	sess := store.Create("sess-snap", "", "photo.heic", 1)

	first, _ := store.Get(sess.ID)
	first.Status = models.StatusError

	second, _ := store.Get(sess.ID)
	if second.Status != models.StatusUploaded {
		t.Fatalf("mutating a snapshot leaked into the store: %s", second.Status)
	}
}

func TestStoreUpdateUnknown(t *testing.T) {
	store := NewStore()
	if _, ok := store.Update("nope", func(*models.Session) {}); ok {
		t.Fatalf("update of unknown id should report false")
	}
}

func TestStoreTransition(t *testing.T) {
	store := NewStore()
	sess := store.Create("sess-t", "", "photo.heic", 1)

	if got, ok := store.Transition("nope", models.StatusUploaded, models.StatusConverting); got != nil || ok {
		t.Fatalf("unknown id should yield (nil, false), got %v ok=%v", got, ok)
	}

	got, ok := store.Transition(sess.ID, models.StatusUploaded, models.StatusConverting)
	if !ok || got.Status != models.StatusConverting {
		t.Fatalf("transition failed: %+v ok=%v", got, ok)
	}
	if !got.UpdatedAt.After(sess.UpdatedAt) && !got.UpdatedAt.Equal(sess.UpdatedAt) {
		t.Fatalf("expected UpdatedAt to advance")
	}

	// A second claim sees the new status and is refused.
	got, ok = store.Transition(sess.ID, models.StatusUploaded, models.StatusConverting)
	if ok {
		t.Fatalf("second transition should be refused")
	}
	if got == nil || got.Status != models.StatusConverting {
		t.Fatalf("refused transition should report the current snapshot, got %+v", got)
	}
}

func TestStoreConcurrentSessions(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess := store.Create(fmt.Sprintf("sess-%d", i), "", "photo.heic", 1)
			store.Update(sess.ID, func(s *models.Session) {
				s.Status = models.StatusCompleted
			})
			if _, ok := store.Get(sess.ID); !ok {
				t.Errorf("lost session %s", sess.ID)
			}
			store.Delete(sess.ID)
		}(i)
	}
	wg.Wait()
	if store.Len() != 0 {
		t.Fatalf("expected empty store, have %d", store.Len())
	}
}

func backdate(store *Store, id string, to time.Time) {
	store.mu.Lock()
	if sess, ok := store.sessions[id]; ok {
		sess.UpdatedAt = to
	}
	store.mu.Unlock()
}

func TestExpireIdleSessions(t *testing.T) {
	dir := t.TempDir()
	store := NewStore()

	stale := store.Create("stale", writeTempFile(t, dir, "stale.heic"), "stale.heic", 1)
	backdate(store, stale.ID, time.Now().UTC().Add(-2*time.Hour))
	fresh := store.Create("fresh", writeTempFile(t, dir, "fresh.heic"), "fresh.heic", 1)

	busy := store.Create("busy", writeTempFile(t, dir, "busy.heic"), "busy.heic", 1)
	store.Update(busy.ID, func(s *models.Session) {
		s.Status = models.StatusConverting
	})
	backdate(store, busy.ID, time.Now().UTC().Add(-2*time.Hour))

	store.expireIdleSessions(time.Hour)
	if _, ok := store.Get(stale.ID); ok {
		t.Fatalf("stale session should have been expired")
	}
	if _, ok := store.Get(fresh.ID); !ok {
		t.Fatalf("fresh session should survive")
	}
	if _, ok := store.Get(busy.ID); !ok {
		t.Fatalf("converting session must never be expired")
	}
}

func TestSweepOrphans(t *testing.T) {
	dir := t.TempDir()
	store := NewStore()

	orphan := writeTempFile(t, dir, "orphan.heic")
	owned := writeTempFile(t, dir, "owned.heic")
	old := time.Now().Add(-2 * time.Hour)
	for _, path := range []string{orphan, owned} {
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}
	store.Create("owner", owned, "owned.heic", 1)

	if err := store.sweepOrphans(dir, time.Hour); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Fatalf("orphan should be removed, err=%v", err)
	}
	if _, err := os.Stat(owned); err != nil {
		t.Fatalf("owned file should survive: %v", err)
	}
}

func TestSweepOrphansMissingDir(t *testing.T) {
	store := NewStore()
	if err := store.sweepOrphans(filepath.Join(t.TempDir(), "absent"), time.Hour); err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
}
