package storage

import (
	"context"
	"database/sql"
	"testing"

	"heiconv/internal/config"
	"heiconv/internal/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {DSN: ":memory:"},
		},
	}
	db, err := Open("sqlite3", cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return db
}

func TestRecordAndStats(t *testing.T) {
	history := NewHistory(newTestDB(t))
	ctx := context.Background()

	rows := []models.ConversionRecord{
		{SessionID: "s1", OriginalFilename: "a.heic", OutputFormat: models.FormatJPEG, InputBytes: 100, OutputBytes: 80, Outcome: "completed", DurationMS: 12},
		{SessionID: "s2", OriginalFilename: "b.heic", OutputFormat: models.FormatWebP, InputBytes: 200, OutputBytes: 90, Outcome: "completed", DurationMS: 20, StripMetadata: true},
		{SessionID: "s3", OriginalFilename: "c.heic", OutputFormat: models.FormatJPEG, InputBytes: 300, Outcome: "error", Detail: "decode failed"},
	}
	for _, rec := range rows {
		if _, err := history.RecordConversion(ctx, rec); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	stats, err := history.ConversionStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 3 {
		t.Fatalf("total = %d, want 3", stats.Total)
	}
	if stats.ByOutcome["completed"] != 2 || stats.ByOutcome["error"] != 1 {
		t.Fatalf("unexpected outcome counts: %v", stats.ByOutcome)
	}
	if stats.ByFormat[models.FormatJPEG] != 2 || stats.ByFormat[models.FormatWebP] != 1 {
		t.Fatalf("unexpected format counts: %v", stats.ByFormat)
	}
	if stats.TotalOutputBytes != 170 {
		t.Fatalf("output bytes = %d, want 170", stats.TotalOutputBytes)
	}
}

func TestRecentConversionsOrderAndLimit(t *testing.T) {
	history := NewHistory(newTestDB(t))
	ctx := context.Background()

	for _, id := range []string{"s1", "s2", "s3"} {
		rec := models.ConversionRecord{
			SessionID:        id,
			OriginalFilename: id + ".heic",
			OutputFormat:     models.FormatPNG,
			InputBytes:       1,
			Outcome:          "completed",
		}
		if _, err := history.RecordConversion(ctx, rec); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	recent, err := history.RecentConversions(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(recent))
	}
	if recent[0].SessionID != "s3" || recent[1].SessionID != "s2" {
		t.Fatalf("unexpected order: %s, %s", recent[0].SessionID, recent[1].SessionID)
	}
	if recent[0].Detail != "" {
		t.Fatalf("detail should default to empty, got %q", recent[0].Detail)
	}
}

func TestStatsEmptyTable(t *testing.T) {
	history := NewHistory(newTestDB(t))
	stats, err := history.ConversionStats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 0 || len(stats.ByOutcome) != 0 {
		t.Fatalf("expected zeroed stats, got %+v", stats)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	cfg := &config.Config{Databases: map[string]config.DatabaseConfig{}}
	if _, err := Open("postgres", cfg); err == nil {
		t.Fatalf("expected error for unconfigured driver")
	}
}
