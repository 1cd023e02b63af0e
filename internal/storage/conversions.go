package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"heiconv/internal/models"
)

// History persists one row per conversion attempt and answers the stats
// queries.
type History struct {
	db *sql.DB
}

// NewHistory wraps an opened, migrated database.
func NewHistory(db *sql.DB) *History {
	return &History{db: db}
}

// RecordConversion inserts the audit row for one attempt and returns its id.
func (h *History) RecordConversion(ctx context.Context, rec models.ConversionRecord) (int64, error) {
	now := time.Now().UTC()
	res, err := h.db.ExecContext(ctx,
		`INSERT INTO conversions
			(session_id, original_filename, output_format, strip_metadata, input_bytes, output_bytes, outcome, detail, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.OriginalFilename, rec.OutputFormat, rec.StripMetadata,
		rec.InputBytes, rec.OutputBytes, rec.Outcome, rec.Detail, rec.DurationMS, now,
	)
	if err != nil {
		return 0, fmt.Errorf("record conversion: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("conversion id: %w", err)
	}
	return id, nil
}

// Stats summarizes the history table.
type Stats struct {
	Total            int64                         `json:"total"`
	ByOutcome        map[string]int64              `json:"by_outcome"`
	ByFormat         map[models.OutputFormat]int64 `json:"by_format"`
	TotalOutputBytes int64                         `json:"total_output_bytes"`
}

// ConversionStats aggregates totals by outcome and output format.
func (h *History) ConversionStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByOutcome: make(map[string]int64),
		ByFormat:  make(map[models.OutputFormat]int64),
	}

	rows, err := h.db.QueryContext(ctx,
		`SELECT outcome, COUNT(*), COALESCE(SUM(output_bytes), 0) FROM conversions GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("stats by outcome: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			outcome string
			count   int64
			bytes   int64
		)
		if err := rows.Scan(&outcome, &count, &bytes); err != nil {
			return nil, fmt.Errorf("scan outcome row: %w", err)
		}
		stats.ByOutcome[outcome] = count
		stats.Total += count
		stats.TotalOutputBytes += bytes
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	formatRows, err := h.db.QueryContext(ctx,
		`SELECT output_format, COUNT(*) FROM conversions GROUP BY output_format`)
	if err != nil {
		return nil, fmt.Errorf("stats by format: %w", err)
	}
	defer formatRows.Close()
	for formatRows.Next() {
		var (
			format models.OutputFormat
			count  int64
		)
		if err := formatRows.Scan(&format, &count); err != nil {
			return nil, fmt.Errorf("scan format row: %w", err)
		}
		stats.ByFormat[format] = count
	}
	return stats, formatRows.Err()
}

// RecentConversions returns the newest rows, most recent first.
func (h *History) RecentConversions(ctx context.Context, limit int) ([]models.ConversionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, session_id, original_filename, output_format, strip_metadata, input_bytes, output_bytes, outcome, COALESCE(detail, ''), duration_ms, created_at
		FROM conversions ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent conversions: %w", err)
	}
	defer rows.Close()

	var records []models.ConversionRecord
	for rows.Next() {
		var rec models.ConversionRecord
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.OriginalFilename, &rec.OutputFormat,
			&rec.StripMetadata, &rec.InputBytes, &rec.OutputBytes, &rec.Outcome, &rec.Detail,
			&rec.DurationMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversion: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
