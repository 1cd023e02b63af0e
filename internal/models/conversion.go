package models

import "time"

// ConversionRecord is the persistent audit row written after every
// conversion attempt. Sessions are in-memory only; this table is what
// survives a restart.
type ConversionRecord struct {
	ID               int64        `json:"id"`
	SessionID        string       `json:"session_id"`
	OriginalFilename string       `json:"original_filename"`
	OutputFormat     OutputFormat `json:"output_format"`
	StripMetadata    bool         `json:"strip_metadata"`
	InputBytes       int64        `json:"input_bytes"`
	OutputBytes      int64        `json:"output_bytes"`
	Outcome          string       `json:"outcome"`
	Detail           string       `json:"detail,omitempty"`
	DurationMS       int64        `json:"duration_ms"`
	CreatedAt        time.Time    `json:"created_at"`
}
