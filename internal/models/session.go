package models

import "time"

// Status tracks a session through the conversion pipeline.
type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusConverting Status = "converting"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Session tracks one uploaded file through upload, conversion and download.
// ConvertedPath and OutputFormat are set only once Status is completed;
// ErrorDetail only once Status is error.
type Session struct {
	ID               string       `json:"id"`
	OriginalFilename string       `json:"original_filename"`
	UploadedPath     string       `json:"-"`
	ConvertedPath    string       `json:"-"`
	OutputFormat     OutputFormat `json:"output_format,omitempty"`
	Status           Status       `json:"status"`
	ErrorDetail      string       `json:"error,omitempty"`
	Size             int64        `json:"size"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}
