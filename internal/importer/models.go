package importer

import (
	"time"

	"gorm.io/gorm"
)

const (
	UploadStatusAwaitingMapping = "AWAITING_MAPPING"
	UploadStatusCommitted       = "COMMITTED"
)

const (
	JobStatusPending    = "PENDING"
	JobStatusProcessing = "PROCESSING"
	JobStatusCompleted  = "COMPLETED"
	JobStatusFailed     = "FAILED"
)

// Upload tracks one uploaded file through the detect/confirm flow. The raw
// file body is kept so the commit step can re-parse it with the confirmed
// mapping instead of trusting a client-side copy.
type Upload struct {
	gorm.Model `json:"-"`
	UploadID   string    `gorm:"uniqueIndex" json:"upload_id"`
	ClientID   string    `json:"client_id"`
	Filename   string    `json:"filename"`
	Status     string    `json:"status"` // AWAITING_MAPPING, COMMITTED
	RowCount   int       `json:"row_count"`
	RawData    []byte    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ImportJob is the unit of work for the background matcher run over a
// committed upload.
type ImportJob struct {
	gorm.Model `json:"-"`
	JobID      string    `gorm:"uniqueIndex" json:"job_id"`
	UploadID   string    `json:"upload_id"`
	ClientID   string    `json:"client_id"`
	Status     string    `json:"status"` // PENDING, PROCESSING, COMPLETED, FAILED
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
