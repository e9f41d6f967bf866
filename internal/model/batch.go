package model

import "time"

// BatchStatus is the lifecycle state of an import batch audit record.
type BatchStatus string

// Batch status constants. A batch finishes as completed even when some
// records errored; only the counts differ.
const (
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
)

// ImportBatch is the audit record for one end-to-end ingestion run of a
// single uploaded file. Created when the commit starts, finalized with
// counts when it ends, immutable thereafter.
type ImportBatch struct {
	CreatedAt      time.Time
	CompletedAt    time.Time
	ID             string
	UserID         string
	SourceFormat   SourceFormat
	FileName       string
	FileKind       FileKind
	Status         BatchStatus
	TotalCount     int
	ImportedCount  int
	DuplicateCount int
	ErrorCount     int
}
