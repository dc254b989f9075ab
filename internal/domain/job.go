package domain

import "time"

// JobStatus represents the state of an asynchronous ingestion job as reported
// by the knowledge-base service. The service owns the state machine
// (STARTING -> IN_PROGRESS -> COMPLETE | FAILED); this process only reads it.
type JobStatus string

const (
	JobStatusStarting   JobStatus = "STARTING"
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	JobStatusComplete   JobStatus = "COMPLETE"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusUnknown    JobStatus = "UNKNOWN"
)

// Terminal reports whether the status will no longer change.
func (s JobStatus) Terminal() bool {
	return s == JobStatusComplete || s == JobStatusFailed
}

// BatchResult records the outcome of one submitted batch.
type BatchResult struct {
	Index     int
	JobID     string
	Documents []DocumentRef
	Status    JobStatus
	Err       error
}

// RunStats aggregates the outcome of a single ingestion run.
type RunStats struct {
	ListedObjects   int
	SkippedFolders  int
	SkippedMetadata int
	SkippedTracked  int
	Batches         int
	SubmittedJobs   []BatchResult
	FailedBatches   int
	StartTime       time.Time
	EndTime         time.Time
}
