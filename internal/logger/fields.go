package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields propagated through the call chain.
const (
	// FieldRunID identifies a single ingestion run.
	FieldRunID = "run_id"

	// FieldBatch is the 1-based batch number within a run.
	FieldBatch = "batch"

	// FieldJobID is the ingestion job identifier returned by the backend.
	FieldJobID = "job_id"

	// FieldBucket is the S3 bucket being listed.
	FieldBucket = "bucket"

	// FieldPrefix is the S3 key prefix being listed.
	FieldPrefix = "prefix"
)

// Standard metric fields used for aggregation.
const (
	// FieldCount is a generic count field.
	FieldCount = "count"

	// FieldStatus is the job or operation status.
	FieldStatus = "status"

	// FieldDurationMs is the execution duration in milliseconds.
	FieldDurationMs = "duration_ms"
)
