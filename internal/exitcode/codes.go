package exitcode

// Exit codes for the ingestion CLI. Schedulers can use these to decide
// whether a rerun makes sense.
const (
	// Success - all batches submitted (and completed, when waiting)
	Success = 0

	// ConfigError - missing or invalid flags/configuration
	// Don't retry: fix the invocation first
	ConfigError = 1

	// ListError - bucket listing failed (unreachable or denied)
	// Check credentials and bucket name
	ListError = 2

	// IngestError - one or more batches failed to submit or complete
	// Rerun picks up the unrecorded keys when tracking is enabled
	IngestError = 3

	// Interrupted - run canceled by SIGINT/SIGTERM before completion
	// Safe to rerun; tracking skips the batches already submitted
	Interrupted = 4
)
