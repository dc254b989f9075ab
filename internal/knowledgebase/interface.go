package knowledgebase

import (
	"context"

	"github.com/mkarlsen/kbingest/internal/domain"
)

// Ingestor is the capability the orchestrator needs from the knowledge-base
// backend: submit one batch of documents, then read the resulting job state.
type Ingestor interface {
	// StartIngestion submits a batch of documents and returns a job
	// identifier for status polling. The backend caps a batch at 25
	// documents per call.
	StartIngestion(ctx context.Context, docs []domain.DocumentRef) (string, error)

	// JobStatus returns the current state of a previously started job.
	JobStatus(ctx context.Context, jobID string) (domain.JobStatus, error)
}
