package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mkarlsen/kbingest/internal/domain"
	"github.com/mkarlsen/kbingest/internal/knowledgebase"
	"github.com/mkarlsen/kbingest/internal/logger"
	"github.com/mkarlsen/kbingest/internal/repository"
	"github.com/mkarlsen/kbingest/internal/storage"
)

// IngestService orchestrates one ingestion run: enumerate the bucket, filter
// placeholders, partition into batches, submit each batch, and optionally
// wait for the batch's job to finish before submitting the next.
type IngestService struct {
	lister   storage.ObjectLister
	ingestor knowledgebase.Ingestor
	tracker  *repository.TrackerRepository // nil disables duplicate tracking
	logger   *logger.Logger

	bucket         string
	prefix         string
	scope          string
	batchSize      int
	wait           bool
	force          bool
	skipMetadata   bool
	pollInterval   time.Duration
	submitDelay    time.Duration
	maxRetries     int
	retryBaseDelay time.Duration
}

// IngestConfig holds configuration for a single run.
type IngestConfig struct {
	Bucket       string
	Prefix       string
	Scope        string // tracking scope, ignored when tracker is nil
	BatchSize    int
	Wait         bool
	Force        bool // bypass the tracking filter
	SkipMetadata bool

	PollInterval   time.Duration
	SubmitDelay    time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	lister storage.ObjectLister,
	ingestor knowledgebase.Ingestor,
	tracker *repository.TrackerRepository,
	log *logger.Logger,
	cfg *IngestConfig,
) *IngestService {
	return &IngestService{
		lister:         lister,
		ingestor:       ingestor,
		tracker:        tracker,
		logger:         log,
		bucket:         cfg.Bucket,
		prefix:         cfg.Prefix,
		scope:          cfg.Scope,
		batchSize:      cfg.BatchSize,
		wait:           cfg.Wait,
		force:          cfg.Force,
		skipMetadata:   cfg.SkipMetadata,
		pollInterval:   cfg.PollInterval,
		submitDelay:    cfg.SubmitDelay,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
	}
}

// log returns a logger from context if available, otherwise the default one.
func (s *IngestService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// Run executes the ingestion run. Listing errors abort the run; per-batch
// submission errors are logged and the run continues, with failures reported
// in the returned stats.
func (s *IngestService) Run(ctx context.Context) (*domain.RunStats, error) {
	stats := &domain.RunStats{StartTime: time.Now()}

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldBucket: s.bucket,
		logger.FieldPrefix: s.prefix,
		"wait":             s.wait,
	}).Info("Listing objects")

	refs, err := s.lister.List(ctx, s.bucket, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate documents: %w", err)
	}
	stats.ListedObjects = len(refs)

	docs := make([]domain.DocumentRef, 0, len(refs))
	for _, ref := range refs {
		switch {
		case ref.IsFolderMarker():
			stats.SkippedFolders++
		case s.skipMetadata && ref.IsMetadataSidecar():
			stats.SkippedMetadata++
		default:
			docs = append(docs, ref)
		}
	}

	if s.tracker != nil && !s.force {
		fresh, skipped, err := s.tracker.FilterNew(ctx, s.scope, docs)
		if err != nil {
			return nil, fmt.Errorf("failed to filter tracked documents: %w", err)
		}
		docs = fresh
		stats.SkippedTracked = skipped
	}

	batches := partition(docs, s.batchSize)
	stats.Batches = len(batches)

	s.log(ctx).WithFields(logger.Fields{
		"objects":          stats.ListedObjects,
		"folders":          stats.SkippedFolders,
		"metadata":         stats.SkippedMetadata,
		"already_ingested": stats.SkippedTracked,
		"batches":          stats.Batches,
	}).Info("Partitioned documents")

	if len(batches) == 0 {
		s.log(ctx).Info("No new documents to ingest")
		stats.EndTime = time.Now()
		return stats, nil
	}

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			stats.EndTime = time.Now()
			return stats, err
		}

		result := domain.BatchResult{Index: i + 1, Documents: batch}
		batchLog := s.log(ctx).WithFields(logger.Fields{
			logger.FieldBatch: result.Index,
			"batches":         len(batches),
			logger.FieldCount: len(batch),
		})

		jobID, err := s.submitWithRetry(ctx, batch)
		if err != nil {
			result.Err = fmt.Errorf("batch %d (%v): %w", result.Index, keysOf(batch), err)
			result.Status = domain.JobStatusFailed
			stats.FailedBatches++
			stats.SubmittedJobs = append(stats.SubmittedJobs, result)
			batchLog.WithField("keys", keysOf(batch)).WithError(err).Error("Failed to submit batch")
			if ctx.Err() != nil {
				stats.EndTime = time.Now()
				return stats, ctx.Err()
			}
			continue
		}

		result.JobID = jobID
		result.Status = domain.JobStatusStarting
		batchLog.WithField(logger.FieldJobID, jobID).Info("Started ingestion job")

		if s.wait {
			status, waitErr := s.waitForJob(ctx, jobID)
			result.Status = status
			if waitErr != nil {
				if ctx.Err() != nil {
					stats.SubmittedJobs = append(stats.SubmittedJobs, result)
					stats.EndTime = time.Now()
					return stats, waitErr
				}
				result.Err = waitErr
				batchLog.WithField(logger.FieldJobID, jobID).WithError(waitErr).
					Warn("Could not confirm job completion")
			}
			batchLog.WithFields(logger.Fields{
				logger.FieldJobID:  jobID,
				logger.FieldStatus: string(status),
			}).Info("Batch finished")

			if status == domain.JobStatusFailed {
				stats.FailedBatches++
			}
			if s.tracker != nil && status == domain.JobStatusComplete {
				if err := s.tracker.MarkIngested(ctx, s.scope, jobID, batch); err != nil {
					batchLog.WithError(err).Warn("Failed to record ingested documents")
				}
			}
		} else {
			if s.tracker != nil {
				if err := s.tracker.MarkIngested(ctx, s.scope, jobID, batch); err != nil {
					batchLog.WithError(err).Warn("Failed to record ingested documents")
				}
			}
			// Small pause between back-to-back submissions to stay under
			// the backend's concurrent operation limit.
			if s.submitDelay > 0 && i < len(batches)-1 {
				if err := sleepCtx(ctx, s.submitDelay); err != nil {
					stats.SubmittedJobs = append(stats.SubmittedJobs, result)
					stats.EndTime = time.Now()
					return stats, err
				}
			}
		}

		stats.SubmittedJobs = append(stats.SubmittedJobs, result)
	}

	stats.EndTime = time.Now()

	s.log(ctx).WithFields(logger.Fields{
		"batches":              stats.Batches,
		"failed":               stats.FailedBatches,
		logger.FieldDurationMs: stats.EndTime.Sub(stats.StartTime).Milliseconds(),
	}).Info("Ingestion run finished")

	return stats, nil
}

// submitWithRetry submits one batch, retrying throttling and concurrent
// operation errors with exponential backoff up to maxRetries attempts.
func (s *IngestService) submitWithRetry(ctx context.Context, batch []domain.DocumentRef) (string, error) {
	delay := s.retryBaseDelay
	if delay <= 0 {
		delay = time.Second
	}

	for attempt := 0; ; attempt++ {
		jobID, err := s.ingestor.StartIngestion(ctx, batch)
		if err == nil {
			return jobID, nil
		}
		if !knowledgebase.IsRetryable(err) || attempt >= s.maxRetries {
			return "", err
		}

		s.log(ctx).WithFields(logger.Fields{
			"attempt": attempt + 1,
			"delay":   delay.String(),
		}).WithError(err).Warn("Backend throttled, retrying")

		if err := sleepCtx(ctx, delay); err != nil {
			return "", err
		}
		delay *= 2
	}
}

// waitForJob polls the job status at pollInterval until it reaches a terminal
// state. Poll errors beyond the last observed status are returned so the
// caller can decide whether to treat the batch as unconfirmed.
func (s *IngestService) waitForJob(ctx context.Context, jobID string) (domain.JobStatus, error) {
	status := domain.JobStatusInProgress
	for {
		current, err := s.ingestor.JobStatus(ctx, jobID)
		if err != nil {
			return status, fmt.Errorf("failed to poll job %s: %w", jobID, err)
		}
		status = current
		if status.Terminal() {
			return status, nil
		}

		s.log(ctx).WithFields(logger.Fields{
			logger.FieldJobID:  jobID,
			logger.FieldStatus: string(status),
		}).Debug("Waiting for ingestion job")

		if err := sleepCtx(ctx, s.pollInterval); err != nil {
			return status, err
		}
	}
}

// sleepCtx sleeps for d or until the context is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
