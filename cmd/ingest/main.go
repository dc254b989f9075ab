package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/mkarlsen/kbingest/internal/config"
	"github.com/mkarlsen/kbingest/internal/exitcode"
	"github.com/mkarlsen/kbingest/internal/knowledgebase"
	"github.com/mkarlsen/kbingest/internal/logger"
	"github.com/mkarlsen/kbingest/internal/repository"
	"github.com/mkarlsen/kbingest/internal/service"
	"github.com/mkarlsen/kbingest/internal/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse command line flags
	knowledgeBaseID := flag.String("knowledge-base-id", "", "Knowledge base ID (required)")
	dataSourceID := flag.String("data-source-id", "", "Data source ID (required)")
	bucket := flag.String("bucket", "", "S3 bucket containing documents (required)")
	prefix := flag.String("prefix", "", "S3 key prefix to ingest from")
	region := flag.String("region", "", "AWS region (default from config: us-east-1)")
	wait := flag.Bool("wait", false, "Wait for each batch to complete before starting the next")
	batchSize := flag.Int("batch-size", service.MaxBatchSize, "Documents per batch (max 25)")
	skipMetadata := flag.Bool("skip-metadata", false, "Skip .metadata.json sidecar files")
	force := flag.Bool("force", false, "Resubmit documents recorded as already ingested")
	configPath := flag.String("config", "", "Path to config file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *knowledgeBaseID == "" || *dataSourceID == "" || *bucket == "" {
		fmt.Fprintln(os.Stderr, "Usage: --knowledge-base-id, --data-source-id and --bucket are required")
		flag.Usage()
		return exitcode.ConfigError
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return exitcode.ConfigError
	}
	if *region != "" {
		cfg.AWS.Region = *region
	}

	level := cfg.Log.Level
	if *debug {
		level = "debug"
	}
	appLogger := logger.New(&logger.Config{
		Level:       level,
		Format:      cfg.Log.Format,
		ServiceName: "kbingest",
		LogFile:     cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
		Compress:    cfg.Log.Compress,
	})
	logger.SetDefaultLogger(appLogger)

	if *batchSize > service.MaxBatchSize {
		appLogger.WithField("batch_size", *batchSize).
			Warnf("Requested batch size exceeds the API limit, using %d", service.MaxBatchSize)
		*batchSize = service.MaxBatchSize
	}

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := uuid.New().String()
	ctx = logger.WithField(ctx, logger.FieldRunID, runID)

	appLogger.WithFields(logger.Fields{
		logger.FieldRunID:  runID,
		"knowledge_base":   *knowledgeBaseID,
		"data_source":      *dataSourceID,
		logger.FieldBucket: *bucket,
		logger.FieldPrefix: *prefix,
		"region":           cfg.AWS.Region,
		"wait":             *wait,
	}).Info("Starting ingestion run")

	// Initialize backends
	lister, err := storage.NewS3Lister(ctx, &storage.S3Config{
		Region:    cfg.AWS.Region,
		AccessKey: cfg.AWS.AccessKey,
		SecretKey: cfg.AWS.SecretKey,
	})
	if err != nil {
		appLogger.WithError(err).Error("Failed to initialize S3 client")
		return exitcode.ConfigError
	}

	ingestor, err := knowledgebase.NewBedrockIngestor(ctx, &knowledgebase.BedrockConfig{
		KnowledgeBaseID: *knowledgeBaseID,
		DataSourceID:    *dataSourceID,
		Region:          cfg.AWS.Region,
		AccessKey:       cfg.AWS.AccessKey,
		SecretKey:       cfg.AWS.SecretKey,
	})
	if err != nil {
		appLogger.WithError(err).Error("Failed to initialize Bedrock client")
		return exitcode.ConfigError
	}

	// Optional duplicate tracking store
	var tracker *repository.TrackerRepository
	if cfg.Tracking.Enabled {
		db, err := repository.InitDB(&cfg.Database)
		if err != nil {
			appLogger.WithError(err).Error("Failed to initialize tracking database")
			return exitcode.ConfigError
		}
		tracker = repository.NewTrackerRepository(db)
	}

	svc := service.NewIngestService(lister, ingestor, tracker, appLogger, &service.IngestConfig{
		Bucket:         *bucket,
		Prefix:         *prefix,
		Scope:          repository.Scope(*knowledgeBaseID, *dataSourceID, *bucket, *prefix),
		BatchSize:      *batchSize,
		Wait:           *wait,
		Force:          *force,
		SkipMetadata:   *skipMetadata,
		PollInterval:   cfg.Ingest.PollInterval,
		SubmitDelay:    cfg.Ingest.SubmitDelay,
		MaxRetries:     cfg.Ingest.MaxRetries,
		RetryBaseDelay: cfg.Ingest.RetryBaseDelay,
	})

	stats, err := svc.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			appLogger.Warn("Ingestion run interrupted")
			return exitcode.Interrupted
		}
		appLogger.WithError(err).Error("Ingestion run aborted")
		return exitcode.ListError
	}

	for _, job := range stats.SubmittedJobs {
		entry := appLogger.WithFields(logger.Fields{
			logger.FieldBatch: job.Index,
			logger.FieldJobID: job.JobID,
			logger.FieldCount: len(job.Documents),
		})
		if job.Err != nil {
			entry.WithError(job.Err).Warn("Batch did not complete")
		} else {
			entry.WithField(logger.FieldStatus, string(job.Status)).Info("Batch submitted")
		}
	}

	if stats.FailedBatches > 0 {
		appLogger.WithFields(logger.Fields{
			"failed":  stats.FailedBatches,
			"batches": stats.Batches,
		}).Error("Some batches failed")
		return exitcode.IngestError
	}

	appLogger.WithFields(logger.Fields{
		"batches": stats.Batches,
		"objects": stats.ListedObjects,
	}).Info("Document ingestion completed")
	return exitcode.Success
}
