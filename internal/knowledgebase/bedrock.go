package knowledgebase

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent/types"
	"github.com/google/uuid"

	"github.com/mkarlsen/kbingest/internal/domain"
)

// BedrockConfig holds configuration for the Bedrock Agent client.
type BedrockConfig struct {
	KnowledgeBaseID string
	DataSourceID    string
	Region          string
	AccessKey       string
	SecretKey       string
}

// BedrockIngestor implements Ingestor against an Amazon Bedrock Knowledge
// Base via the document-level ingestion API.
//
// That API returns per-document detail rather than a job identifier, so each
// submitted batch is assigned a locally generated job id whose document
// identifiers are kept for the lifetime of the run. Status polling reads the
// per-document statuses back and folds them into the job state machine.
type BedrockIngestor struct {
	client          *bedrockagent.Client
	knowledgeBaseID string
	dataSourceID    string

	mu   sync.Mutex
	jobs map[string][]types.DocumentIdentifier
}

// NewBedrockIngestor creates a Bedrock-backed ingestor. When no static
// credentials are configured the default AWS credential chain applies.
func NewBedrockIngestor(ctx context.Context, cfg *BedrockConfig) (*BedrockIngestor, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &BedrockIngestor{
		client:          bedrockagent.NewFromConfig(awsCfg),
		knowledgeBaseID: cfg.KnowledgeBaseID,
		dataSourceID:    cfg.DataSourceID,
		jobs:            make(map[string][]types.DocumentIdentifier),
	}, nil
}

// documentEntries builds the ingestion payload for a batch alongside the
// matching identifiers used for status polling.
func documentEntries(docs []domain.DocumentRef) ([]types.KnowledgeBaseDocument, []types.DocumentIdentifier) {
	documents := make([]types.KnowledgeBaseDocument, 0, len(docs))
	identifiers := make([]types.DocumentIdentifier, 0, len(docs))
	for _, doc := range docs {
		uri := doc.URI()
		documents = append(documents, types.KnowledgeBaseDocument{
			Content: &types.DocumentContent{
				DataSourceType: types.ContentDataSourceTypeS3,
				S3: &types.S3Content{
					S3Location: &types.S3Location{Uri: aws.String(uri)},
				},
			},
		})
		identifiers = append(identifiers, types.DocumentIdentifier{
			DataSourceType: types.ContentDataSourceTypeS3,
			S3:             &types.S3Location{Uri: aws.String(uri)},
		})
	}
	return documents, identifiers
}

// StartIngestion submits one batch of S3 documents to the knowledge base and
// returns the job id assigned to the batch.
func (b *BedrockIngestor) StartIngestion(ctx context.Context, docs []domain.DocumentRef) (string, error) {
	documents, identifiers := documentEntries(docs)

	_, err := b.client.IngestKnowledgeBaseDocuments(ctx, &bedrockagent.IngestKnowledgeBaseDocumentsInput{
		KnowledgeBaseId: aws.String(b.knowledgeBaseID),
		DataSourceId:    aws.String(b.dataSourceID),
		ClientToken:     aws.String(uuid.New().String()),
		Documents:       documents,
	})
	if err != nil {
		return "", fmt.Errorf("failed to ingest documents: %w", err)
	}

	jobID := uuid.New().String()
	b.mu.Lock()
	b.jobs[jobID] = identifiers
	b.mu.Unlock()

	return jobID, nil
}

// JobStatus reads back the per-document statuses for a submitted batch and
// folds them into a single job status.
func (b *BedrockIngestor) JobStatus(ctx context.Context, jobID string) (domain.JobStatus, error) {
	b.mu.Lock()
	identifiers, ok := b.jobs[jobID]
	b.mu.Unlock()
	if !ok {
		return domain.JobStatusUnknown, fmt.Errorf("unknown job id %q", jobID)
	}

	out, err := b.client.GetKnowledgeBaseDocuments(ctx, &bedrockagent.GetKnowledgeBaseDocumentsInput{
		KnowledgeBaseId:     aws.String(b.knowledgeBaseID),
		DataSourceId:        aws.String(b.dataSourceID),
		DocumentIdentifiers: identifiers,
	})
	if err != nil {
		return domain.JobStatusUnknown, fmt.Errorf("failed to get document statuses for job %s: %w", jobID, err)
	}

	statuses := make([]types.DocumentStatus, 0, len(out.DocumentDetails))
	for _, detail := range out.DocumentDetails {
		statuses = append(statuses, detail.Status)
	}

	return foldStatuses(statuses), nil
}

// foldStatuses maps per-document statuses onto the job state machine. Work
// still pending dominates; a failure is terminal only once nothing is
// pending.
func foldStatuses(statuses []types.DocumentStatus) domain.JobStatus {
	if len(statuses) == 0 {
		return domain.JobStatusUnknown
	}

	var starting, pending, failed int
	for _, s := range statuses {
		switch s {
		case types.DocumentStatusStarting:
			starting++
		case types.DocumentStatusPending, types.DocumentStatusInProgress,
			types.DocumentStatusDeleting, types.DocumentStatusDeleteInProgress:
			pending++
		case types.DocumentStatusFailed, types.DocumentStatusMetadataUpdateFailed,
			types.DocumentStatusNotFound:
			failed++
		}
	}

	switch {
	case starting == len(statuses):
		return domain.JobStatusStarting
	case starting+pending > 0:
		return domain.JobStatusInProgress
	case failed > 0:
		return domain.JobStatusFailed
	default:
		return domain.JobStatusComplete
	}
}
