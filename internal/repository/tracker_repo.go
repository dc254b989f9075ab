package repository

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mkarlsen/kbingest/internal/domain"
)

// TrackerRepository records which document keys were already submitted for a
// given tracking scope, so repeated runs skip them.
type TrackerRepository struct {
	db *gorm.DB
}

// NewTrackerRepository creates a new TrackerRepository.
func NewTrackerRepository(db *gorm.DB) *TrackerRepository {
	return &TrackerRepository{db: db}
}

// Scope derives the tracking scope identifier for a knowledge base, data
// source, and S3 location combination.
func Scope(knowledgeBaseID, dataSourceID, bucket, prefix string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%s_%s_%s", knowledgeBaseID, dataSourceID, bucket, prefix)))
	return hex.EncodeToString(sum[:])
}

// FilterNew returns the documents not yet recorded in the scope, preserving
// input order, along with the number of documents skipped.
func (r *TrackerRepository) FilterNew(ctx context.Context, scope string, docs []domain.DocumentRef) ([]domain.DocumentRef, int, error) {
	if len(docs) == 0 {
		return docs, 0, nil
	}

	keys := make([]string, 0, len(docs))
	for _, doc := range docs {
		keys = append(keys, doc.Key)
	}

	var tracked []string
	err := r.db.WithContext(ctx).
		Model(&domain.IngestedDocument{}).
		Where("scope = ? AND key IN ?", scope, keys).
		Pluck("key", &tracked).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query tracked documents: %w", err)
	}

	trackedSet := make(map[string]struct{}, len(tracked))
	for _, key := range tracked {
		trackedSet[key] = struct{}{}
	}

	fresh := make([]domain.DocumentRef, 0, len(docs))
	for _, doc := range docs {
		if _, ok := trackedSet[doc.Key]; !ok {
			fresh = append(fresh, doc)
		}
	}

	return fresh, len(docs) - len(fresh), nil
}

// MarkIngested records a batch of submitted documents in the scope. Already
// recorded keys are left untouched.
func (r *TrackerRepository) MarkIngested(ctx context.Context, scope, jobID string, docs []domain.DocumentRef) error {
	if len(docs) == 0 {
		return nil
	}

	records := make([]domain.IngestedDocument, 0, len(docs))
	for _, doc := range docs {
		records = append(records, domain.IngestedDocument{
			Scope: scope,
			Key:   doc.Key,
			JobID: jobID,
		})
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&records).Error
	if err != nil {
		return fmt.Errorf("failed to record ingested documents: %w", err)
	}
	return nil
}
