package domain

import "time"

// IngestedDocument records a document key that was submitted for ingestion
// within a tracking scope, so later runs against the same knowledge base,
// data source, and S3 location can skip it.
type IngestedDocument struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Scope     string    `gorm:"type:text;not null;index:idx_scope_key,unique" json:"scope"`
	Key       string    `gorm:"type:text;not null;index:idx_scope_key,unique" json:"key"`
	JobID     string    `gorm:"type:text" json:"job_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for IngestedDocument.
func (IngestedDocument) TableName() string {
	return "ingested_documents"
}
