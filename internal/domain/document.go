package domain

import (
	"fmt"
	"strings"
)

// DocumentRef identifies a single document in the object store.
// It is created from a listing result and consumed once when batched.
type DocumentRef struct {
	Bucket string
	Key    string
	Size   int64
}

// URI renders the reference as an s3:// URI, the form the knowledge base
// ingestion API expects for S3-backed documents.
func (d DocumentRef) URI() string {
	return fmt.Sprintf("s3://%s/%s", d.Bucket, d.Key)
}

// IsFolderMarker reports whether the entry is a zero-byte directory
// placeholder rather than an actual document.
func (d DocumentRef) IsFolderMarker() bool {
	return d.Size == 0 && strings.HasSuffix(d.Key, "/")
}

// IsMetadataSidecar reports whether the key is a Bedrock metadata sidecar
// file. Sidecars are ingested implicitly with their document and must not be
// submitted as documents themselves.
func (d DocumentRef) IsMetadataSidecar() bool {
	return strings.HasSuffix(d.Key, ".metadata.json")
}
