package service

import "github.com/mkarlsen/kbingest/internal/domain"

// MaxBatchSize is the backend's per-call document limit.
const MaxBatchSize = 25

// partition groups documents into order-preserving batches of at most size
// entries each. The last batch may be smaller. Sizes outside (0, MaxBatchSize]
// fall back to MaxBatchSize.
func partition(docs []domain.DocumentRef, size int) [][]domain.DocumentRef {
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}

	var batches [][]domain.DocumentRef
	for start := 0; start < len(docs); start += size {
		end := start + size
		if end > len(docs) {
			end = len(docs)
		}
		batches = append(batches, docs[start:end])
	}
	return batches
}

// keysOf extracts the object keys of a batch for error and log context.
func keysOf(docs []domain.DocumentRef) []string {
	keys := make([]string, 0, len(docs))
	for _, doc := range docs {
		keys = append(keys, doc.Key)
	}
	return keys
}
