package storage

import (
	"context"

	"github.com/mkarlsen/kbingest/internal/domain"
)

// ObjectLister enumerates documents in an object store location. The listing
// follows backend pagination transparently and returns entries in listing
// order, folder markers included.
type ObjectLister interface {
	List(ctx context.Context, bucket, prefix string) ([]domain.DocumentRef, error)
}
