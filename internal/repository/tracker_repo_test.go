package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/kbingest/internal/config"
	"github.com/mkarlsen/kbingest/internal/domain"
)

func newTestRepo(t *testing.T) *TrackerRepository {
	t.Helper()
	db, err := InitDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         ":memory:",
		MaxIdleConns: 1,
		MaxOpenConns: 1,
		AutoMigrate:  true,
	})
	require.NoError(t, err)
	return NewTrackerRepository(db)
}

func docs(keys ...string) []domain.DocumentRef {
	refs := make([]domain.DocumentRef, 0, len(keys))
	for _, key := range keys {
		refs = append(refs, domain.DocumentRef{Bucket: "docs", Key: key, Size: 1})
	}
	return refs
}

func TestScope(t *testing.T) {
	a := Scope("kb-1", "ds-1", "bucket", "prefix/")
	b := Scope("kb-1", "ds-1", "bucket", "prefix/")
	c := Scope("kb-2", "ds-1", "bucket", "prefix/")

	assert.Equal(t, a, b, "same inputs must produce the same scope")
	assert.NotEqual(t, a, c, "different knowledge bases must produce different scopes")
	assert.Len(t, a, 32)
}

func TestTracker_FilterNewAndMark(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	scope := Scope("kb", "ds", "docs", "")

	all := docs("a.pdf", "b.pdf", "c.pdf", "d.pdf")

	fresh, skipped, err := repo.FilterNew(ctx, scope, all)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, all, fresh)

	require.NoError(t, repo.MarkIngested(ctx, scope, "job-1", docs("a.pdf", "c.pdf")))

	fresh, skipped, err = repo.FilterNew(ctx, scope, all)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, docs("b.pdf", "d.pdf"), fresh, "filtering must preserve listing order")
}

func TestTracker_ScopesAreIsolated(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.MarkIngested(ctx, "scope-a", "job-1", docs("a.pdf")))

	fresh, skipped, err := repo.FilterNew(ctx, "scope-b", docs("a.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	assert.Len(t, fresh, 1, "keys recorded in another scope must not be filtered")
}

func TestTracker_MarkIngestedIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	scope := "scope"

	require.NoError(t, repo.MarkIngested(ctx, scope, "job-1", docs("a.pdf")))
	require.NoError(t, repo.MarkIngested(ctx, scope, "job-2", docs("a.pdf", "b.pdf")))

	fresh, skipped, err := repo.FilterNew(ctx, scope, docs("a.pdf", "b.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	assert.Empty(t, fresh)
}

func TestTracker_EmptyInput(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	fresh, skipped, err := repo.FilterNew(ctx, "scope", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	assert.Empty(t, fresh)

	require.NoError(t, repo.MarkIngested(ctx, "scope", "job-1", nil))
}
