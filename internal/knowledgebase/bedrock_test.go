package knowledgebase

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockagent/types"
	"github.com/aws/smithy-go"

	"github.com/mkarlsen/kbingest/internal/domain"
)

func TestDocumentEntries(t *testing.T) {
	docs := []domain.DocumentRef{
		{Bucket: "docs", Key: "reports/q1.pdf", Size: 1024},
		{Bucket: "docs", Key: "reports/q2.pdf", Size: 2048},
	}

	documents, identifiers := documentEntries(docs)
	if len(documents) != 2 || len(identifiers) != 2 {
		t.Fatalf("got %d documents, %d identifiers, want 2 each", len(documents), len(identifiers))
	}

	for i, doc := range docs {
		content := documents[i].Content
		if content.DataSourceType != types.ContentDataSourceTypeS3 {
			t.Errorf("document %d data source type = %s, want S3", i, content.DataSourceType)
		}
		if got := *content.S3.S3Location.Uri; got != doc.URI() {
			t.Errorf("document %d uri = %s, want %s", i, got, doc.URI())
		}

		id := identifiers[i]
		if id.DataSourceType != types.ContentDataSourceTypeS3 {
			t.Errorf("identifier %d data source type = %s, want S3", i, id.DataSourceType)
		}
		if got := *id.S3.Uri; got != doc.URI() {
			t.Errorf("identifier %d uri = %s, want %s", i, got, doc.URI())
		}
	}
}

func TestFoldStatuses(t *testing.T) {
	cases := []struct {
		name     string
		statuses []types.DocumentStatus
		want     domain.JobStatus
	}{
		{
			name:     "no details",
			statuses: nil,
			want:     domain.JobStatusUnknown,
		},
		{
			name:     "all starting",
			statuses: []types.DocumentStatus{types.DocumentStatusStarting, types.DocumentStatusStarting},
			want:     domain.JobStatusStarting,
		},
		{
			name:     "work pending dominates",
			statuses: []types.DocumentStatus{types.DocumentStatusIndexed, types.DocumentStatusInProgress},
			want:     domain.JobStatusInProgress,
		},
		{
			name:     "failure not terminal while pending",
			statuses: []types.DocumentStatus{types.DocumentStatusFailed, types.DocumentStatusPending},
			want:     domain.JobStatusInProgress,
		},
		{
			name:     "failure terminal once settled",
			statuses: []types.DocumentStatus{types.DocumentStatusIndexed, types.DocumentStatusFailed},
			want:     domain.JobStatusFailed,
		},
		{
			name:     "all indexed",
			statuses: []types.DocumentStatus{types.DocumentStatusIndexed, types.DocumentStatusIndexed},
			want:     domain.JobStatusComplete,
		},
		{
			name:     "ignored counts as done",
			statuses: []types.DocumentStatus{types.DocumentStatusIndexed, types.DocumentStatusIgnored},
			want:     domain.JobStatusComplete,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := foldStatuses(tc.statuses); got != tc.want {
				t.Errorf("foldStatuses() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "throttling",
			err:  &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"},
			want: true,
		},
		{
			name: "quota",
			err:  &smithy.GenericAPIError{Code: "ServiceQuotaExceededException", Message: "quota"},
			want: true,
		},
		{
			name: "concurrent validation",
			err:  &smithy.GenericAPIError{Code: "ValidationException", Message: "too many concurrent operations"},
			want: true,
		},
		{
			name: "plain validation",
			err:  &smithy.GenericAPIError{Code: "ValidationException", Message: "malformed uri"},
			want: false,
		},
		{
			name: "access denied",
			err:  &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "nope"},
			want: false,
		},
		{
			name: "wrapped throttling",
			err:  fmt.Errorf("submit: %w", &smithy.GenericAPIError{Code: "ThrottlingException"}),
			want: true,
		},
		{
			name: "non-api error",
			err:  errors.New("connection reset"),
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetryable(tc.err); got != tc.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
