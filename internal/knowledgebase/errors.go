package knowledgebase

import (
	"errors"
	"strings"

	"github.com/aws/smithy-go"
)

// IsRetryable reports whether a submission error is worth retrying with
// backoff. The knowledge base serializes ingestion, so hitting the concurrent
// operation limit is expected when batches are submitted back-to-back.
func IsRetryable(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "ThrottlingException", "ServiceQuotaExceededException":
		return true
	case "ValidationException":
		return strings.Contains(apiErr.ErrorMessage(), "concurrent")
	}
	return false
}
