package postgres

import (
	"context"
	"errors"

	apperrors "approved-premises-workers/internal/common/errors"
)

// queryFailed reports a deadline hit mid-query as QUERY_TIMEOUT.
func queryFailed(operation string, err error) *apperrors.StandardError {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewQueryTimeoutError(operation)
	}
	return apperrors.NewDatabaseQueryFailedError(operation, err)
}
