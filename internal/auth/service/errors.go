package service

import (
	"fmt"
	"time"

	rlmodels "authgate/internal/ratelimit/models"
	dErrors "authgate/pkg/domain-errors"
)

// RateLimitedError reports an exhausted per-email reset quota. It carries the
// decision so the handler can emit the standard rate-limit headers.
type RateLimitedError struct {
	Decision *rlmodels.Decision
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("password reset quota exhausted until %s", e.Decision.ResetAt.Format(time.RFC3339))
}

// Is lets errors.Is(err, &dErrors.Error{Code: dErrors.CodeRateLimited}) match.
func (e *RateLimitedError) Is(target error) bool {
	t, ok := target.(*dErrors.Error)
	return ok && t.Code == dErrors.CodeRateLimited
}
