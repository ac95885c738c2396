package collab

import "errors"

var (
	// ErrNotFound indicates the requested entity is absent upstream.
	ErrNotFound = errors.New("collab: not found")

	// ErrRateLimited indicates a transient upstream throttle. Retried
	// internally by the retry wrapper; callers should not see it unless the
	// retry budget is exhausted.
	ErrRateLimited = errors.New("collab: rate limited")

	// ErrUnavailable indicates the upstream system is down or unreachable
	// after the retry budget.
	ErrUnavailable = errors.New("collab: unavailable")
)
