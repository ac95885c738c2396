package collab

import (
	"context"
	"errors"

	"github.com/sprintlens/sprintlens/pkg/models"
)

// HealthTrackedReviewSystem wraps a ReviewSystem with per-pass availability
// tracking: once the system signals total unavailability, subsequent calls
// in the same pass short-circuit to an empty result without retrying.
//
// One instance is created per analysis pass, so availability state is never
// shared across passes.
type HealthTrackedReviewSystem struct {
	inner       ReviewSystem
	unavailable bool
}

// NewHealthTracked wraps rs for a single analysis pass.
func NewHealthTracked(rs ReviewSystem) *HealthTrackedReviewSystem {
	return &HealthTrackedReviewSystem{inner: rs}
}

// FetchReviewRequestsForIssues fetches reviews, degrading to an empty list
// when the review system is unavailable. The error is absorbed: review data
// is optional and the pass proceeds without it.
func (h *HealthTrackedReviewSystem) FetchReviewRequestsForIssues(ctx context.Context, issueKeys []string) ([]models.ReviewRequest, error) {
	if h.unavailable {
		return nil, nil
	}

	reviews, err := h.inner.FetchReviewRequestsForIssues(ctx, issueKeys)
	if err != nil {
		if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrRateLimited) {
			h.unavailable = true
			return nil, nil
		}
		return nil, err
	}
	return reviews, nil
}

// Unavailable reports whether the review system went dark during this pass.
func (h *HealthTrackedReviewSystem) Unavailable() bool {
	return h.unavailable
}
