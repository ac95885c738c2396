package collab

import (
	"context"
	"errors"

	"github.com/sprintlens/sprintlens/pkg/models"
	"github.com/sprintlens/sprintlens/pkg/retry"
)

// retryable classifies transient collaborator failures. NotFound is
// definitive and never retried.
func retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}

// RetryingIssueTracker wraps an IssueTracker with bounded exponential
// backoff.
type RetryingIssueTracker struct {
	inner IssueTracker
	cfg   retry.Config
}

// NewRetryingIssueTracker wraps tracker with the given retry config.
func NewRetryingIssueTracker(tracker IssueTracker, cfg retry.Config) *RetryingIssueTracker {
	cfg.Retryable = retryable
	return &RetryingIssueTracker{inner: tracker, cfg: cfg}
}

func (t *RetryingIssueTracker) FetchSprintMetadata(ctx context.Context, sprintID string) (models.Sprint, error) {
	return retry.DoWithResult(ctx, t.cfg, func() (models.Sprint, error) {
		return t.inner.FetchSprintMetadata(ctx, sprintID)
	})
}

func (t *RetryingIssueTracker) FetchSprintIssues(ctx context.Context, sprintID string) ([]models.Issue, error) {
	return retry.DoWithResult(ctx, t.cfg, func() ([]models.Issue, error) {
		return t.inner.FetchSprintIssues(ctx, sprintID)
	})
}

func (t *RetryingIssueTracker) FetchIssueTransitions(ctx context.Context, issueKey string) ([]models.StatusTransition, error) {
	return retry.DoWithResult(ctx, t.cfg, func() ([]models.StatusTransition, error) {
		return t.inner.FetchIssueTransitions(ctx, issueKey)
	})
}

func (t *RetryingIssueTracker) FetchHistoricalSprints(ctx context.Context, boardID string, count int) ([]models.Sprint, error) {
	return retry.DoWithResult(ctx, t.cfg, func() ([]models.Sprint, error) {
		return t.inner.FetchHistoricalSprints(ctx, boardID, count)
	})
}

// RetryingReviewSystem wraps a ReviewSystem with bounded exponential
// backoff.
type RetryingReviewSystem struct {
	inner ReviewSystem
	cfg   retry.Config
}

// NewRetryingReviewSystem wraps rs with the given retry config.
func NewRetryingReviewSystem(rs ReviewSystem, cfg retry.Config) *RetryingReviewSystem {
	cfg.Retryable = retryable
	return &RetryingReviewSystem{inner: rs, cfg: cfg}
}

func (r *RetryingReviewSystem) FetchReviewRequestsForIssues(ctx context.Context, issueKeys []string) ([]models.ReviewRequest, error) {
	return retry.DoWithResult(ctx, r.cfg, func() ([]models.ReviewRequest, error) {
		return r.inner.FetchReviewRequestsForIssues(ctx, issueKeys)
	})
}
