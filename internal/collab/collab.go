// Package collab defines the narrow contracts for the two external data
// providers, plus the retry and availability wrappers the orchestrator
// composes around them.
package collab

import (
	"context"

	"github.com/sprintlens/sprintlens/pkg/models"
)

// IssueTracker is the primary data source. Implementations own pagination
// and deduplication; every method is idempotent and safe to retry.
type IssueTracker interface {
	// FetchSprintMetadata returns the sprint, or ErrNotFound when no
	// matching sprint exists upstream.
	FetchSprintMetadata(ctx context.Context, sprintID string) (models.Sprint, error)

	// FetchSprintIssues returns the complete, deduplicated issue list for a
	// sprint. Issues may arrive without transition history.
	FetchSprintIssues(ctx context.Context, sprintID string) ([]models.Issue, error)

	// FetchIssueTransitions returns the workflow history for one issue.
	// Expensive; called once per issue during full collection.
	FetchIssueTransitions(ctx context.Context, issueKey string) ([]models.StatusTransition, error)

	// FetchHistoricalSprints returns the most recent closed sprints for a
	// board, most recent first.
	FetchHistoricalSprints(ctx context.Context, boardID string, count int) ([]models.Sprint, error)
}

// ReviewSystem is the secondary, optional data source.
type ReviewSystem interface {
	// FetchReviewRequestsForIssues returns review requests linked to any of
	// the given issue keys, deduplicated by identifier.
	FetchReviewRequestsForIssues(ctx context.Context, issueKeys []string) ([]models.ReviewRequest, error)
}
