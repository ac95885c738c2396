package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/sprintlens/sprintlens/internal/collab"
	"github.com/sprintlens/sprintlens/pkg/models"
)

// snapshot is the raw-data unit cached between passes: the sprint plus its
// issues with transition history attached.
type snapshot struct {
	Sprint models.Sprint  `json:"sprint"`
	Issues []models.Issue `json:"issues"`
}

// collect runs the two independent fetches concurrently: the issue-tracker
// snapshot and the historical-trend lookup. Their failures are independent:
// a history failure never fails the snapshot fetch, and only the snapshot
// error propagates.
func (s *Service) collect(ctx context.Context, sprintID string, o analyzeOptions) (snapshot, []models.HistoricalMetrics, error) {
	var (
		snap    snapshot
		snapErr error
		history []models.HistoricalMetrics
	)

	wg := conc.NewWaitGroup()
	wg.Go(func() {
		snap, snapErr = s.fetchSnapshot(ctx, sprintID, o.forceRefresh)
	})
	wg.Go(func() {
		history = s.fetchHistory(ctx, o.boardID)
	})
	wg.Wait()

	if snapErr != nil {
		return snapshot{}, nil, snapErr
	}
	return snap, history, nil
}

// fetchSnapshot returns the sprint and its issues, from cache when fresh.
// A missing sprint upstream falls back to a minimal synthetic sprint with a
// guessed 14-day window rather than failing the pass.
func (s *Service) fetchSnapshot(ctx context.Context, sprintID string, force bool) (snapshot, error) {
	key := snapshotKey(sprintID)

	if !force {
		if data, ok, err := s.store.Get(ctx, key); err != nil {
			s.log.Warnw("snapshot cache read failed", "sprint", sprintID, "error", err)
		} else if ok {
			var snap snapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				s.log.Debugw("snapshot cache hit", "sprint", sprintID)
				return snap, nil
			}
			s.log.Warnw("snapshot cache entry corrupt", "sprint", sprintID)
		}
	}

	if s.tracker == nil {
		return snapshot{}, fmt.Errorf("no issue tracker configured: %w", collab.ErrUnavailable)
	}

	sprint, err := s.tracker.FetchSprintMetadata(ctx, sprintID)
	if err != nil {
		if !errors.Is(err, collab.ErrNotFound) {
			return snapshot{}, fmt.Errorf("fetch sprint %s: %w", sprintID, err)
		}
		sprint = s.fallbackSprint(sprintID)
		s.log.Warnw("sprint not found upstream, using synthetic fallback", "sprint", sprintID)
	}

	issues, err := s.tracker.FetchSprintIssues(ctx, sprintID)
	if err != nil {
		return snapshot{}, fmt.Errorf("fetch issues for %s: %w", sprintID, err)
	}

	for i := range issues {
		if len(issues[i].Transitions) > 0 {
			continue
		}
		transitions, err := s.tracker.FetchIssueTransitions(ctx, issues[i].Key)
		if err != nil {
			return snapshot{}, fmt.Errorf("fetch transitions for %s: %w", issues[i].Key, err)
		}
		issues[i].Transitions = transitions
	}

	snap := snapshot{Sprint: sprint, Issues: issues}
	if data, err := json.Marshal(snap); err == nil {
		ttl := time.Duration(s.cfg.Cache.SnapshotTTL) * time.Minute
		if err := s.store.Set(ctx, key, data, ttl); err != nil {
			s.log.Warnw("snapshot cache write failed", "sprint", sprintID, "error", err)
		}
	}

	return snap, nil
}

// fetchHistory reads persisted metrics for the board's recent closed
// sprints. Any failure degrades silently to no history: next-sprint
// suggestions are simply omitted downstream.
func (s *Service) fetchHistory(ctx context.Context, boardID string) []models.HistoricalMetrics {
	if boardID == "" || s.tracker == nil {
		return nil
	}

	sprints, err := s.tracker.FetchHistoricalSprints(ctx, boardID, historicalSprintCount)
	if err != nil {
		s.log.Warnw("historical sprint lookup failed", "board", boardID, "error", err)
		return nil
	}

	// Sprints arrive most recent first; the history list keeps that order.
	var history []models.HistoricalMetrics
	for _, sprint := range sprints {
		data, ok, err := s.store.Get(ctx, historicalKey(sprint.ID))
		if err != nil {
			s.log.Warnw("historical cache read failed", "sprint", sprint.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		var h models.HistoricalMetrics
		if err := json.Unmarshal(data, &h); err != nil {
			continue
		}
		history = append(history, h)
	}
	return history
}

// collectReviews fetches review requests for the snapshot's issues, from
// cache when fresh. The review system is optional: unavailability degrades
// to an empty set and PR metrics fall back to zeros.
func (s *Service) collectReviews(ctx context.Context, snap snapshot, o analyzeOptions) []models.ReviewRequest {
	if s.reviews == nil || len(snap.Issues) == 0 {
		return nil
	}

	key := reviewsKey(snap.Sprint.ID)
	if !o.forceRefresh {
		if data, ok, err := s.store.Get(ctx, key); err != nil {
			s.log.Warnw("review cache read failed", "sprint", snap.Sprint.ID, "error", err)
		} else if ok {
			var reviews []models.ReviewRequest
			if err := json.Unmarshal(data, &reviews); err == nil {
				return reviews
			}
		}
	}

	keys := make([]string, len(snap.Issues))
	for i, issue := range snap.Issues {
		keys[i] = issue.Key
	}

	tracked := collab.NewHealthTracked(s.reviews)
	reviews, err := tracked.FetchReviewRequestsForIssues(ctx, keys)
	if err != nil {
		s.log.Warnw("review fetch failed, proceeding without review data",
			"sprint", snap.Sprint.ID, "error", err)
		return nil
	}
	if tracked.Unavailable() {
		s.log.Warnw("review system unavailable, proceeding without review data",
			"sprint", snap.Sprint.ID)
		return nil
	}

	if data, err := json.Marshal(reviews); err == nil {
		ttl := time.Duration(s.cfg.Cache.ReviewTTL) * time.Minute
		if err := s.store.Set(ctx, key, data, ttl); err != nil {
			s.log.Warnw("review cache write failed", "sprint", snap.Sprint.ID, "error", err)
		}
	}

	return reviews
}

// fallbackSprint synthesizes a minimal active sprint with a 14-day window
// centered on now. A deliberate leniency: analysis proceeds on a guessed
// window instead of propagating NotFound.
func (s *Service) fallbackSprint(sprintID string) models.Sprint {
	now := s.now()
	return models.Sprint{
		ID:      sprintID,
		Name:    "Sprint " + sprintID,
		State:   models.SprintActive,
		StartAt: now.AddDate(0, 0, -7),
		EndAt:   now.AddDate(0, 0, 7),
	}
}
