package spillover

import (
	"testing"
	"time"

	"github.com/sprintlens/sprintlens/pkg/models"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func pts(v float64) *float64 { return &v }

func TestPredict_EndedSprint(t *testing.T) {
	sprint := models.Sprint{
		State:   models.SprintClosed,
		StartAt: now.Add(-21 * 24 * time.Hour),
		EndAt:   now.Add(-7 * 24 * time.Hour),
	}
	issues := []models.Issue{
		{Key: "X-1", Status: "In Progress"},
		{Key: "X-2", Status: "Done"},
		{Key: "X-3", Status: "To Do"},
	}

	got := New().Predict(issues, sprint, now, nil)

	if len(got) != 2 {
		t.Fatalf("predictions = %d, want 2 (completed issue excluded)", len(got))
	}
	for _, p := range got {
		if p.Probability != 1.0 {
			t.Errorf("%s: Probability = %v, want 1.0", p.IssueKey, p.Probability)
		}
		if len(p.Reasons) != 1 || p.Reasons[0] != "sprint ended, issue incomplete" {
			t.Errorf("%s: Reasons = %v", p.IssueKey, p.Reasons)
		}
	}
}

func TestPredict_CompletedNeverAppears(t *testing.T) {
	sprint := models.Sprint{
		State:   models.SprintActive,
		StartAt: now.Add(-7 * 24 * time.Hour),
		EndAt:   now.Add(24 * time.Hour),
	}
	issues := []models.Issue{
		{Key: "X-1", Status: "Closed"},
		{Key: "X-2", Status: "Resolved"},
	}

	if got := New().Predict(issues, sprint, now, nil); len(got) != 0 {
		t.Errorf("predictions for completed issues: %v", got)
	}
}

func TestPredict_AtRiskIssueReported(t *testing.T) {
	// One day left, large unstarted unassigned issue: heavy spillover.
	sprint := models.Sprint{
		State:   models.SprintActive,
		StartAt: now.Add(-13 * 24 * time.Hour),
		EndAt:   now.Add(24 * time.Hour),
	}
	issues := []models.Issue{
		{Key: "BIG-1", Status: "To Do", Estimate: pts(13)},
	}

	got := New().Predict(issues, sprint, now, nil)
	if len(got) != 1 {
		t.Fatalf("predictions = %d, want 1", len(got))
	}

	p := got[0]
	if p.Probability <= 0.3 {
		t.Errorf("Probability = %v, want > threshold", p.Probability)
	}
	if p.Probability > 1 {
		t.Errorf("Probability = %v, not clamped", p.Probability)
	}
	if len(p.Reasons) == 0 {
		t.Error("no reasons recorded")
	}
}

func TestPredict_HealthyIssueFiltered(t *testing.T) {
	// Small assigned in-progress issue with a week left stays under the
	// reporting threshold.
	sprint := models.Sprint{
		State:   models.SprintActive,
		StartAt: now.Add(-7 * 24 * time.Hour),
		EndAt:   now.Add(7 * 24 * time.Hour),
	}
	issues := []models.Issue{
		{
			Key: "OK-1", Status: "In Progress", Assignee: "alice", Estimate: pts(2),
			Transitions: []models.StatusTransition{
				{ToStatus: "In Progress", At: now.Add(-4 * time.Hour)},
			},
			ReviewIDs: []string{"pr-1"},
		},
	}

	if got := New().Predict(issues, sprint, now, nil); len(got) != 0 {
		t.Errorf("healthy issue reported: %+v", got)
	}
}

func TestPredict_SortedDescending(t *testing.T) {
	sprint := models.Sprint{
		State:   models.SprintActive,
		StartAt: now.Add(-13 * 24 * time.Hour),
		EndAt:   now.Add(24 * time.Hour),
	}
	issues := []models.Issue{
		{Key: "MID-1", Status: "In Progress", Assignee: "alice", Estimate: pts(8)},
		{Key: "BAD-1", Status: "To Do", Estimate: pts(13)},
	}

	got := New().Predict(issues, sprint, now, nil)
	if len(got) < 2 {
		t.Fatalf("predictions = %d, want 2", len(got))
	}
	if got[0].Probability < got[1].Probability {
		t.Errorf("not sorted descending: %v then %v", got[0].Probability, got[1].Probability)
	}
	if got[0].IssueKey != "BAD-1" {
		t.Errorf("highest risk = %s, want BAD-1", got[0].IssueKey)
	}
}

func TestHoursPerPoint(t *testing.T) {
	p := New()

	if got := p.hoursPerPoint(nil); got != 8 {
		t.Errorf("hoursPerPoint(nil) = %v, want default 8", got)
	}

	m := &models.SprintMetrics{CycleTime: 16, Velocity: 8, Throughput: 2}
	// 4 points per issue, 16h per issue -> 4h per point.
	if got := p.hoursPerPoint(m); got != 4 {
		t.Errorf("hoursPerPoint = %v, want 4", got)
	}
}
