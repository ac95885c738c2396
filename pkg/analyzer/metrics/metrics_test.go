package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/sprintlens/sprintlens/pkg/models"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return now }

func pts(v float64) *float64 { return &v }

// doneIssue builds a completed issue whose cycle time is cycleHours.
func doneIssue(key string, estimate float64, cycleHours float64) models.Issue {
	start := now.Add(-time.Duration(cycleHours) * time.Hour)
	return models.Issue{
		Key:      key,
		Estimate: pts(estimate),
		Status:   "Done",
		Transitions: []models.StatusTransition{
			{FromStatus: "To Do", ToStatus: "In Progress", At: start},
			{FromStatus: "In Progress", ToStatus: "Done", At: now},
		},
	}
}

func TestComputeSprintMetrics(t *testing.T) {
	sprint := models.Sprint{
		ID:      "42",
		State:   models.SprintActive,
		StartAt: now.Add(-7 * 24 * time.Hour),
		EndAt:   now.Add(7 * 24 * time.Hour),
	}
	issues := []models.Issue{
		doneIssue("PROJ-1", 5, 8),
		doneIssue("PROJ-2", 3, 6),
		{
			Key:      "PROJ-3",
			Estimate: pts(8),
			Status:   "In Progress",
			Transitions: []models.StatusTransition{
				{FromStatus: "To Do", ToStatus: "In Progress", At: now.Add(-24 * time.Hour)},
			},
		},
	}

	a := New(WithNow(fixedNow))
	m := a.ComputeSprintMetrics(issues, sprint)

	if m.Throughput != 2 {
		t.Errorf("Throughput = %d, want 2", m.Throughput)
	}
	if m.Velocity != 8 {
		t.Errorf("Velocity = %v, want 8", m.Velocity)
	}
	if m.WIPCount != 1 {
		t.Errorf("WIPCount = %d, want 1", m.WIPCount)
	}
	if math.Abs(m.CompletionRate-66.67) > 0.01 {
		t.Errorf("CompletionRate = %v, want ~66.67", m.CompletionRate)
	}
	if m.CycleTime != 7 {
		t.Errorf("CycleTime = %v, want 7", m.CycleTime)
	}
}

func TestComputeSprintMetrics_Empty(t *testing.T) {
	a := New(WithNow(fixedNow))
	m := a.ComputeSprintMetrics(nil, models.Sprint{})

	if m.Throughput != 0 || m.Velocity != 0 || m.WIPCount != 0 {
		t.Errorf("non-zero counts on empty input: %+v", m)
	}
	if m.CycleTime != 0 || m.LeadTime != 0 || m.CompletionRate != 0 {
		t.Errorf("non-zero averages on empty input: %+v", m)
	}
	if math.IsNaN(m.CycleTime) || math.IsNaN(m.CompletionRate) {
		t.Error("NaN leaked from empty input")
	}
}

func TestComputeSprintMetrics_CarryOver(t *testing.T) {
	sprint := models.Sprint{StartAt: now.Add(-7 * 24 * time.Hour)}
	issues := []models.Issue{
		{
			Key:    "OLD-1",
			Status: "In Progress",
			Transitions: []models.StatusTransition{
				{ToStatus: "In Progress", At: now.Add(-30 * 24 * time.Hour)},
			},
		},
		{
			Key:    "NEW-1",
			Status: "In Progress",
			Transitions: []models.StatusTransition{
				{ToStatus: "In Progress", At: now.Add(-24 * time.Hour)},
			},
		},
	}

	m := New(WithNow(fixedNow)).ComputeSprintMetrics(issues, sprint)
	if m.CarryOverCount != 1 {
		t.Errorf("CarryOverCount = %d, want 1", m.CarryOverCount)
	}
}

func TestCycleTime(t *testing.T) {
	a := New()

	tests := []struct {
		name        string
		transitions []models.StatusTransition
		want        float64
	}{
		{
			name: "simple active to done",
			transitions: []models.StatusTransition{
				{ToStatus: "In Progress", At: now.Add(-10 * time.Hour)},
				{ToStatus: "Done", At: now},
			},
			want: 10,
		},
		{
			name: "reopened, last completion wins",
			transitions: []models.StatusTransition{
				{ToStatus: "In Progress", At: now.Add(-20 * time.Hour)},
				{ToStatus: "Done", At: now.Add(-10 * time.Hour)},
				{ToStatus: "In Progress", At: now.Add(-5 * time.Hour)},
				{ToStatus: "Done", At: now},
			},
			want: 20,
		},
		{
			name: "never started",
			transitions: []models.StatusTransition{
				{ToStatus: "Done", At: now},
			},
			want: 0,
		},
		{
			name: "never completed",
			transitions: []models.StatusTransition{
				{ToStatus: "In Progress", At: now.Add(-10 * time.Hour)},
			},
			want: 0,
		},
		{
			name: "out-of-order timestamps sorted first",
			transitions: []models.StatusTransition{
				{ToStatus: "Done", At: now},
				{ToStatus: "In Progress", At: now.Add(-4 * time.Hour)},
			},
			want: 4,
		},
		{name: "no history", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.CycleTime(models.Issue{Key: "X-1", Transitions: tt.transitions})
			if got != tt.want {
				t.Errorf("CycleTime = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputePRMetrics(t *testing.T) {
	merged1 := now
	merged2 := now
	fr1 := now.Add(-6 * time.Hour)
	fr2 := now.Add(-3 * time.Hour)
	reviews := []models.ReviewRequest{
		{
			ID: "1", State: models.ReviewMerged,
			CreatedAt:     now.Add(-8 * time.Hour),
			FirstReviewAt: &fr1,
			MergedAt:      &merged1,
			Revisions:     3,
			Reviewers:     []models.Reviewer{{Username: "alice"}},
		},
		{
			ID: "2", State: models.ReviewMerged,
			CreatedAt:     now.Add(-4 * time.Hour),
			FirstReviewAt: &fr2,
			MergedAt:      &merged2,
			Revisions:     1,
			Reviewers:     []models.Reviewer{{Username: "bob"}},
		},
	}

	m := New().ComputePRMetrics(reviews)

	if m.AverageLatency != 6 {
		t.Errorf("AverageLatency = %v, want 6", m.AverageLatency)
	}
	if m.AverageTimeToFirstReview != 1.5 {
		t.Errorf("AverageTimeToFirstReview = %v, want 1.5", m.AverageTimeToFirstReview)
	}
	if m.AverageRevisions != 2 {
		t.Errorf("AverageRevisions = %v, want 2", m.AverageRevisions)
	}
}

func TestComputePRMetrics_Empty(t *testing.T) {
	m := New().ComputePRMetrics(nil)
	if m.AverageLatency != 0 || m.AverageTimeToFirstReview != 0 || m.AverageReviewCycles != 0 || m.AverageRevisions != 0 {
		t.Errorf("non-zero averages on empty input: %+v", m)
	}
}

func TestComputePRMetrics_OpenOnly(t *testing.T) {
	// Open PRs contribute cycles and revisions but not latency averages.
	m := New().ComputePRMetrics([]models.ReviewRequest{
		{ID: "1", State: models.ReviewOpen, CreatedAt: now.Add(-100 * time.Hour), Revisions: 4},
	})
	if m.AverageLatency != 0 {
		t.Errorf("AverageLatency = %v, want 0 for unmerged", m.AverageLatency)
	}
	if m.AverageRevisions != 4 {
		t.Errorf("AverageRevisions = %v, want 4", m.AverageRevisions)
	}
}

func TestFindBottlenecks(t *testing.T) {
	// Two issues stuck ~48h in Code Review against quick In Progress dwell.
	issues := []models.Issue{
		{
			Key: "A-1",
			Transitions: []models.StatusTransition{
				{ToStatus: "In Progress", At: now.Add(-50 * time.Hour)},
				{ToStatus: "Code Review", At: now.Add(-48 * time.Hour)},
				{ToStatus: "Done", At: now},
			},
		},
		{
			Key: "A-2",
			Transitions: []models.StatusTransition{
				{ToStatus: "In Progress", At: now.Add(-49 * time.Hour)},
				{ToStatus: "Code Review", At: now.Add(-48 * time.Hour)},
				{ToStatus: "Done", At: now},
			},
		},
	}

	found := New().FindBottlenecks(issues)
	if len(found) != 1 {
		t.Fatalf("bottlenecks = %d, want 1", len(found))
	}

	b := found[0]
	if b.Location != "Code Review" {
		t.Errorf("Location = %q, want Code Review", b.Location)
	}
	if b.Severity < 1 || b.Severity > 10 {
		t.Errorf("Severity = %d, out of [1,10]", b.Severity)
	}
	if len(b.AffectedIssues) != 2 || b.AffectedIssues[0] != "A-1" {
		t.Errorf("AffectedIssues = %v, want sorted [A-1 A-2]", b.AffectedIssues)
	}
}

func TestFindBottlenecks_RequiresMinIssues(t *testing.T) {
	// A single slow issue is noise, not a bottleneck.
	issues := []models.Issue{
		{
			Key: "A-1",
			Transitions: []models.StatusTransition{
				{ToStatus: "In Progress", At: now.Add(-100 * time.Hour)},
				{ToStatus: "Done", At: now},
			},
		},
	}
	if found := New().FindBottlenecks(issues); len(found) != 0 {
		t.Errorf("bottlenecks = %v, want none", found)
	}
}

func TestFindBottlenecks_NoHistory(t *testing.T) {
	if found := New().FindBottlenecks([]models.Issue{{Key: "A-1"}}); found != nil {
		t.Errorf("bottlenecks = %v, want nil", found)
	}
}

func TestIssueDwellAverage(t *testing.T) {
	a := New()
	issue := models.Issue{Transitions: []models.StatusTransition{
		{At: now.Add(-10 * time.Hour)},
		{At: now.Add(-6 * time.Hour)},
		{At: now},
	}}
	if got := a.IssueDwellAverage(issue); got != 5 {
		t.Errorf("IssueDwellAverage = %v, want 5", got)
	}
	if got := a.IssueDwellAverage(models.Issue{}); got != 0 {
		t.Errorf("IssueDwellAverage no history = %v, want 0", got)
	}
}
