package report

import (
	"strings"
	"testing"
	"time"

	"github.com/sprintlens/sprintlens/pkg/models"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return now }

func TestAssemble_EmptyInputs(t *testing.T) {
	a := New(WithNow(fixedNow))

	got := a.Assemble(Input{
		Sprint: models.Sprint{ID: "42", Name: "Sprint 42", State: models.SprintActive},
		Risk:   models.RiskAssessment{Level: models.RiskLow, Justification: "No significant risk factors detected; the sprint is tracking at 0% completion."},
	})

	if got.SprintID != "42" || got.SprintName != "Sprint 42" {
		t.Errorf("identity = %s/%s", got.SprintID, got.SprintName)
	}
	if got.Summary == "" {
		t.Error("empty summary")
	}
	if len(got.KeyFindings) == 0 {
		t.Error("empty findings")
	}
	if got.Recommendations == nil {
		t.Error("Recommendations is nil, want non-nil (possibly empty)")
	}
	if got.NextSprint != nil {
		t.Error("NextSprint set without suggestions")
	}
	if !got.GeneratedAt.Equal(now) {
		t.Errorf("GeneratedAt = %v", got.GeneratedAt)
	}
	if got.Metrics.Sprint.Throughput != 0 {
		t.Errorf("Metrics = %+v, want zeroed", got.Metrics)
	}
}

func TestAssemble_SortsRecommendations(t *testing.T) {
	a := New(WithNow(fixedNow))

	got := a.Assemble(Input{
		Sprint: models.Sprint{ID: "1", Name: "S1"},
		Recommendations: []models.Recommendation{
			{Priority: 3, Title: "third"},
			{Priority: 1, Title: "first"},
			{Priority: 2, Title: "second"},
		},
	})

	want := []string{"first", "second", "third"}
	for i, w := range want {
		if got.Recommendations[i].Title != w {
			t.Errorf("Recommendations[%d] = %q, want %q", i, got.Recommendations[i].Title, w)
		}
	}
}

func TestSummaryDecisionTable(t *testing.T) {
	a := New(WithNow(fixedNow))

	tests := []struct {
		name  string
		state models.SprintState
		rate  float64
		level models.RiskLevel
		want  string
	}{
		{"closed strong", models.SprintClosed, 85, models.RiskLow, "closed strong"},
		{"closed mixed", models.SprintClosed, 60, models.RiskMedium, "mixed results"},
		{"closed short", models.SprintClosed, 30, models.RiskHigh, "well short of plan"},
		{"active on track", models.SprintActive, 85, models.RiskLow, "on track"},
		{"active progressing", models.SprintActive, 60, models.RiskMedium, "progressing"},
		{"active behind", models.SprintActive, 30, models.RiskHigh, "behind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.summary(
				models.Sprint{Name: "S1", State: tt.state},
				models.SprintMetrics{CompletionRate: tt.rate},
				models.RiskAssessment{Level: tt.level},
			)
			if !strings.Contains(got, tt.want) {
				t.Errorf("summary = %q, want substring %q", got, tt.want)
			}
			if !strings.Contains(got, string(tt.level)) {
				t.Errorf("summary %q does not name the risk level", got)
			}
		})
	}
}

func TestKeyFindings_Cap(t *testing.T) {
	a := New(WithNow(fixedNow))

	// Trip every finding source at once.
	issues := []models.Issue{
		{Key: "X-1", Assignee: "bob", Status: "In Progress"},
		{Key: "X-2", Assignee: "bob", Status: "In Progress"},
		{Key: "X-3", Assignee: "bob", Status: "In Progress"},
		{Key: "X-4", Assignee: "bob", Status: "In Progress"},
		{Key: "X-5", Assignee: "alice", Status: "In Progress"},
	}

	findings := a.keyFindings(Input{
		Metrics: models.SprintMetrics{
			Throughput:     4,
			CompletionRate: 50,
			WIPCount:       8,
			CycleTime:      20,
			LeadTime:       40,
			CarryOverCount: 2,
		},
		PullRequests: models.PRMetrics{AverageLatency: 60},
		Issues:       issues,
		Bottlenecks: []models.BottleneckInfo{
			{Location: "QA", Description: "Issues pile up in QA."},
		},
	})

	if len(findings) > MaxKeyFindings {
		t.Errorf("findings = %d, want <= %d", len(findings), MaxKeyFindings)
	}
	if len(findings) != 7 {
		t.Errorf("findings = %d, want all 7 sources represented", len(findings))
	}
}

func TestPRFinding(t *testing.T) {
	a := New(WithNow(fixedNow))

	openReviews := make([]models.ReviewRequest, 6)
	for i := range openReviews {
		openReviews[i] = models.ReviewRequest{State: models.ReviewOpen}
	}

	tests := []struct {
		name    string
		pr      models.PRMetrics
		reviews []models.ReviewRequest
		want    string
	}{
		{"slow merge wins", models.PRMetrics{AverageLatency: 60, AverageTimeToFirstReview: 30}, openReviews, "to merge"},
		{"slow first review", models.PRMetrics{AverageTimeToFirstReview: 30}, nil, "First review"},
		{"open backlog", models.PRMetrics{}, openReviews, "awaiting review"},
		{"healthy", models.PRMetrics{AverageLatency: 10}, nil, "healthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.prFinding(tt.pr, tt.reviews)
			if !strings.Contains(got, tt.want) {
				t.Errorf("prFinding = %q, want substring %q", got, tt.want)
			}
		})
	}
}

func TestWorkloadImbalance(t *testing.T) {
	a := New(WithNow(fixedNow))

	uneven := []models.Issue{
		{Assignee: "bob", Status: "In Progress"},
		{Assignee: "bob", Status: "In Progress"},
		{Assignee: "bob", Status: "In Progress"},
		{Assignee: "bob", Status: "In Progress"},
		{Assignee: "alice", Status: "In Progress"},
	}
	msg, ok := a.workloadImbalance(uneven)
	if !ok {
		t.Fatal("imbalance not detected")
	}
	if !strings.Contains(msg, "bob") {
		t.Errorf("msg = %q, want busiest assignee named", msg)
	}

	even := []models.Issue{
		{Assignee: "bob", Status: "In Progress"},
		{Assignee: "alice", Status: "In Progress"},
	}
	if _, ok := a.workloadImbalance(even); ok {
		t.Error("imbalance detected on even load")
	}

	solo := []models.Issue{
		{Assignee: "bob", Status: "In Progress"},
		{Assignee: "bob", Status: "In Progress"},
		{Assignee: "bob", Status: "In Progress"},
	}
	if _, ok := a.workloadImbalance(solo); ok {
		t.Error("imbalance needs at least two assignees")
	}
}

func TestWIPBand(t *testing.T) {
	tests := []struct {
		wip  int
		want string
	}{
		{0, "healthy"},
		{3, "healthy"},
		{4, "moderate"},
		{6, "moderate"},
		{7, "high"},
		{10, "high"},
		{11, "very high"},
	}
	for _, tt := range tests {
		if got := wipBand(tt.wip); got != tt.want {
			t.Errorf("wipBand(%d) = %q, want %q", tt.wip, got, tt.want)
		}
	}
}
