package risk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sprintlens/sprintlens/pkg/models"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		factors []models.RiskFactor
		want    int
	}{
		{"no factors", nil, 0},
		{"single max factor", []models.RiskFactor{{Severity: 10}}, 100},
		{"single mid factor", []models.RiskFactor{{Severity: 5}}, 50},
		{"mean of two", []models.RiskFactor{{Severity: 4}, {Severity: 8}}, 60},
		{"rounds", []models.RiskFactor{{Severity: 3}, {Severity: 4}}, 35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.factors); got != tt.want {
				t.Errorf("Score = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClassifyRiskScore(t *testing.T) {
	tests := []struct {
		score int
		want  models.RiskLevel
	}{
		{0, models.RiskLow},
		{33, models.RiskLow},
		{34, models.RiskMedium},
		{66, models.RiskMedium},
		{67, models.RiskHigh},
		{100, models.RiskHigh},
	}

	for _, tt := range tests {
		if got := models.ClassifyRiskScore(tt.score); got != tt.want {
			t.Errorf("ClassifyRiskScore(%d) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestAssess_NoRisk(t *testing.T) {
	a := New()
	got := a.Assess(Input{
		Sprint: models.SprintMetrics{CompletionRate: 85, Velocity: 20},
	})

	if got.Score != 0 {
		t.Errorf("Score = %d, want 0", got.Score)
	}
	if got.Level != models.RiskLow {
		t.Errorf("Level = %v, want low", got.Level)
	}
	if len(got.Factors) != 0 {
		t.Errorf("Factors = %v, want none", got.Factors)
	}
	if !strings.Contains(got.Justification, "No significant risk factors") {
		t.Errorf("Justification = %q", got.Justification)
	}
}

func TestAssess_ReviewerBottleneck(t *testing.T) {
	// Ten open reviews queued behind one reviewer.
	reviews := make([]models.ReviewRequest, 10)
	for i := range reviews {
		reviews[i] = models.ReviewRequest{
			ID:        fmt.Sprintf("pr-%d", i),
			State:     models.ReviewOpen,
			Reviewers: []models.Reviewer{{Username: "alice"}},
		}
	}

	a := New()
	got := a.Assess(Input{
		Sprint:  models.SprintMetrics{CompletionRate: 80},
		Reviews: reviews,
	})

	var factor *models.RiskFactor
	for i := range got.Factors {
		if got.Factors[i].Category == models.RiskBottleneck {
			factor = &got.Factors[i]
		}
	}
	if factor == nil {
		t.Fatalf("no BOTTLENECK factor in %+v", got.Factors)
	}
	if factor.Severity < 6 {
		t.Errorf("Severity = %d, want >= 6", factor.Severity)
	}
	if !strings.Contains(factor.Description, "alice") {
		t.Errorf("Description = %q, want reviewer named", factor.Description)
	}
}

func TestDetectPRDelays(t *testing.T) {
	a := New()

	tests := []struct {
		name    string
		pr      models.PRMetrics
		history []models.HistoricalMetrics
		fires   bool
	}{
		{
			name:  "absolute latency over limit",
			pr:    models.PRMetrics{AverageLatency: 60},
			fires: true,
		},
		{
			name:  "slow first review alone",
			pr:    models.PRMetrics{AverageLatency: 10, AverageTimeToFirstReview: 30},
			fires: true,
		},
		{
			name:  "healthy flow",
			pr:    models.PRMetrics{AverageLatency: 10, AverageTimeToFirstReview: 4},
			fires: false,
		},
		{
			name: "regression against baseline",
			pr:   models.PRMetrics{AverageLatency: 30},
			history: []models.HistoricalMetrics{
				{PullRequests: models.PRMetrics{AverageLatency: 10}},
			},
			fires: true,
		},
		{
			name: "within baseline tolerance",
			pr:   models.PRMetrics{AverageLatency: 12},
			history: []models.HistoricalMetrics{
				{PullRequests: models.PRMetrics{AverageLatency: 10}},
			},
			fires: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := a.detectPRDelays(Input{PullRequests: tt.pr, History: tt.history})
			if (f != nil) != tt.fires {
				t.Errorf("fired = %v, want %v (factor %+v)", f != nil, tt.fires, f)
			}
		})
	}
}

func TestDetectHighWIP_PerAssignee(t *testing.T) {
	a := New()

	issues := make([]models.Issue, 6)
	for i := range issues {
		issues[i] = models.Issue{
			Key:      fmt.Sprintf("X-%d", i),
			Assignee: "bob",
			Status:   "In Progress",
		}
	}

	f := a.detectHighWIP(Input{Issues: issues})
	if f == nil {
		t.Fatal("expected HIGH_WIP factor")
	}
	if f.Category != models.RiskHighWIP {
		t.Errorf("Category = %v", f.Category)
	}
	if !strings.Contains(f.Description, "bob") {
		t.Errorf("Description = %q, want assignee named", f.Description)
	}
}

func TestDetectHighWIP_AggregateFallback(t *testing.T) {
	a := New()

	// No issue detail: falls back to the aggregate WIP count.
	if f := a.detectHighWIP(Input{Sprint: models.SprintMetrics{WIPCount: 12}}); f == nil {
		t.Error("expected aggregate HIGH_WIP factor")
	}
	if f := a.detectHighWIP(Input{Sprint: models.SprintMetrics{WIPCount: 4}}); f != nil {
		t.Errorf("unexpected factor %+v", f)
	}
}

func TestDetectHighWIP_UnassignedIssues(t *testing.T) {
	a := New()

	// Active issues with no assignee give the per-assignee check nothing
	// to work with; the aggregate count still fires.
	issues := make([]models.Issue, 12)
	for i := range issues {
		issues[i] = models.Issue{
			Key:    fmt.Sprintf("X-%d", i),
			Status: "In Progress",
		}
	}

	f := a.detectHighWIP(Input{
		Sprint: models.SprintMetrics{WIPCount: 12},
		Issues: issues,
	})
	if f == nil {
		t.Fatal("expected aggregate HIGH_WIP factor for unassigned issues")
	}
	if !strings.Contains(f.Description, "across the sprint") {
		t.Errorf("Description = %q, want aggregate wording", f.Description)
	}
}

func TestDetectCarryOverAndComplexity(t *testing.T) {
	a := New()

	in := Input{Sprint: models.SprintMetrics{CompletionRate: 40, Velocity: 10}}
	if f := a.detectCarryOver(in); f == nil {
		t.Error("expected CARRY_OVER factor at 40% completion")
	}
	if f := a.detectComplexity(in); f == nil {
		t.Error("expected COMPLEXITY factor at 40% completion")
	}

	// Complexity needs evidence that work was attempted.
	noWork := Input{Sprint: models.SprintMetrics{CompletionRate: 40, Velocity: 0}}
	if f := a.detectComplexity(noWork); f != nil {
		t.Errorf("unexpected COMPLEXITY factor with zero velocity: %+v", f)
	}
}

func TestJustify_TopThree(t *testing.T) {
	a := New()
	factors := []models.RiskFactor{
		{Severity: 2, Description: "two."},
		{Severity: 9, Description: "nine."},
		{Severity: 5, Description: "five."},
		{Severity: 7, Description: "seven."},
	}

	got := a.justify(models.RiskHigh, factors, 50)
	for _, want := range []string{"nine.", "seven.", "five."} {
		if !strings.Contains(got, want) {
			t.Errorf("justification missing %q: %q", want, got)
		}
	}
	if strings.Contains(got, "two.") {
		t.Errorf("justification includes fourth factor: %q", got)
	}
}
