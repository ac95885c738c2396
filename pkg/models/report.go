package models

import "time"

// Impact grades how much difference acting on a recommendation makes.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// String implements fmt.Stringer.
func (i Impact) String() string { return string(i) }

// ImpactRank orders impacts for sorting: high < medium < low.
func ImpactRank(i Impact) int {
	switch i {
	case ImpactHigh:
		return 0
	case ImpactMedium:
		return 1
	default:
		return 2
	}
}

// RecommendationCategory identifies the lever a recommendation pulls.
type RecommendationCategory string

const (
	RecommendScope    RecommendationCategory = "SCOPE"
	RecommendReviewer RecommendationCategory = "REVIEWER"
	RecommendWIP      RecommendationCategory = "WIP"
	RecommendProcess  RecommendationCategory = "PROCESS"
	RecommendPlanning RecommendationCategory = "PLANNING"
)

// Recommendation is one prioritized action item. Priority 1 is highest; after
// final sorting priorities form a contiguous 1..k sequence.
type Recommendation struct {
	Priority    int                    `json:"priority"`
	Category    RecommendationCategory `json:"category"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Impact      Impact                 `json:"impact"`
}

// ReviewerAssignment suggests a target open-review load for one reviewer.
type ReviewerAssignment struct {
	Reviewer        string `json:"reviewer"`
	CurrentLoad     int    `json:"current_load"`
	RecommendedLoad int    `json:"recommended_load"`
	Rationale       string `json:"rationale"`
}

// NextSprintSuggestions carries planning guidance for the following sprint.
// Omitted from the report when no historical data is available.
type NextSprintSuggestions struct {
	TargetStoryPoints   int                  `json:"target_story_points"`
	TasksToInclude      []string             `json:"tasks_to_include"`
	TasksToPostpone     []string             `json:"tasks_to_postpone"`
	ReviewerAssignments []ReviewerAssignment `json:"reviewer_assignments"`
	// VelocityTrend is a one-sentence read of the historical velocity
	// regression, empty with fewer than two past sprints.
	VelocityTrend string `json:"velocity_trend,omitempty"`
}

// RiskSummary is the trimmed risk view exposed on the report.
type RiskSummary struct {
	Level         RiskLevel `json:"level"`
	Justification string    `json:"justification"`
}

// ReportMetrics groups the metric snapshots exposed on the report.
type ReportMetrics struct {
	Sprint       SprintMetrics `json:"sprint"`
	PullRequests PRMetrics     `json:"pull_requests"`
}

// SprintReport is the terminal aggregate of an analysis pass. Created once
// per pass and never mutated; a new analysis produces a new report.
type SprintReport struct {
	SprintID        string                 `json:"sprint_id"`
	SprintName      string                 `json:"sprint_name"`
	Summary         string                 `json:"summary"`
	KeyFindings     []string               `json:"key_findings"` // max 7
	Risk            RiskSummary            `json:"risk"`
	Recommendations []Recommendation       `json:"recommendations"` // max 7
	NextSprint      *NextSprintSuggestions `json:"next_sprint,omitempty"`
	Metrics         ReportMetrics          `json:"metrics"`
	GeneratedAt     time.Time              `json:"generated_at"`
}
