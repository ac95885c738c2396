package models

import "time"

// SprintMetrics holds quantitative sprint health numbers derived once per
// analysis pass. Durations are hours.
type SprintMetrics struct {
	CycleTime      float64 `json:"cycle_time"`
	LeadTime       float64 `json:"lead_time"`
	Throughput     int     `json:"throughput"`
	Velocity       float64 `json:"velocity"`
	WIPCount       int     `json:"wip_count"`
	CarryOverCount int     `json:"carry_over_count"`
	CompletionRate float64 `json:"completion_rate"` // percentage, 0-100
}

// PRMetrics holds review-flow averages derived from review requests.
// Durations are hours; cycle/revision averages are unitless.
type PRMetrics struct {
	AverageLatency           float64 `json:"average_latency"`
	AverageTimeToFirstReview float64 `json:"average_time_to_first_review"`
	AverageReviewCycles      float64 `json:"average_review_cycles"`
	AverageRevisions         float64 `json:"average_revisions"`
}

// HistoricalMetrics is a write-once snapshot persisted when a sprint closes,
// read back for trend comparison and next-sprint target setting.
type HistoricalMetrics struct {
	SprintID     string        `json:"sprint_id"`
	SprintName   string        `json:"sprint_name"`
	CompletedAt  time.Time     `json:"completed_at"`
	Sprint       SprintMetrics `json:"sprint"`
	PullRequests PRMetrics     `json:"pull_requests"`
}

// BottleneckType categorizes where a bottleneck lives.
type BottleneckType string

const (
	BottleneckStatus     BottleneckType = "STATUS"
	BottleneckReviewer   BottleneckType = "REVIEWER"
	BottleneckDependency BottleneckType = "DEPENDENCY"
)

// BottleneckInfo describes a workflow stage with abnormally high dwell time.
type BottleneckInfo struct {
	Location       string         `json:"location"` // status name or reviewer identity
	Type           BottleneckType `json:"type"`
	AffectedIssues []string       `json:"affected_issues"`
	Severity       int            `json:"severity"` // 0-10
	Description    string         `json:"description"`
}

// SpilloverPrediction estimates the chance an issue remains incomplete past
// sprint end.
type SpilloverPrediction struct {
	IssueKey    string   `json:"issue_key"`
	Probability float64  `json:"probability"` // 0.0-1.0
	Reasons     []string `json:"reasons"`
}
