// Package report assembles the user-facing sprint report from all upstream
// analysis results. Pure assembly and templating, no new scoring.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/sprintlens/sprintlens/pkg/models"
)

// MaxKeyFindings caps the findings list on a report.
const MaxKeyFindings = 7

// Assembler builds SprintReport values.
type Assembler struct {
	classifier models.StatusClassifier
	now        func() time.Time
}

// Option configures the Assembler.
type Option func(*Assembler)

// WithClassifier sets the status classifier.
func WithClassifier(c models.StatusClassifier) Option {
	return func(a *Assembler) {
		a.classifier = c
	}
}

// WithNow sets the clock (for testing).
func WithNow(now func() time.Time) Option {
	return func(a *Assembler) {
		a.now = now
	}
}

// New creates an assembler.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		classifier: models.DefaultStatusClassifier(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Input carries everything the report surfaces.
type Input struct {
	Sprint          models.Sprint
	Metrics         models.SprintMetrics
	PullRequests    models.PRMetrics
	Risk            models.RiskAssessment
	Recommendations []models.Recommendation
	Issues          []models.Issue
	Reviews         []models.ReviewRequest
	Bottlenecks     []models.BottleneckInfo
	NextSprint      *models.NextSprintSuggestions
}

// Assemble builds the final report. Recommendations pass through unchanged
// except re-sorted by priority.
func (a *Assembler) Assemble(in Input) *models.SprintReport {
	recs := make([]models.Recommendation, len(in.Recommendations))
	copy(recs, in.Recommendations)
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority < recs[j].Priority
	})

	return &models.SprintReport{
		SprintID:        in.Sprint.ID,
		SprintName:      in.Sprint.Name,
		Summary:         a.summary(in.Sprint, in.Metrics, in.Risk),
		KeyFindings:     a.keyFindings(in),
		Risk:            models.RiskSummary{Level: in.Risk.Level, Justification: in.Risk.Justification},
		Recommendations: recs,
		NextSprint:      in.NextSprint,
		Metrics:         models.ReportMetrics{Sprint: in.Metrics, PullRequests: in.PullRequests},
		GeneratedAt:     a.now(),
	}
}

// summary is a deterministic decision table keyed by sprint state,
// completion band and risk level: three bands each for closed and
// active/planned sprints.
func (a *Assembler) summary(sprint models.Sprint, m models.SprintMetrics, risk models.RiskAssessment) string {
	rate := m.CompletionRate
	closed := sprint.State == models.SprintClosed

	if closed {
		switch {
		case rate >= 80:
			return fmt.Sprintf(
				"%s closed strong: %.0f%% of committed work completed with %s risk going into the next sprint.",
				sprint.Name, rate, risk.Level)
		case rate >= 50:
			return fmt.Sprintf(
				"%s closed with mixed results: %.0f%% completion and %s residual risk; the remainder carries over.",
				sprint.Name, rate, risk.Level)
		default:
			return fmt.Sprintf(
				"%s closed well short of plan at %.0f%% completion; risk is %s and the causes deserve a retrospective.",
				sprint.Name, rate, risk.Level)
		}
	}

	switch {
	case rate >= 80:
		return fmt.Sprintf(
			"%s is on track at %.0f%% completion with %s risk.",
			sprint.Name, rate, risk.Level)
	case rate >= 50:
		return fmt.Sprintf(
			"%s is progressing at %.0f%% completion; risk is %s and the remaining scope needs attention.",
			sprint.Name, rate, risk.Level)
	default:
		return fmt.Sprintf(
			"%s is behind at %.0f%% completion with %s risk; act now to protect the sprint goal.",
			sprint.Name, rate, risk.Level)
	}
}

// keyFindings produces up to 7 ordered facts about the sprint.
func (a *Assembler) keyFindings(in Input) []string {
	var findings []string
	add := func(s string) {
		if len(findings) < MaxKeyFindings {
			findings = append(findings, s)
		}
	}

	m := in.Metrics

	add(fmt.Sprintf("%d issues completed for a %.1f%% completion rate.", m.Throughput, m.CompletionRate))
	add(fmt.Sprintf("Work in progress is %s (%d active issues).", wipBand(m.WIPCount), m.WIPCount))

	if m.CycleTime > 0 || m.LeadTime > 0 {
		add(fmt.Sprintf("Average cycle time %.1fh, lead time %.1fh.", m.CycleTime, m.LeadTime))
	}

	add(a.prFinding(in.PullRequests, in.Reviews))

	if len(in.Bottlenecks) > 0 {
		add(in.Bottlenecks[0].Description)
	}

	if m.CarryOverCount > 0 {
		add(fmt.Sprintf("%d issues were carried into this sprint from before its start.", m.CarryOverCount))
	}

	if imbalance, ok := a.workloadImbalance(in.Issues); ok {
		add(imbalance)
	}

	return findings
}

// prFinding picks one of four mutually exclusive review-flow observations.
func (a *Assembler) prFinding(pr models.PRMetrics, reviews []models.ReviewRequest) string {
	openCount := 0
	for _, r := range reviews {
		if r.IsOpen() {
			openCount++
		}
	}

	switch {
	case pr.AverageLatency > 48:
		return fmt.Sprintf("Pull requests take %.1fh on average to merge.", pr.AverageLatency)
	case pr.AverageTimeToFirstReview > 24:
		return fmt.Sprintf("First review feedback takes %.1fh on average.", pr.AverageTimeToFirstReview)
	case openCount > 5:
		return fmt.Sprintf("%d pull requests are open and awaiting review.", openCount)
	default:
		return fmt.Sprintf("Review flow is healthy: %.1fh average merge latency across the sprint.", pr.AverageLatency)
	}
}

// workloadImbalance reports when the busiest assignee carries more than 1.5x
// the mean active load across at least two assignees.
func (a *Assembler) workloadImbalance(issues []models.Issue) (string, bool) {
	load := make(map[string]int)
	for _, issue := range issues {
		if issue.Assignee == "" {
			continue
		}
		if a.classifier.IsActive(issue.Status) {
			load[issue.Assignee]++
		}
	}
	if len(load) < 2 {
		return "", false
	}

	var total, max int
	var busiest string
	for name, n := range load {
		total += n
		if n > max || (n == max && name < busiest) {
			max, busiest = n, name
		}
	}
	mean := float64(total) / float64(len(load))
	if float64(max) <= 1.5*mean {
		return "", false
	}

	return fmt.Sprintf(
		"Workload is uneven: %s carries %d active issues against a team mean of %.1f.",
		busiest, max, mean), true
}

// wipBand buckets a WIP count into a qualitative label.
func wipBand(wip int) string {
	switch {
	case wip <= 3:
		return "healthy"
	case wip <= 6:
		return "moderate"
	case wip <= 10:
		return "high"
	default:
		return "very high"
	}
}
