package recommend

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sprintlens/sprintlens/pkg/models"
)

// NextSprintInput carries the signal sources for next-sprint planning.
type NextSprintInput struct {
	Sprint  models.SprintMetrics
	History []models.HistoricalMetrics // most recent first
	Risk    models.RiskAssessment
	Issues  []models.Issue
	Reviews []models.ReviewRequest
}

// GenerateNextSprintSuggestions derives a story point target, candidate
// tasks to carry forward or postpone, and reviewer load rebalancing.
func (e *Engine) GenerateNextSprintSuggestions(in NextSprintInput) models.NextSprintSuggestions {
	return models.NextSprintSuggestions{
		TargetStoryPoints:   e.targetStoryPoints(in),
		TasksToInclude:      e.tasksToInclude(in.Issues),
		TasksToPostpone:     e.tasksToPostpone(in),
		ReviewerAssignments: e.reviewerAssignments(in.Reviews),
		VelocityTrend:       velocityTrendSummary(in.History),
	}
}

// velocityTrendSummary renders the historical velocity regression into a
// planning sentence. Empty with fewer than two past sprints.
func velocityTrendSummary(history []models.HistoricalMetrics) string {
	if len(history) < 2 {
		return ""
	}
	trend := VelocityTrend(history)
	switch {
	case trend.Slope > 0.5:
		return fmt.Sprintf("Velocity is trending up %.1f points per sprint over the last %d sprints.", trend.Slope, len(history))
	case trend.Slope < -0.5:
		return fmt.Sprintf("Velocity is trending down %.1f points per sprint over the last %d sprints.", -trend.Slope, len(history))
	default:
		return fmt.Sprintf("Velocity is steady over the last %d sprints.", len(history))
	}
}

// targetStoryPoints averages historical and current velocity, then scales by
// a risk-driven adjustment factor. The target never drops below one point.
func (e *Engine) targetStoryPoints(in NextSprintInput) int {
	velocities := []float64{in.Sprint.Velocity}
	if hv := historicalVelocity(in.History); hv > 0 {
		velocities = append(velocities, hv)
	}

	factor := 1.0
	switch {
	case in.Risk.Level == models.RiskHigh:
		factor = 0.8
	case in.Risk.Level == models.RiskMedium:
		factor = 0.9
	case in.Sprint.CompletionRate > e.thresholds.WellPerformingRate:
		factor = 1.1
	}

	target := round(stat.Mean(velocities, nil) * factor)
	if target < 1 {
		target = 1
	}
	return target
}

// tasksToInclude picks incomplete issues already in an active or review
// status, capped at the include limit.
func (e *Engine) tasksToInclude(issues []models.Issue) []string {
	var keys []string
	for _, issue := range issues {
		if len(keys) == e.limits.MaxInclude {
			break
		}
		if e.classifier.IsCompleted(issue.Status) {
			continue
		}
		if e.classifier.IsActive(issue.Status) {
			keys = append(keys, issue.Key)
		}
	}
	return keys
}

// tasksToPostpone gathers risky issues, but only when the sprint is in
// trouble: high risk or low completion.
func (e *Engine) tasksToPostpone(in NextSprintInput) []string {
	if in.Risk.Level != models.RiskHigh && in.Sprint.CompletionRate >= e.thresholds.CompletionRateFloor {
		return nil
	}
	return issueKeys(e.RiskyIssues(in.Issues), e.limits.MaxPostpone)
}

// reviewerAssignments recommends moving each loaded reviewer toward the mean
// open-review load, capped to the heaviest reviewers.
func (e *Engine) reviewerAssignments(reviews []models.ReviewRequest) []models.ReviewerAssignment {
	load := models.OpenReviewerLoad(reviews)
	if len(load) == 0 {
		return nil
	}

	names := make([]string, 0, len(load))
	var total float64
	for name, n := range load {
		names = append(names, name)
		total += float64(n)
	}
	mean := total / float64(len(load))
	recommended := round(mean)
	if recommended < 1 {
		recommended = 1
	}

	// Heaviest first; name breaks ties so output is deterministic.
	sort.Slice(names, func(i, j int) bool {
		if load[names[i]] != load[names[j]] {
			return load[names[i]] > load[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > e.limits.MaxReviewers {
		names = names[:e.limits.MaxReviewers]
	}

	out := make([]models.ReviewerAssignment, 0, len(names))
	for _, name := range names {
		current := load[name]
		var rationale string
		switch {
		case float64(current) > mean+0.5:
			rationale = fmt.Sprintf("carrying %d open reviews, above the team mean of %.1f", current, mean)
		case float64(current) < mean-0.5:
			rationale = fmt.Sprintf("carrying %d open reviews, below the team mean of %.1f; can absorb more", current, mean)
		default:
			rationale = fmt.Sprintf("load of %d open reviews is in line with the team mean of %.1f", current, mean)
		}
		out = append(out, models.ReviewerAssignment{
			Reviewer:        name,
			CurrentLoad:     current,
			RecommendedLoad: recommended,
			Rationale:       rationale,
		})
	}
	return out
}

// historicalVelocity averages nonzero velocities over past sprints.
func historicalVelocity(history []models.HistoricalMetrics) float64 {
	var velocities []float64
	for _, h := range history {
		if h.Sprint.Velocity > 0 {
			velocities = append(velocities, h.Sprint.Velocity)
		}
	}
	if len(velocities) == 0 {
		return 0
	}
	return stat.Mean(velocities, nil)
}

// TrendStats holds regression statistics over historical velocities.
type TrendStats struct {
	Slope       float64 // velocity change per sprint
	Intercept   float64
	RSquared    float64
	Correlation float64
}

// VelocityTrend fits a linear regression over historical velocities in
// chronological order. Returns zero values with fewer than 2 samples.
func VelocityTrend(history []models.HistoricalMetrics) TrendStats {
	n := len(history)
	if n < 2 {
		return TrendStats{}
	}

	// History arrives most recent first; regress oldest to newest.
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i] = float64(i)
		ys[i] = history[n-1-i].Sprint.Velocity
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	rSquared := stat.RSquared(xs, ys, nil, intercept, slope)
	correlation := stat.Correlation(xs, ys, nil)

	if math.IsNaN(rSquared) {
		rSquared = 0
	}
	if math.IsNaN(correlation) {
		correlation = 0
	}

	return TrendStats{
		Slope:       slope,
		Intercept:   intercept,
		RSquared:    rSquared,
		Correlation: correlation,
	}
}
