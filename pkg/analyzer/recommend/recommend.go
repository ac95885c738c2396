// Package recommend turns risk, metrics and raw records into prioritized
// action items and next-sprint planning suggestions.
package recommend

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sprintlens/sprintlens/pkg/models"
)

// Engine generates recommendations and next-sprint suggestions.
type Engine struct {
	classifier models.StatusClassifier
	limits     Limits
	thresholds Thresholds
	now        func() time.Time
}

// Option configures the Engine.
type Option func(*Engine)

// WithClassifier sets the status classifier.
func WithClassifier(c models.StatusClassifier) Option {
	return func(e *Engine) {
		e.classifier = c
	}
}

// WithLimits sets output caps.
func WithLimits(l Limits) Option {
	return func(e *Engine) {
		e.limits = l
	}
}

// WithThresholds sets generator thresholds.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) {
		e.thresholds = t
	}
}

// WithNow sets the clock (for testing).
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an engine with default classifier, limits and thresholds.
func New(opts ...Option) *Engine {
	e := &Engine{
		classifier: models.DefaultStatusClassifier(),
		limits:     DefaultLimits(),
		thresholds: DefaultThresholds(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Input carries all signal sources for recommendation generation.
type Input struct {
	Risk         models.RiskAssessment
	Sprint       models.SprintMetrics
	PullRequests models.PRMetrics
	Issues       []models.Issue
	Reviews      []models.ReviewRequest
	Bottlenecks  []models.BottleneckInfo
}

// Generate runs all four generators, then merges, sorts, truncates to the
// limit and renumbers priorities into a contiguous 1..k sequence.
func (e *Engine) Generate(in Input) []models.Recommendation {
	var recs []models.Recommendation
	recs = append(recs, e.scopeRecommendations(in)...)
	recs = append(recs, e.reviewerRecommendations(in)...)
	recs = append(recs, e.wipRecommendations(in)...)
	recs = append(recs, e.processRecommendations(in)...)

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Priority != recs[j].Priority {
			return recs[i].Priority < recs[j].Priority
		}
		return models.ImpactRank(recs[i].Impact) < models.ImpactRank(recs[j].Impact)
	})

	if len(recs) > e.limits.MaxRecommendations {
		recs = recs[:e.limits.MaxRecommendations]
	}
	for i := range recs {
		recs[i].Priority = i + 1
	}
	return recs
}

func (e *Engine) scopeRecommendations(in Input) []models.Recommendation {
	var recs []models.Recommendation

	switch {
	case in.Risk.Score >= e.thresholds.HighRiskScore:
		remaining := e.remainingPoints(in.Issues)
		cut := remaining * 0.2
		recs = append(recs, models.Recommendation{
			Priority: 1,
			Category: models.RecommendScope,
			Title:    "Cut sprint scope",
			Description: fmt.Sprintf(
				"Risk is high; remove roughly %.0f story points (20%% of the %.0f remaining) to protect the sprint goal.",
				cut, remaining),
			Impact: models.ImpactHigh,
		})

		if risky := e.RiskyIssues(in.Issues); len(risky) > 0 {
			names := issueKeys(risky, e.limits.MaxPostpone)
			recs = append(recs, models.Recommendation{
				Priority: 2,
				Category: models.RecommendScope,
				Title:    "Postpone at-risk tasks",
				Description: fmt.Sprintf(
					"Move %s out of the sprint; they are blocked, oversized, or stalled.",
					strings.Join(names, ", ")),
				Impact: models.ImpactHigh,
			})
		}
	case in.Sprint.CompletionRate < e.thresholds.CompletionRateFloor && in.Risk.Score >= e.thresholds.MediumRiskScore:
		recs = append(recs, models.Recommendation{
			Priority: 3,
			Category: models.RecommendScope,
			Title:    "Reassess sprint scope",
			Description: fmt.Sprintf(
				"Completion is at %.0f%%; review the remaining backlog with the team and trim what no longer fits.",
				in.Sprint.CompletionRate),
			Impact: models.ImpactMedium,
		})
	}

	return recs
}

func (e *Engine) reviewerRecommendations(in Input) []models.Recommendation {
	var recs []models.Recommendation

	load := models.OpenReviewerLoad(in.Reviews)
	overloaded, max := maxLoad(load)
	if max >= e.thresholds.ReviewerPendingLimit {
		idle := e.idleReviewers(load)
		if len(idle) > 0 {
			recs = append(recs, models.Recommendation{
				Priority: 1,
				Category: models.RecommendReviewer,
				Title:    "Redistribute pending reviews",
				Description: fmt.Sprintf(
					"%s has %d reviews pending; reassign some to %s, who have capacity.",
					overloaded, max, strings.Join(idle, ", ")),
				Impact: models.ImpactHigh,
			})
		} else {
			recs = append(recs, models.Recommendation{
				Priority: 2,
				Category: models.RecommendReviewer,
				Title:    "Relieve the review bottleneck",
				Description: fmt.Sprintf(
					"%s has %d reviews pending and no reviewer has spare capacity; consider pausing new review assignments or pairing on reviews.",
					overloaded, max),
				Impact: models.ImpactHigh,
			})
		}
	}

	if in.PullRequests.AverageTimeToFirstReview > e.thresholds.FirstReviewHours {
		recs = append(recs, models.Recommendation{
			Priority: 3,
			Category: models.RecommendReviewer,
			Title:    "Set a first-review SLA",
			Description: fmt.Sprintf(
				"First reviews take %.1fh on average; agree on a same-day response target.",
				in.PullRequests.AverageTimeToFirstReview),
			Impact: models.ImpactMedium,
		})
	}

	return recs
}

func (e *Engine) wipRecommendations(in Input) []models.Recommendation {
	var recs []models.Recommendation

	load := e.activeLoadByAssignee(in.Issues)
	overloaded, max := maxLoad(load)
	if max >= e.thresholds.AssigneeWIPLimit {
		if idle := e.idleAssignees(load); len(idle) > 0 {
			recs = append(recs, models.Recommendation{
				Priority: 2,
				Category: models.RecommendWIP,
				Title:    "Rebalance work in progress",
				Description: fmt.Sprintf(
					"%s is carrying %d active issues while %s have spare capacity; rebalance and cap WIP at 3-4 per person.",
					overloaded, max, strings.Join(idle, ", ")),
				Impact: models.ImpactHigh,
			})
		} else {
			recs = append(recs, models.Recommendation{
				Priority: 2,
				Category: models.RecommendWIP,
				Title:    "Introduce a per-person WIP limit",
				Description: fmt.Sprintf(
					"%s is carrying %d active issues; cap WIP at 3-4 per person to reduce context switching.",
					overloaded, max),
				Impact: models.ImpactMedium,
			})
		}
	}

	if len(in.Bottlenecks) > 0 {
		top := in.Bottlenecks[0]
		recs = append(recs, models.Recommendation{
			Priority:    3,
			Category:    models.RecommendProcess,
			Title:       fmt.Sprintf("Unblock the %q stage", top.Location),
			Description: top.Description,
			Impact:      models.ImpactMedium,
		})
	}

	return recs
}

func (e *Engine) processRecommendations(in Input) []models.Recommendation {
	var recs []models.Recommendation

	if in.PullRequests.AverageRevisions > e.thresholds.HighRevisionAverage {
		recs = append(recs, models.Recommendation{
			Priority: 4,
			Category: models.RecommendProcess,
			Title:    "Reduce review rework",
			Description: fmt.Sprintf(
				"PRs average %.1f revisions; clearer acceptance criteria and earlier design discussion would cut rework.",
				in.PullRequests.AverageRevisions),
			Impact: models.ImpactMedium,
		})
	}

	if len(in.Risk.Factors) > 0 {
		cats := topFactorCategories(in.Risk.Factors, 2)
		recs = append(recs, models.Recommendation{
			Priority: 5,
			Category: models.RecommendProcess,
			Title:    "Focus the retrospective",
			Description: fmt.Sprintf(
				"Spend retrospective time on the %s risk area(s) surfaced this sprint.",
				strings.Join(cats, " and ")),
			Impact: models.ImpactMedium,
		})
	}

	if in.Sprint.CompletionRate < e.thresholds.EstimationRateFloor {
		recs = append(recs, models.Recommendation{
			Priority: 5,
			Category: models.RecommendPlanning,
			Title:    "Improve estimation",
			Description: fmt.Sprintf(
				"Completion of %.0f%% suggests estimates ran hot; try smaller slices and reference stories at the next planning.",
				in.Sprint.CompletionRate),
			Impact: models.ImpactMedium,
		})
	}

	return recs
}

// RiskyIssues returns incomplete issues that are blocked, oversized, or
// stalled past the staleness threshold.
func (e *Engine) RiskyIssues(issues []models.Issue) []models.Issue {
	now := e.now()
	var risky []models.Issue
	for _, issue := range issues {
		if e.classifier.IsCompleted(issue.Status) {
			continue
		}
		switch {
		case e.classifier.IsBlocked(issue.Status):
			risky = append(risky, issue)
		case issue.EstimateOr(0) >= e.thresholds.RiskyIssuePoints:
			risky = append(risky, issue)
		default:
			last := issue.LastTransitionTime()
			if !last.IsZero() && now.Sub(last).Hours() > e.thresholds.RiskyIssueStalledHours {
				risky = append(risky, issue)
			}
		}
	}
	return risky
}

// remainingPoints sums estimates over incomplete issues.
func (e *Engine) remainingPoints(issues []models.Issue) float64 {
	var sum float64
	for _, issue := range issues {
		if !e.classifier.IsCompleted(issue.Status) {
			sum += issue.EstimateOr(0)
		}
	}
	return sum
}

func (e *Engine) activeLoadByAssignee(issues []models.Issue) map[string]int {
	load := make(map[string]int)
	for _, issue := range issues {
		if issue.Assignee == "" {
			continue
		}
		if e.classifier.IsActive(issue.Status) {
			load[issue.Assignee]++
		}
	}
	return load
}

// idleReviewers names reviewers with pending load under the idle limit,
// sorted for deterministic output.
func (e *Engine) idleReviewers(load map[string]int) []string {
	var idle []string
	for name, n := range load {
		if n < e.thresholds.ReviewerIdleLimit {
			idle = append(idle, name)
		}
	}
	sort.Strings(idle)
	return idle
}

func (e *Engine) idleAssignees(load map[string]int) []string {
	var idle []string
	for name, n := range load {
		if n < e.thresholds.AssigneeIdleLimit {
			idle = append(idle, name)
		}
	}
	sort.Strings(idle)
	return idle
}

// maxLoad returns the name with the highest count, ties breaking toward the
// lexicographically smaller name.
func maxLoad(m map[string]int) (string, int) {
	var bestName string
	best := 0
	for name, n := range m {
		if n > best || (n == best && n > 0 && name < bestName) {
			bestName, best = name, n
		}
	}
	return bestName, best
}

func issueKeys(issues []models.Issue, max int) []string {
	keys := make([]string, 0, max)
	for _, issue := range issues {
		if len(keys) == max {
			break
		}
		keys = append(keys, issue.Key)
	}
	return keys
}

// topFactorCategories names the highest-severity factor categories.
func topFactorCategories(factors []models.RiskFactor, n int) []string {
	sorted := make([]models.RiskFactor, len(factors))
	copy(sorted, factors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity > sorted[j].Severity
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	cats := make([]string, len(sorted))
	for i, f := range sorted {
		cats[i] = string(f.Category)
	}
	return cats
}

func round(f float64) int {
	return int(math.Round(f))
}
