// Package risk turns sprint and review metrics into a scored, classified
// risk assessment.
package risk

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/sprintlens/sprintlens/pkg/models"
)

// Analyzer detects independent risk factors and aggregates them into a
// 0-100 score with a Low/Medium/High classification.
type Analyzer struct {
	classifier models.StatusClassifier
	thresholds Thresholds
}

// Option configures the Analyzer.
type Option func(*Analyzer)

// WithClassifier sets the status classifier.
func WithClassifier(c models.StatusClassifier) Option {
	return func(a *Analyzer) {
		a.classifier = c
	}
}

// WithThresholds sets detector thresholds.
func WithThresholds(t Thresholds) Option {
	return func(a *Analyzer) {
		a.thresholds = t
	}
}

// New creates a risk analyzer with default classifier and thresholds.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		classifier: models.DefaultStatusClassifier(),
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Input carries everything the assessment can draw on. History, Issues and
// Reviews are optional; detectors fall back to aggregate signals when the
// finer-grained data is absent.
type Input struct {
	Sprint       models.SprintMetrics
	PullRequests models.PRMetrics
	History      []models.HistoricalMetrics
	Issues       []models.Issue
	Reviews      []models.ReviewRequest
}

// Assess runs all detectors and aggregates their factors.
func (a *Analyzer) Assess(in Input) models.RiskAssessment {
	var factors []models.RiskFactor

	detectors := []func(Input) *models.RiskFactor{
		a.detectPRDelays,
		a.detectHighWIP,
		a.detectCarryOver,
		a.detectReviewerBottleneck,
		a.detectComplexity,
	}
	for _, detect := range detectors {
		if f := detect(in); f != nil {
			factors = append(factors, *f)
		}
	}

	score := Score(factors)
	level := models.ClassifyRiskScore(score)

	return models.RiskAssessment{
		Level:         level,
		Score:         score,
		Factors:       factors,
		Justification: a.justify(level, factors, in.Sprint.CompletionRate),
	}
}

// Score aggregates factor severities into a 0-100 score. An empty factor
// list scores 0; a single severity-10 factor scores 100.
func Score(factors []models.RiskFactor) int {
	if len(factors) == 0 {
		return 0
	}

	severities := make([]float64, len(factors))
	for i, f := range factors {
		severities[i] = float64(f.Severity)
	}

	score := int(math.Round(100 * stat.Mean(severities, nil) / 10))
	if score > 100 {
		score = 100
	}
	return score
}

func (a *Analyzer) detectPRDelays(in Input) *models.RiskFactor {
	latency := in.PullRequests.AverageLatency
	baseline := historicalLatencyBaseline(in.History)

	if baseline > 0 {
		if latency <= baseline*a.thresholds.PRLatencyRegression {
			return nil
		}
		increase := (latency - baseline) / baseline * 100
		return &models.RiskFactor{
			Category: models.RiskPRDelays,
			Severity: capSeverity(int(math.Floor(increase / 10))),
			Description: fmt.Sprintf(
				"Average PR latency of %.1fh is %.0f%% above the historical baseline of %.1fh.",
				latency, increase, baseline),
		}
	}

	if latency > a.thresholds.PRLatencyHours || in.PullRequests.AverageTimeToFirstReview > a.thresholds.FirstReviewHours {
		return &models.RiskFactor{
			Category: models.RiskPRDelays,
			Severity: capSeverity(int(math.Floor(latency / 10))),
			Description: fmt.Sprintf(
				"PR flow is slow: %.1fh average latency, %.1fh to first review.",
				latency, in.PullRequests.AverageTimeToFirstReview),
		}
	}
	return nil
}

func (a *Analyzer) detectHighWIP(in Input) *models.RiskFactor {
	// Per-assignee load only applies when at least one active issue has an
	// assignee; otherwise fall through to the aggregate check.
	if load := a.activeLoadByAssignee(in.Issues); len(load) > 0 {
		assignee, max := maxEntry(load)
		if max < a.thresholds.AssigneeWIPLimit {
			return nil
		}
		return &models.RiskFactor{
			Category: models.RiskHighWIP,
			Severity: capSeverity(int(math.Floor(float64(max-a.thresholds.AssigneeWIPLimit)*2)) + 5),
			Description: fmt.Sprintf(
				"%s is working %d issues in parallel; context switching at this level erodes throughput.",
				assignee, max),
		}
	}

	if in.Sprint.WIPCount < a.thresholds.AggregateWIPLimit {
		return nil
	}
	return &models.RiskFactor{
		Category: models.RiskHighWIP,
		Severity: capSeverity(in.Sprint.WIPCount / 3),
		Description: fmt.Sprintf(
			"%d issues are in progress at once across the sprint.", in.Sprint.WIPCount),
	}
}

func (a *Analyzer) detectCarryOver(in Input) *models.RiskFactor {
	rate := in.Sprint.CompletionRate
	if rate >= a.thresholds.CompletionRateFloor {
		return nil
	}
	return &models.RiskFactor{
		Category: models.RiskCarryOver,
		Severity: capSeverity(int(math.Floor((a.thresholds.CompletionRateFloor-rate)/5)) + 3),
		Description: fmt.Sprintf(
			"Only %.0f%% of sprint work completed; the remainder will carry over.", rate),
	}
}

func (a *Analyzer) detectReviewerBottleneck(in Input) *models.RiskFactor {
	load := models.OpenReviewerLoad(in.Reviews)
	reviewer, max := maxEntry(load)
	if max < a.thresholds.ReviewerPendingLimit {
		return nil
	}
	return &models.RiskFactor{
		Category: models.RiskBottleneck,
		Severity: capSeverity((max-a.thresholds.ReviewerPendingLimit)/2 + 6),
		Description: fmt.Sprintf(
			"%s has %d open reviews pending; reviews are queuing behind one person.",
			reviewer, max),
	}
}

func (a *Analyzer) detectComplexity(in Input) *models.RiskFactor {
	rate := in.Sprint.CompletionRate
	if rate >= a.thresholds.ComplexityRateFloor || in.Sprint.Velocity <= 0 {
		return nil
	}
	return &models.RiskFactor{
		Category: models.RiskComplexity,
		Severity: capSeverity(int(math.Floor((a.thresholds.ComplexityRateFloor-rate)/5)) + 5),
		Description: fmt.Sprintf(
			"Work was attempted but only %.0f%% finished; tasks may be larger than estimated.", rate),
	}
}

// justify produces the assessment narrative: a fixed sentence when nothing
// fired, otherwise a level announcement followed by the top three factor
// descriptions by severity.
func (a *Analyzer) justify(level models.RiskLevel, factors []models.RiskFactor, completionRate float64) string {
	if len(factors) == 0 {
		return fmt.Sprintf(
			"No significant risk factors detected; the sprint is tracking at %.0f%% completion.",
			completionRate)
	}

	sorted := make([]models.RiskFactor, len(factors))
	copy(sorted, factors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity > sorted[j].Severity
	})
	if len(sorted) > 3 {
		sorted = sorted[:3]
	}

	parts := make([]string, 0, len(sorted)+1)
	parts = append(parts, fmt.Sprintf("Sprint risk is %s.", level))
	for _, f := range sorted {
		parts = append(parts, f.Description)
	}
	return strings.Join(parts, " ")
}

// activeLoadByAssignee counts active issues per assignee, skipping
// unassigned issues.
func (a *Analyzer) activeLoadByAssignee(issues []models.Issue) map[string]int {
	load := make(map[string]int)
	for _, issue := range issues {
		if issue.Assignee == "" {
			continue
		}
		if a.classifier.IsActive(issue.Status) {
			load[issue.Assignee]++
		}
	}
	return load
}

// maxEntry returns the key with the highest count. Ties break toward the
// lexicographically smaller key so results are deterministic.
func maxEntry(m map[string]int) (string, int) {
	var bestKey string
	best := 0
	for k, v := range m {
		if v > best || (v == best && v > 0 && k < bestKey) {
			bestKey, best = k, v
		}
	}
	return bestKey, best
}

func capSeverity(s int) int {
	if s > 10 {
		return 10
	}
	if s < 0 {
		return 0
	}
	return s
}

// historicalLatencyBaseline averages nonzero historical PR latencies.
func historicalLatencyBaseline(history []models.HistoricalMetrics) float64 {
	var latencies []float64
	for _, h := range history {
		if h.PullRequests.AverageLatency > 0 {
			latencies = append(latencies, h.PullRequests.AverageLatency)
		}
	}
	if len(latencies) == 0 {
		return 0
	}
	return stat.Mean(latencies, nil)
}
