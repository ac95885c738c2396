// Package spillover predicts which incomplete issues will slip past the
// sprint boundary. The model is an explainable additive heuristic over a
// base completion probability, not a trained forecast.
package spillover

import (
	"fmt"
	"sort"
	"time"

	"github.com/sprintlens/sprintlens/pkg/models"
)

// Tuning controls the time-budget arithmetic of the predictor.
type Tuning struct {
	// DefaultPoints is the estimate assumed for unestimated issues.
	DefaultPoints float64
	// DefaultHoursPerPoint is used when no historical cycle data exists.
	DefaultHoursPerPoint float64
	// WorkdayHours converts days remaining into working hours.
	WorkdayHours float64
	// ReportingThreshold is the minimum spillover probability an issue needs
	// to appear in the output.
	ReportingThreshold float64
}

// DefaultTuning returns the stock tuning values.
func DefaultTuning() Tuning {
	return Tuning{
		DefaultPoints:        3,
		DefaultHoursPerPoint: 8,
		WorkdayHours:         8,
		ReportingThreshold:   0.3,
	}
}

// Predictor scores non-completed issues for spillover probability.
type Predictor struct {
	classifier models.StatusClassifier
	tuning     Tuning
}

// Option configures the Predictor.
type Option func(*Predictor)

// WithClassifier sets the status classifier.
func WithClassifier(c models.StatusClassifier) Option {
	return func(p *Predictor) {
		p.classifier = c
	}
}

// WithTuning sets the tuning values.
func WithTuning(t Tuning) Option {
	return func(p *Predictor) {
		p.tuning = t
	}
}

// New creates a predictor with default classifier and tuning.
func New(opts ...Option) *Predictor {
	p := &Predictor{
		classifier: models.DefaultStatusClassifier(),
		tuning:     DefaultTuning(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Predict scores every non-completed issue. Completed issues never appear in
// the output. metrics may be nil when no sprint metrics are available yet.
// Results are sorted by spillover probability descending and filtered to
// those above the reporting threshold.
func (p *Predictor) Predict(issues []models.Issue, sprint models.Sprint, now time.Time, metrics *models.SprintMetrics) []models.SpilloverPrediction {
	var out []models.SpilloverPrediction

	ended := sprint.Ended(now)

	for _, issue := range issues {
		if p.classifier.IsCompleted(issue.Status) {
			continue
		}

		if ended {
			out = append(out, models.SpilloverPrediction{
				IssueKey:    issue.Key,
				Probability: 1.0,
				Reasons:     []string{"sprint ended, issue incomplete"},
			})
			continue
		}

		completion, reasons := p.completionProbability(issue, sprint, now, metrics)
		spill := 1 - completion
		if spill <= p.tuning.ReportingThreshold {
			continue
		}
		out = append(out, models.SpilloverPrediction{
			IssueKey:    issue.Key,
			Probability: spill,
			Reasons:     reasons,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Probability > out[j].Probability
	})

	return out
}

// completionProbability starts at 0.5 and applies additive adjustments, each
// recording a reason regardless of sign. The result is clamped to [0,1].
func (p *Predictor) completionProbability(issue models.Issue, sprint models.Sprint, now time.Time, metrics *models.SprintMetrics) (float64, []string) {
	prob := 0.5
	var reasons []string

	points := issue.EstimateOr(p.tuning.DefaultPoints)
	hoursPerPoint := p.hoursPerPoint(metrics)
	needed := points * hoursPerPoint
	remaining := sprint.DaysRemaining(now) * p.tuning.WorkdayHours

	switch {
	case needed <= 0.5*remaining:
		prob += 0.3
		reasons = append(reasons, fmt.Sprintf("ample time: ~%.0fh needed, %.0fh remaining", needed, remaining))
	case needed <= remaining:
		prob += 0.1
		reasons = append(reasons, fmt.Sprintf("time budget is tight: ~%.0fh needed, %.0fh remaining", needed, remaining))
	default:
		prob -= 0.3
		reasons = append(reasons, fmt.Sprintf("insufficient time: ~%.0fh needed, only %.0fh remaining", needed, remaining))
	}

	switch {
	case !p.classifier.IsStarted(issue.Status):
		prob -= 0.2
		reasons = append(reasons, "work has not started")
	default:
		inStatus := p.timeInCurrentStatus(issue, now)
		if metrics != nil && metrics.CycleTime > 0 && inStatus > 0.7*metrics.CycleTime {
			prob += 0.2
			reasons = append(reasons, "in progress long enough to be nearly done")
		} else {
			prob += 0.1
			reasons = append(reasons, "work is underway")
		}
	}

	if dwell := issueDwellAverage(issue); dwell > 2*hoursPerPoint {
		prob -= 0.15
		reasons = append(reasons, fmt.Sprintf("issue is dwelling %.0fh per status on average", dwell))
	}

	switch {
	case points >= 8:
		prob -= 0.1
		reasons = append(reasons, fmt.Sprintf("large estimate (%.0f points)", points))
	case points >= 5:
		prob -= 0.05
		reasons = append(reasons, fmt.Sprintf("sizeable estimate (%.0f points)", points))
	}

	if issue.Assignee == "" {
		prob -= 0.15
		reasons = append(reasons, "no assignee")
	}

	if len(issue.ReviewIDs) > 0 {
		prob += 0.1
		reasons = append(reasons, "review requests already linked")
	}

	if prob < 0 {
		prob = 0
	}
	if prob > 1 {
		prob = 1
	}
	return prob, reasons
}

// hoursPerPoint derives cycle-time-per-point from sprint metrics when the
// sprint has both velocity and throughput, otherwise falls back to the
// configured default.
func (p *Predictor) hoursPerPoint(metrics *models.SprintMetrics) float64 {
	if metrics == nil || metrics.Velocity <= 0 || metrics.Throughput <= 0 || metrics.CycleTime <= 0 {
		return p.tuning.DefaultHoursPerPoint
	}
	pointsPerIssue := metrics.Velocity / float64(metrics.Throughput)
	if pointsPerIssue <= 0 {
		return p.tuning.DefaultHoursPerPoint
	}
	return metrics.CycleTime / pointsPerIssue
}

// timeInCurrentStatus is the hours since the issue's last transition, or 0
// when the issue has no history.
func (p *Predictor) timeInCurrentStatus(issue models.Issue, now time.Time) float64 {
	last := issue.LastTransitionTime()
	if last.IsZero() || !now.After(last) {
		return 0
	}
	return now.Sub(last).Hours()
}

// issueDwellAverage is the mean hours the issue spent per status across its
// own workflow history.
func issueDwellAverage(issue models.Issue) float64 {
	transitions := issue.SortedTransitions()
	if len(transitions) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(transitions); i++ {
		if dwell := transitions[i].At.Sub(transitions[i-1].At).Hours(); dwell > 0 {
			total += dwell
		}
	}
	return total / float64(len(transitions)-1)
}
