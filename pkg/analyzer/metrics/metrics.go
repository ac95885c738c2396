// Package metrics derives quantitative sprint and review-flow metrics from
// raw issue and review-request records.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/sprintlens/sprintlens/pkg/models"
)

// Analyzer computes sprint metrics, PR metrics and bottleneck findings.
type Analyzer struct {
	classifier models.StatusClassifier
	thresholds Thresholds
	now        func() time.Time
}

// Option configures the Analyzer.
type Option func(*Analyzer)

// WithClassifier sets the status classifier.
func WithClassifier(c models.StatusClassifier) Option {
	return func(a *Analyzer) {
		a.classifier = c
	}
}

// WithThresholds sets bottleneck thresholds.
func WithThresholds(t Thresholds) Option {
	return func(a *Analyzer) {
		a.thresholds = t
	}
}

// WithNow sets the clock (for testing).
func WithNow(now func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

// New creates a metrics analyzer with default classifier and thresholds.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		classifier: models.DefaultStatusClassifier(),
		thresholds: DefaultThresholds(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Classifier returns the analyzer's status classifier so downstream stages
// classify with the same keyword sets.
func (a *Analyzer) Classifier() models.StatusClassifier {
	return a.classifier
}

// ComputeSprintMetrics derives sprint-level metrics from a snapshot of
// issues. All durations are hours.
func (a *Analyzer) ComputeSprintMetrics(issues []models.Issue, sprint models.Sprint) models.SprintMetrics {
	now := a.now()

	var m models.SprintMetrics
	var cycleTimes, leadTimes []float64

	for _, issue := range issues {
		switch {
		case a.classifier.IsCompleted(issue.Status):
			m.Throughput++
			m.Velocity += issue.EstimateOr(0)

			if ct := a.CycleTime(issue); ct > 0 {
				cycleTimes = append(cycleTimes, ct)
			}
			if lt := a.leadTime(issue, now); lt > 0 {
				leadTimes = append(leadTimes, lt)
			}
		case a.classifier.IsActive(issue.Status):
			m.WIPCount++
		}

		if issue.CreationTime(now).Before(sprint.StartAt) {
			m.CarryOverCount++
		}
	}

	// Issues yielding 0 are excluded from the averages rather than pulling
	// them down; stat.Mean of an empty slice would be NaN.
	if len(cycleTimes) > 0 {
		m.CycleTime = stat.Mean(cycleTimes, nil)
	}
	if len(leadTimes) > 0 {
		m.LeadTime = stat.Mean(leadTimes, nil)
	}

	if total := len(issues); total > 0 {
		m.CompletionRate = float64(m.Throughput) / float64(total) * 100
	}

	return m
}

// CycleTime returns the hours from the first transition into an active
// status to the last transition into a completed status. Bounces between
// active and completed in between are ignored. Returns 0 when either
// endpoint is absent.
func (a *Analyzer) CycleTime(issue models.Issue) float64 {
	transitions := issue.SortedTransitions()

	var start, end time.Time
	for _, tr := range transitions {
		if start.IsZero() && a.classifier.IsActive(tr.ToStatus) {
			start = tr.At
		}
		if a.classifier.IsCompleted(tr.ToStatus) {
			end = tr.At
		}
	}

	if start.IsZero() || end.IsZero() || !end.After(start) {
		return 0
	}
	return end.Sub(start).Hours()
}

// leadTime returns hours from the issue's creation-time proxy to its last
// completion transition, or 0 when the issue never completed.
func (a *Analyzer) leadTime(issue models.Issue, now time.Time) float64 {
	var end time.Time
	for _, tr := range issue.SortedTransitions() {
		if a.classifier.IsCompleted(tr.ToStatus) {
			end = tr.At
		}
	}
	if end.IsZero() {
		return 0
	}

	created := issue.CreationTime(now)
	if !end.After(created) {
		return 0
	}
	return end.Sub(created).Hours()
}

// ComputePRMetrics derives review-flow averages from review requests.
// Every average is 0 on empty input; NaN never propagates.
func (a *Analyzer) ComputePRMetrics(reviews []models.ReviewRequest) models.PRMetrics {
	var m models.PRMetrics
	if len(reviews) == 0 {
		return m
	}

	var latencies, firstReviews []float64
	cycles := make([]float64, 0, len(reviews))
	revisions := make([]float64, 0, len(reviews))

	for _, r := range reviews {
		if r.MergedAt != nil {
			latencies = append(latencies, r.LatencyHours())
		}
		if r.FirstReviewAt != nil {
			firstReviews = append(firstReviews, r.TimeToFirstReviewHours())
		}
		cycles = append(cycles, float64(len(r.Reviewers)))
		revisions = append(revisions, float64(r.Revisions))
	}

	if len(latencies) > 0 {
		m.AverageLatency = stat.Mean(latencies, nil)
	}
	if len(firstReviews) > 0 {
		m.AverageTimeToFirstReview = stat.Mean(firstReviews, nil)
	}
	m.AverageReviewCycles = stat.Mean(cycles, nil)
	m.AverageRevisions = stat.Mean(revisions, nil)

	return m
}

// FindBottlenecks flags workflow statuses where issues dwell abnormally long
// relative to the sprint-wide average. Completed statuses are never flagged.
func (a *Analyzer) FindBottlenecks(issues []models.Issue) []models.BottleneckInfo {
	buckets := a.dwellBuckets(issues)
	if len(buckets) == 0 {
		return nil
	}

	averages := make([]float64, 0, len(buckets))
	for _, b := range buckets {
		averages = append(averages, b.average())
	}
	globalMean := stat.Mean(averages, nil)
	if globalMean <= 0 {
		return nil
	}

	var found []models.BottleneckInfo
	for _, b := range buckets {
		avg := b.average()
		if avg <= a.thresholds.MinDwellHours {
			continue
		}
		if avg <= a.thresholds.MeanRatio*globalMean {
			continue
		}
		if len(b.issues) < a.thresholds.MinIssues {
			continue
		}

		severity := int(math.Floor(avg / globalMean * 3))
		if severity > 10 {
			severity = 10
		}

		keys := make([]string, 0, len(b.issues))
		for k := range b.issues {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		found = append(found, models.BottleneckInfo{
			Location:       b.status,
			Type:           models.BottleneckStatus,
			AffectedIssues: keys,
			Severity:       severity,
			Description: fmt.Sprintf(
				"Issues spend %.1fh on average in %q (%.1fx the sprint-wide average), affecting %d issues",
				avg, b.status, avg/globalMean, len(b.issues)),
		})
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Severity > found[j].Severity
	})

	return found
}

// IssueDwellAverage returns the mean hours the issue spent per status across
// its workflow history, 0 when there are fewer than two transitions.
func (a *Analyzer) IssueDwellAverage(issue models.Issue) float64 {
	transitions := issue.SortedTransitions()
	if len(transitions) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(transitions); i++ {
		dwell := transitions[i].At.Sub(transitions[i-1].At).Hours()
		if dwell > 0 {
			total += dwell
		}
	}
	return total / float64(len(transitions)-1)
}

// dwellBuckets accumulates per-status dwell time across all issues. The
// status dwelt in is the target of the earlier transition of each adjacent
// pair.
func (a *Analyzer) dwellBuckets(issues []models.Issue) []*dwellBucket {
	byStatus := make(map[string]*dwellBucket)
	var order []string

	for _, issue := range issues {
		transitions := issue.SortedTransitions()
		for i := 1; i < len(transitions); i++ {
			status := transitions[i-1].ToStatus
			if a.classifier.IsCompleted(status) {
				continue
			}

			dwell := transitions[i].At.Sub(transitions[i-1].At).Hours()
			if dwell < 0 {
				continue
			}

			b, ok := byStatus[status]
			if !ok {
				b = &dwellBucket{status: status, issues: make(map[string]struct{})}
				byStatus[status] = b
				order = append(order, status)
			}
			b.totalHours += dwell
			b.count++
			b.issues[issue.Key] = struct{}{}
		}
	}

	buckets := make([]*dwellBucket, 0, len(order))
	for _, status := range order {
		buckets = append(buckets, byStatus[status])
	}
	return buckets
}
