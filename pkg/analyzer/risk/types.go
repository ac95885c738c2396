package risk

// Thresholds controls when each risk detector fires.
type Thresholds struct {
	// PRLatencyHours is the absolute average-latency alarm used when no
	// historical baseline exists.
	PRLatencyHours float64
	// FirstReviewHours is the absolute first-review alarm.
	FirstReviewHours float64
	// PRLatencyRegression is the ratio over the historical baseline that
	// counts as a regression.
	PRLatencyRegression float64
	// AssigneeWIPLimit is the active-issue count per assignee that counts as
	// overload.
	AssigneeWIPLimit int
	// AggregateWIPLimit is the fallback sprint-wide WIP alarm used when
	// per-issue assignee data is unavailable.
	AggregateWIPLimit int
	// ReviewerPendingLimit is the open-review count per reviewer that counts
	// as a bottleneck.
	ReviewerPendingLimit int
	// CompletionRateFloor is the completion percentage below which carryover
	// risk fires.
	CompletionRateFloor float64
	// ComplexityRateFloor is the completion percentage below which, given
	// nonzero velocity, complexity risk fires.
	ComplexityRateFloor float64
}

// DefaultThresholds returns the stock detector thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PRLatencyHours:       48,
		FirstReviewHours:     24,
		PRLatencyRegression:  1.3,
		AssigneeWIPLimit:     5,
		AggregateWIPLimit:    10,
		ReviewerPendingLimit: 8,
		CompletionRateFloor:  70,
		ComplexityRateFloor:  50,
	}
}
