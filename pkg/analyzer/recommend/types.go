package recommend

// Limits caps list sizes in generated output.
type Limits struct {
	MaxRecommendations int
	MaxPostpone        int
	MaxInclude         int
	MaxReviewers       int
}

// DefaultLimits returns the stock output caps.
func DefaultLimits() Limits {
	return Limits{
		MaxRecommendations: 7,
		MaxPostpone:        3,
		MaxInclude:         5,
		MaxReviewers:       5,
	}
}

// Thresholds controls when each recommendation generator fires.
type Thresholds struct {
	// HighRiskScore and MediumRiskScore are the risk-score bands that gate
	// scope recommendations.
	HighRiskScore   int
	MediumRiskScore int
	// CompletionRateFloor gates the softer scope adjustment and task
	// postponement.
	CompletionRateFloor float64
	// ReviewerPendingLimit marks a reviewer overloaded; ReviewerIdleLimit
	// marks one with spare capacity.
	ReviewerPendingLimit int
	ReviewerIdleLimit    int
	// FirstReviewHours gates the review-response SLA recommendation.
	FirstReviewHours float64
	// AssigneeWIPLimit marks an assignee overloaded; AssigneeIdleLimit marks
	// one underutilized.
	AssigneeWIPLimit  int
	AssigneeIdleLimit int
	// RiskyIssuePoints and RiskyIssueStalledHours define a "risky" task,
	// together with a blocked status.
	RiskyIssuePoints       float64
	RiskyIssueStalledHours float64
	// HighRevisionAverage gates the rework recommendation.
	HighRevisionAverage float64
	// EstimationRateFloor gates the estimation-improvement recommendation.
	EstimationRateFloor float64
	// WellPerformingRate marks a sprint performing well enough to stretch
	// the next target.
	WellPerformingRate float64
}

// DefaultThresholds returns the stock generator thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighRiskScore:          66,
		MediumRiskScore:        33,
		CompletionRateFloor:    70,
		ReviewerPendingLimit:   8,
		ReviewerIdleLimit:      3,
		FirstReviewHours:       24,
		AssigneeWIPLimit:       5,
		AssigneeIdleLimit:      2,
		RiskyIssuePoints:       8,
		RiskyIssueStalledHours: 72,
		HighRevisionAverage:    3,
		EstimationRateFloor:    60,
		WellPerformingRate:     90,
	}
}
