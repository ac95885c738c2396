package metrics

// Thresholds controls bottleneck flagging.
type Thresholds struct {
	// MinDwellHours is the minimum average dwell time for a status to be
	// considered at all.
	MinDwellHours float64
	// MeanRatio is the multiple of the global mean dwell time a status must
	// exceed to be flagged.
	MeanRatio float64
	// MinIssues is the minimum number of distinct affected issues.
	MinIssues int
}

// DefaultThresholds returns the stock bottleneck thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinDwellHours: 1,
		MeanRatio:     1.5,
		MinIssues:     2,
	}
}

// dwellBucket accumulates time spent in one workflow status across issues.
type dwellBucket struct {
	status     string
	totalHours float64
	count      int
	issues     map[string]struct{}
}

func (b *dwellBucket) average() float64 {
	if b.count == 0 {
		return 0
	}
	return b.totalHours / float64(b.count)
}
