package models

// RiskCategory identifies the kind of condition a risk factor describes.
type RiskCategory string

const (
	RiskPRDelays   RiskCategory = "PR_DELAYS"
	RiskHighWIP    RiskCategory = "HIGH_WIP"
	RiskComplexity RiskCategory = "COMPLEXITY"
	RiskCarryOver  RiskCategory = "CARRYOVER"
	RiskBottleneck RiskCategory = "BOTTLENECK"
)

// RiskLevel is the overall classification of a sprint's risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"    // score <= 33
	RiskMedium RiskLevel = "medium" // score 34-66
	RiskHigh   RiskLevel = "high"   // score >= 67
)

// String implements fmt.Stringer.
func (l RiskLevel) String() string { return string(l) }

// RiskFactor is a single detected risk condition. At most one factor per
// category is produced per analysis pass.
type RiskFactor struct {
	Category    RiskCategory `json:"category"`
	Severity    int          `json:"severity"` // 0-10
	Description string       `json:"description"`
}

// RiskAssessment is the scored, classified aggregate of detected factors.
type RiskAssessment struct {
	Level         RiskLevel    `json:"level"`
	Score         int          `json:"score"` // 0-100
	Factors       []RiskFactor `json:"factors"`
	Justification string       `json:"justification"`
}

// ClassifyRiskScore maps a 0-100 score onto a risk level. Band boundaries are
// inclusive on the lower side: 33 is low, 66 is medium.
func ClassifyRiskScore(score int) RiskLevel {
	switch {
	case score <= 33:
		return RiskLow
	case score <= 66:
		return RiskMedium
	default:
		return RiskHigh
	}
}
