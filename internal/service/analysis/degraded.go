package analysis

import (
	"github.com/sprintlens/sprintlens/pkg/models"
)

// degradedSummary is the fixed summary text of a degraded report. Callers
// detect degraded analysis by this text plus the forced High risk level;
// the report shape carries no separate failure flag.
const degradedSummary = "Sprint analysis could not be completed because the issue tracker is unavailable. All metrics are placeholders."

// degradedReport synthesizes a syntactically valid report when the primary
// data source is unreachable. It is never written to the report cache.
func (s *Service) degradedReport(sprintID string) *models.SprintReport {
	return &models.SprintReport{
		SprintID:   sprintID,
		SprintName: "Sprint " + sprintID,
		Summary:    degradedSummary,
		KeyFindings: []string{
			"The issue tracker could not be reached after retries.",
			"No sprint or review data was collected for this pass.",
		},
		Risk: models.RiskSummary{
			Level:         models.RiskHigh,
			Justification: "Analysis is blind: without issue tracker data the sprint state is unknown, which is itself a delivery risk.",
		},
		Recommendations: []models.Recommendation{
			{
				Priority:    1,
				Category:    models.RecommendProcess,
				Title:       "Retry the analysis",
				Description: "Check issue tracker connectivity and credentials, then re-run the analysis for this sprint.",
				Impact:      models.ImpactHigh,
			},
		},
		Metrics:     models.ReportMetrics{},
		GeneratedAt: s.now(),
	}
}
