package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/sprintlens/sprintlens/pkg/models"
)

// Report wraps a SprintReport for rendering.
type Report struct {
	*models.SprintReport
}

// NewReport wraps rep for output.
func NewReport(rep *models.SprintReport) *Report {
	return &Report{SprintReport: rep}
}

// RenderData returns the report for JSON serialization.
func (r *Report) RenderData() any {
	return r.SprintReport
}

// RenderText writes the report as colored terminal text.
func (r *Report) RenderText(w io.Writer, colored bool) error {
	title := fmt.Sprintf("Sprint Health: %s", r.SprintName)
	if colored {
		color.New(color.Bold).Fprintln(w, title)
	} else {
		fmt.Fprintln(w, title)
	}
	fmt.Fprintln(w, strings.Repeat("=", len(title)))
	fmt.Fprintln(w)

	fmt.Fprintln(w, r.Summary)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Risk: %s\n", r.riskLabel(colored))
	fmt.Fprintln(w, r.Risk.Justification)
	fmt.Fprintln(w)

	section(w, "Metrics")
	r.metricsTable(w)
	fmt.Fprintln(w)

	if len(r.KeyFindings) > 0 {
		section(w, "Key Findings")
		for _, finding := range r.KeyFindings {
			fmt.Fprintf(w, "  - %s\n", finding)
		}
		fmt.Fprintln(w)
	}

	if len(r.Recommendations) > 0 {
		section(w, "Recommendations")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "  %d. [%s] %s\n     %s\n", rec.Priority, rec.Category, rec.Title, rec.Description)
		}
		fmt.Fprintln(w)
	}

	if r.NextSprint != nil {
		section(w, "Next Sprint")
		fmt.Fprintf(w, "  Target: %d story points\n", r.NextSprint.TargetStoryPoints)
		if r.NextSprint.VelocityTrend != "" {
			fmt.Fprintf(w, "  Trend: %s\n", r.NextSprint.VelocityTrend)
		}
		if len(r.NextSprint.TasksToInclude) > 0 {
			fmt.Fprintf(w, "  Carry forward: %s\n", strings.Join(r.NextSprint.TasksToInclude, ", "))
		}
		if len(r.NextSprint.TasksToPostpone) > 0 {
			fmt.Fprintf(w, "  Postpone: %s\n", strings.Join(r.NextSprint.TasksToPostpone, ", "))
		}
		for _, ra := range r.NextSprint.ReviewerAssignments {
			fmt.Fprintf(w, "  Reviewer %s: %d -> %d (%s)\n", ra.Reviewer, ra.CurrentLoad, ra.RecommendedLoad, ra.Rationale)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Generated at %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}

// RenderMarkdown writes the report as markdown.
func (r *Report) RenderMarkdown(w io.Writer) error {
	fmt.Fprintf(w, "# Sprint Health: %s\n\n", r.SprintName)
	fmt.Fprintf(w, "%s\n\n", r.Summary)
	fmt.Fprintf(w, "**Risk:** %s — %s\n\n", strings.ToUpper(string(r.Risk.Level)), r.Risk.Justification)

	fmt.Fprintln(w, "## Metrics")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Metric | Value |")
	fmt.Fprintln(w, "| --- | --- |")
	for _, row := range r.metricRows() {
		fmt.Fprintf(w, "| %s | %s |\n", row[0], row[1])
	}
	fmt.Fprintln(w)

	if len(r.KeyFindings) > 0 {
		fmt.Fprintln(w, "## Key Findings")
		fmt.Fprintln(w)
		for _, finding := range r.KeyFindings {
			fmt.Fprintf(w, "- %s\n", finding)
		}
		fmt.Fprintln(w)
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintln(w, "## Recommendations")
		fmt.Fprintln(w)
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "%d. **%s** (%s, %s impact): %s\n", rec.Priority, rec.Title, rec.Category, rec.Impact, rec.Description)
		}
		fmt.Fprintln(w)
	}

	if r.NextSprint != nil {
		fmt.Fprintln(w, "## Next Sprint")
		fmt.Fprintln(w)
		fmt.Fprintf(w, "- Target: %d story points\n", r.NextSprint.TargetStoryPoints)
		if r.NextSprint.VelocityTrend != "" {
			fmt.Fprintf(w, "- Trend: %s\n", r.NextSprint.VelocityTrend)
		}
		if len(r.NextSprint.TasksToInclude) > 0 {
			fmt.Fprintf(w, "- Carry forward: %s\n", strings.Join(r.NextSprint.TasksToInclude, ", "))
		}
		if len(r.NextSprint.TasksToPostpone) > 0 {
			fmt.Fprintf(w, "- Postpone: %s\n", strings.Join(r.NextSprint.TasksToPostpone, ", "))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "_Generated at %s_\n", r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}

func (r *Report) riskLabel(colored bool) string {
	label := strings.ToUpper(string(r.Risk.Level))
	if !colored {
		return label
	}
	switch r.Risk.Level {
	case models.RiskHigh:
		return color.RedString(label)
	case models.RiskMedium:
		return color.YellowString(label)
	default:
		return color.GreenString(label)
	}
}

func (r *Report) metricRows() [][]string {
	m := r.Metrics.Sprint
	pr := r.Metrics.PullRequests
	return [][]string{
		{"Throughput", fmt.Sprintf("%d issues", m.Throughput)},
		{"Velocity", fmt.Sprintf("%.1f points", m.Velocity)},
		{"Completion rate", fmt.Sprintf("%.1f%%", m.CompletionRate)},
		{"Cycle time", fmt.Sprintf("%.1fh", m.CycleTime)},
		{"Lead time", fmt.Sprintf("%.1fh", m.LeadTime)},
		{"WIP", fmt.Sprintf("%d issues", m.WIPCount)},
		{"Carry-over", fmt.Sprintf("%d issues", m.CarryOverCount)},
		{"PR latency", fmt.Sprintf("%.1fh", pr.AverageLatency)},
		{"Time to first review", fmt.Sprintf("%.1fh", pr.AverageTimeToFirstReview)},
		{"Review cycles", fmt.Sprintf("%.1f", pr.AverageReviewCycles)},
		{"Revisions", fmt.Sprintf("%.1f", pr.AverageRevisions)},
	}
}

func (r *Report) metricsTable(w io.Writer) {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
			Settings: tw.Settings{
				Separators: tw.Separators{BetweenColumns: tw.Off},
			},
		}),
	)

	table.Header([]string{"Metric", "Value"})
	for _, row := range r.metricRows() {
		table.Append(row)
	}
	table.Render()
}
