package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprintlens/sprintlens/internal/service/analysis"
)

var spilloverCmd = &cobra.Command{
	Use:   "spillover <sprint-id>",
	Short: "Predict which issues will slip past the sprint boundary",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpillover,
}

func init() {
	spilloverCmd.Flags().Bool("force", false, "Bypass the raw-data cache")

	rootCmd.AddCommand(spilloverCmd)
}

func runSpillover(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, _, err := newService(cfg)
	if err != nil {
		return err
	}

	var opts []analysis.AnalyzeOption
	if force, _ := cmd.Flags().GetBool("force"); force {
		opts = append(opts, analysis.WithForceRefresh())
	}

	predictions, err := svc.PredictSpillover(cmd.Context(), args[0], opts...)
	if err != nil {
		return err
	}

	if len(predictions) == 0 {
		fmt.Println("No issues at spillover risk.")
		return nil
	}

	for _, p := range predictions {
		fmt.Printf("%s  %.0f%%\n", p.IssueKey, p.Probability*100)
		for _, reason := range p.Reasons {
			fmt.Printf("    - %s\n", reason)
		}
	}
	return nil
}
