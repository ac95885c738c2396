package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprintlens/sprintlens/internal/output"
	"github.com/sprintlens/sprintlens/internal/progress"
	"github.com/sprintlens/sprintlens/internal/service/analysis"
)

var batchCmd = &cobra.Command{
	Use:   "batch <sprint-id>...",
	Short: "Analyze multiple sprints in one run",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBatch,
}

func init() {
	batchCmd.Flags().String("board", "", "Board id for historical trend lookup")
	batchCmd.Flags().Bool("force", false, "Bypass report and raw-data caches")
	batchCmd.Flags().StringP("format", "f", "", "Output format: text, json, markdown")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, log, err := newService(cfg)
	if err != nil {
		return err
	}

	var opts []analysis.AnalyzeOption
	if board, _ := cmd.Flags().GetString("board"); board != "" {
		opts = append(opts, analysis.WithBoard(board))
	}
	if force, _ := cmd.Flags().GetBool("force"); force {
		opts = append(opts, analysis.WithForceRefresh())
	}

	formatStr, _ := cmd.Flags().GetString("format")
	if formatStr == "" {
		formatStr = cfg.Output.Format
	}
	formatter, err := output.NewFormatter(output.ParseFormat(formatStr), "", cfg.Output.Color && !noColor)
	if err != nil {
		return err
	}
	defer formatter.Close()

	tracker := progress.NewTracker("Analyzing sprints", len(args))
	var failed int
	for _, sprintID := range args {
		report, err := svc.Analyze(cmd.Context(), sprintID, opts...)
		tracker.Tick()
		if err != nil {
			log.Errorw("analysis failed", "sprint", sprintID, "error", err)
			failed++
			continue
		}
		if err := formatter.Output(output.NewReport(report)); err != nil {
			return err
		}
	}
	if failed > 0 {
		err := fmt.Errorf("%d of %d sprints failed", failed, len(args))
		tracker.FinishError(err)
		return err
	}
	tracker.Finish()
	return nil
}
