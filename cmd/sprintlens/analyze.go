package main

import (
	"github.com/spf13/cobra"

	"github.com/sprintlens/sprintlens/internal/output"
	"github.com/sprintlens/sprintlens/internal/service/analysis"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <sprint-id>",
	Short: "Analyze one sprint and print its health report",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("board", "", "Board id for historical trend lookup")
	analyzeCmd.Flags().Bool("force", false, "Bypass report and raw-data caches")
	analyzeCmd.Flags().StringP("format", "f", "", "Output format: text, json, markdown")
	analyzeCmd.Flags().StringP("output", "o", "", "Write output to a file instead of stdout")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, _, err := newService(cfg)
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

	report, err := svc.Analyze(cmd.Context(), args[0], opts...)
	if err != nil {
		return err
	}

	formatStr, _ := cmd.Flags().GetString("format")
	if formatStr == "" {
		formatStr = cfg.Output.Format
	}
	outPath, _ := cmd.Flags().GetString("output")

	formatter, err := output.NewFormatter(output.ParseFormat(formatStr), outPath, cfg.Output.Color && !noColor)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(output.NewReport(report))
}
