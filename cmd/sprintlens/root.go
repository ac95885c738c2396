package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sprintlens/sprintlens/internal/cache"
	"github.com/sprintlens/sprintlens/internal/collab"
	"github.com/sprintlens/sprintlens/internal/service/analysis"
	"github.com/sprintlens/sprintlens/pkg/config"
	"github.com/sprintlens/sprintlens/pkg/logger"
)

var (
	cfgFile     string
	fixturePath string
	cacheDir    string
	noColor     bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "sprintlens",
	Short: "Sprint health analysis CLI",
	Long: `Sprintlens derives a sprint health report from issue-tracker and
code-review records: metrics, risk classification, prioritized
recommendations, and next-sprint planning suggestions.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to config file (TOML, YAML, or JSON)")
	rootCmd.PersistentFlags().StringVar(&fixturePath, "fixture", "", "Path to a JSON fixture used as the data source")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Override cache directory")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
}

// loadConfig resolves configuration from the --config flag or standard
// locations.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.LoadOrDefault(), nil
}

// newService wires config, logger, cache and the fixture data source into
// an analysis service.
func newService(cfg *config.Config) (*analysis.Service, *zap.SugaredLogger, error) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	log, err := logger.NewWithOptions(level, "console", false)
	if err != nil {
		return nil, nil, err
	}

	if fixturePath == "" {
		return nil, nil, fmt.Errorf("no data source configured: pass --fixture")
	}
	fixture, err := collab.LoadFixture(fixturePath)
	if err != nil {
		return nil, nil, err
	}

	var store cache.Store = cache.NewMemory()
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if cacheDir != "" {
			dir = cacheDir
		}
		fileStore, err := cache.NewFile(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("open cache: %w", err)
		}
		store = fileStore
	}

	svc := analysis.New(
		analysis.WithTracker(fixture),
		analysis.WithReviewSystem(fixture),
		analysis.WithStore(store),
		analysis.WithConfig(cfg),
		analysis.WithLogger(log),
	)
	return svc, log, nil
}
