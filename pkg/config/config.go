package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for sprintlens.
type Config struct {
	// Status keyword lists used by the fuzzy status classifier
	Statuses StatusConfig `koanf:"statuses"`

	// Thresholds for risk detection and bottleneck flagging
	Thresholds ThresholdConfig `koanf:"thresholds"`

	// Spillover prediction tuning
	Spillover SpilloverConfig `koanf:"spillover"`

	// Cache TTL bands (minutes)
	Cache CacheConfig `koanf:"cache"`

	// Retry policy for collaborator fetches
	Retry RetryConfig `koanf:"retry"`

	// Output settings
	Output OutputConfig `koanf:"output"`
}

// StatusConfig carries the keyword lists for status classification.
// Matching is substring, case-insensitive.
type StatusConfig struct {
	Completed []string `koanf:"completed"`
	Active    []string `koanf:"active"`
	Blocked   []string `koanf:"blocked"`
}

// ThresholdConfig defines risk-detection and bottleneck thresholds.
type ThresholdConfig struct {
	PRLatencyHours        float64 `koanf:"pr_latency_hours"`         // absolute PR latency alarm
	FirstReviewHours      float64 `koanf:"first_review_hours"`       // absolute first-review alarm
	PRLatencyRegression   float64 `koanf:"pr_latency_regression"`    // ratio vs historical baseline
	AssigneeWIPLimit      int     `koanf:"assignee_wip_limit"`       // active issues per assignee
	AggregateWIPLimit     int     `koanf:"aggregate_wip_limit"`      // fallback when assignees unknown
	ReviewerPendingLimit  int     `koanf:"reviewer_pending_limit"`   // open reviews per reviewer
	CompletionRateFloor   float64 `koanf:"completion_rate_floor"`    // carryover risk trigger
	ComplexityRateFloor   float64 `koanf:"complexity_rate_floor"`    // complexity risk trigger
	BottleneckMinHours    float64 `koanf:"bottleneck_min_hours"`     // minimum avg dwell to flag
	BottleneckMeanRatio   float64 `koanf:"bottleneck_mean_ratio"`    // vs global mean dwell
	BottleneckMinIssues   int     `koanf:"bottleneck_min_issues"`    // distinct issues affected
	RiskyIssuePoints      float64 `koanf:"risky_issue_points"`       // estimate marking a task risky
	RiskyIssueStalledHrs  float64 `koanf:"risky_issue_stalled_hrs"`  // hours since last transition
	HighRevisionThreshold float64 `koanf:"high_revision_threshold"`  // avg revisions alarm
	EstimationRateFloor   float64 `koanf:"estimation_rate_floor"`    // completion rate triggering estimation advice
}

// SpilloverConfig tunes the spillover completion-probability heuristic.
type SpilloverConfig struct {
	DefaultPoints      float64 `koanf:"default_points"`       // estimate used when issue is unestimated
	DefaultHoursPerPt  float64 `koanf:"default_hours_per_pt"` // used when no historical cycle data
	WorkdayHours       float64 `koanf:"workday_hours"`
	ReportingThreshold float64 `koanf:"reporting_threshold"` // minimum spillover probability to include
}

// CacheConfig controls caching behavior. TTLs are minutes.
type CacheConfig struct {
	Enabled       bool   `koanf:"enabled"`
	Dir           string `koanf:"dir"`
	SnapshotTTL   int    `koanf:"snapshot_ttl"`
	ReviewTTL     int    `koanf:"review_ttl"`
	ReportTTL     int    `koanf:"report_ttl"`
	HistoricalTTL int    `koanf:"historical_ttl"`
}

// RetryConfig controls collaborator fetch retries.
type RetryConfig struct {
	MaxAttempts    int     `koanf:"max_attempts"`
	InitialDelayMs int     `koanf:"initial_delay_ms"`
	MaxDelayMs     int     `koanf:"max_delay_ms"`
	Multiplier     float64 `koanf:"multiplier"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format string `koanf:"format"` // text, json, markdown
	Color  bool   `koanf:"color"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Statuses: StatusConfig{
			Completed: []string{"done", "closed", "resolved", "completed"},
			Active: []string{
				"in progress", "in development", "in review",
				"code review", "testing", "qa", "ready for review",
			},
			Blocked: []string{"blocked", "on hold", "waiting"},
		},
		Thresholds: ThresholdConfig{
			PRLatencyHours:        48,
			FirstReviewHours:      24,
			PRLatencyRegression:   1.3,
			AssigneeWIPLimit:      5,
			AggregateWIPLimit:     10,
			ReviewerPendingLimit:  8,
			CompletionRateFloor:   70,
			ComplexityRateFloor:   50,
			BottleneckMinHours:    1,
			BottleneckMeanRatio:   1.5,
			BottleneckMinIssues:   2,
			RiskyIssuePoints:      8,
			RiskyIssueStalledHrs:  72,
			HighRevisionThreshold: 3,
			EstimationRateFloor:   60,
		},
		Spillover: SpilloverConfig{
			DefaultPoints:      3,
			DefaultHoursPerPt:  8,
			WorkdayHours:       8,
			ReportingThreshold: 0.3,
		},
		Cache: CacheConfig{
			Enabled:       true,
			Dir:           ".sprintlens/cache",
			SnapshotTTL:   15,
			ReviewTTL:     10,
			ReportTTL:     60,
			HistoricalTTL: 24 * 60,
		},
		Retry: RetryConfig{
			MaxAttempts:    5,
			InitialDelayMs: 500,
			MaxDelayMs:     30000,
			Multiplier:     2.0,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// Load loads configuration from a file, layered over defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries standard config locations or returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"sprintlens.toml",
		"sprintlens.yaml",
		"sprintlens.yml",
		"sprintlens.json",
		".sprintlens.toml",
		".sprintlens.yaml",
		".sprintlens.yml",
		".sprintlens.json",
	}

	searchDirs := []string{".", ".sprintlens"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := Load(path)
				if err == nil {
					return cfg
				}
			}
		}
	}

	return DefaultConfig()
}
