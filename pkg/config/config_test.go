package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Thresholds.PRLatencyHours != 48 {
		t.Errorf("PRLatencyHours = %v, want 48", cfg.Thresholds.PRLatencyHours)
	}
	if cfg.Thresholds.CompletionRateFloor != 70 {
		t.Errorf("CompletionRateFloor = %v, want 70", cfg.Thresholds.CompletionRateFloor)
	}
	if cfg.Cache.SnapshotTTL != 15 || cfg.Cache.ReviewTTL != 10 || cfg.Cache.ReportTTL != 60 {
		t.Errorf("cache TTLs = %+v", cfg.Cache)
	}
	if cfg.Cache.HistoricalTTL != 1440 {
		t.Errorf("HistoricalTTL = %d, want 1440", cfg.Cache.HistoricalTTL)
	}
	if len(cfg.Statuses.Completed) == 0 || len(cfg.Statuses.Active) == 0 {
		t.Error("status keyword lists empty")
	}
	if cfg.Spillover.ReportingThreshold != 0.3 {
		t.Errorf("ReportingThreshold = %v, want 0.3", cfg.Spillover.ReportingThreshold)
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sprintlens.toml")

	content := `
[thresholds]
pr_latency_hours = 24.0
assignee_wip_limit = 3

[cache]
enabled = false

[statuses]
completed = ["merged", "shipped"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Thresholds.PRLatencyHours != 24 {
		t.Errorf("PRLatencyHours = %v, want 24 from file", cfg.Thresholds.PRLatencyHours)
	}
	if cfg.Thresholds.AssigneeWIPLimit != 3 {
		t.Errorf("AssigneeWIPLimit = %d, want 3 from file", cfg.Thresholds.AssigneeWIPLimit)
	}
	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled = true, want false from file")
	}

	// Untouched values keep their defaults.
	if cfg.Thresholds.ReviewerPendingLimit != 8 {
		t.Errorf("ReviewerPendingLimit = %d, want default 8", cfg.Thresholds.ReviewerPendingLimit)
	}
	if len(cfg.Statuses.Completed) != 2 || cfg.Statuses.Completed[0] != "merged" {
		t.Errorf("Statuses.Completed = %v", cfg.Statuses.Completed)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sprintlens.yaml")

	content := `
thresholds:
  reviewer_pending_limit: 4
output:
  format: markdown
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Thresholds.ReviewerPendingLimit != 4 {
		t.Errorf("ReviewerPendingLimit = %d, want 4", cfg.Thresholds.ReviewerPendingLimit)
	}
	if cfg.Output.Format != "markdown" {
		t.Errorf("Format = %q, want markdown", cfg.Output.Format)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load of missing file succeeded")
	}
}
