// Package analysis orchestrates a sprint analysis pass: cache lookup,
// parallel data collection, the metrics/risk/spillover/recommendation
// pipeline, report assembly and historical persistence.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sprintlens/sprintlens/internal/cache"
	"github.com/sprintlens/sprintlens/internal/collab"
	"github.com/sprintlens/sprintlens/pkg/analyzer/metrics"
	"github.com/sprintlens/sprintlens/pkg/analyzer/recommend"
	"github.com/sprintlens/sprintlens/pkg/analyzer/report"
	"github.com/sprintlens/sprintlens/pkg/analyzer/risk"
	"github.com/sprintlens/sprintlens/pkg/analyzer/spillover"
	"github.com/sprintlens/sprintlens/pkg/config"
	"github.com/sprintlens/sprintlens/pkg/models"
	"github.com/sprintlens/sprintlens/pkg/retry"
)

// historicalSprintCount is how many past sprints feed trend comparison.
const historicalSprintCount = 5

// ValidationError indicates a required input was missing.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "analysis: " + e.Msg
}

// Service owns the end-to-end analysis pass. Two concurrent passes for the
// same sprint id are not synchronized against each other: both fetch, both
// compute, and cache writes are last-write-wins.
type Service struct {
	tracker   collab.IssueTracker
	reviews   collab.ReviewSystem
	store     cache.Store
	cfg       *config.Config
	log       *zap.SugaredLogger
	now       func() time.Time
	metrics   *metrics.Analyzer
	risk      *risk.Analyzer
	spillover *spillover.Predictor
	recommend *recommend.Engine
	assembler *report.Assembler
}

// Option configures a Service.
type Option func(*Service)

// WithTracker sets the issue tracker collaborator.
func WithTracker(t collab.IssueTracker) Option {
	return func(s *Service) {
		s.tracker = t
	}
}

// WithReviewSystem sets the code-review collaborator.
func WithReviewSystem(r collab.ReviewSystem) Option {
	return func(s *Service) {
		s.reviews = r
	}
}

// WithStore sets the cache store.
func WithStore(store cache.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// WithNow sets the clock (for testing).
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates an analysis service. The analyzers are constructed from the
// configured keyword lists and thresholds so every stage classifies statuses
// the same way.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:   config.DefaultConfig(),
		store: cache.NewMemory(),
		log:   zap.NewNop().Sugar(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	classifier := models.NewStatusClassifier(
		s.cfg.Statuses.Completed,
		s.cfg.Statuses.Active,
		s.cfg.Statuses.Blocked,
	)
	th := s.cfg.Thresholds

	s.metrics = metrics.New(
		metrics.WithClassifier(classifier),
		metrics.WithThresholds(metrics.Thresholds{
			MinDwellHours: th.BottleneckMinHours,
			MeanRatio:     th.BottleneckMeanRatio,
			MinIssues:     th.BottleneckMinIssues,
		}),
		metrics.WithNow(s.now),
	)
	s.risk = risk.New(
		risk.WithClassifier(classifier),
		risk.WithThresholds(risk.Thresholds{
			PRLatencyHours:       th.PRLatencyHours,
			FirstReviewHours:     th.FirstReviewHours,
			PRLatencyRegression:  th.PRLatencyRegression,
			AssigneeWIPLimit:     th.AssigneeWIPLimit,
			AggregateWIPLimit:    th.AggregateWIPLimit,
			ReviewerPendingLimit: th.ReviewerPendingLimit,
			CompletionRateFloor:  th.CompletionRateFloor,
			ComplexityRateFloor:  th.ComplexityRateFloor,
		}),
	)
	s.spillover = spillover.New(
		spillover.WithClassifier(classifier),
		spillover.WithTuning(spillover.Tuning{
			DefaultPoints:        s.cfg.Spillover.DefaultPoints,
			DefaultHoursPerPoint: s.cfg.Spillover.DefaultHoursPerPt,
			WorkdayHours:         s.cfg.Spillover.WorkdayHours,
			ReportingThreshold:   s.cfg.Spillover.ReportingThreshold,
		}),
	)
	rt := recommend.DefaultThresholds()
	rt.CompletionRateFloor = th.CompletionRateFloor
	rt.ReviewerPendingLimit = th.ReviewerPendingLimit
	rt.FirstReviewHours = th.FirstReviewHours
	rt.AssigneeWIPLimit = th.AssigneeWIPLimit
	rt.RiskyIssuePoints = th.RiskyIssuePoints
	rt.RiskyIssueStalledHours = th.RiskyIssueStalledHrs
	rt.HighRevisionAverage = th.HighRevisionThreshold
	rt.EstimationRateFloor = th.EstimationRateFloor
	s.recommend = recommend.New(
		recommend.WithClassifier(classifier),
		recommend.WithThresholds(rt),
		recommend.WithNow(s.now),
	)
	s.assembler = report.New(
		report.WithClassifier(classifier),
		report.WithNow(s.now),
	)

	if s.tracker != nil {
		s.tracker = collab.NewRetryingIssueTracker(s.tracker, s.retryConfig())
	}
	if s.reviews != nil {
		s.reviews = collab.NewRetryingReviewSystem(s.reviews, s.retryConfig())
	}

	return s
}

func (s *Service) retryConfig() retry.Config {
	r := s.cfg.Retry
	return retry.Config{
		MaxAttempts:  r.MaxAttempts,
		InitialDelay: time.Duration(r.InitialDelayMs) * time.Millisecond,
		MaxDelay:     time.Duration(r.MaxDelayMs) * time.Millisecond,
		Multiplier:   r.Multiplier,
	}
}

// AnalyzeOption configures one analysis pass.
type AnalyzeOption func(*analyzeOptions)

type analyzeOptions struct {
	boardID      string
	forceRefresh bool
}

// WithBoard enables historical trend lookup against the given board.
func WithBoard(boardID string) AnalyzeOption {
	return func(o *analyzeOptions) {
		o.boardID = boardID
	}
}

// WithForceRefresh bypasses both the report cache and the raw-data caches.
func WithForceRefresh() AnalyzeOption {
	return func(o *analyzeOptions) {
		o.forceRefresh = true
	}
}

// Analyze runs one analysis pass and always returns a syntactically valid
// report: when the issue tracker is unreachable the report is a degraded
// placeholder (High risk, fixed summary) rather than an error.
func (s *Service) Analyze(ctx context.Context, sprintID string, opts ...AnalyzeOption) (*models.SprintReport, error) {
	if sprintID == "" {
		return nil, &ValidationError{Msg: "sprint id is required"}
	}

	var o analyzeOptions
	for _, opt := range opts {
		opt(&o)
	}

	if !o.forceRefresh {
		if cached := s.cachedReport(ctx, sprintID); cached != nil {
			s.log.Debugw("report cache hit", "sprint", sprintID)
			return cached, nil
		}
	}

	snap, history, err := s.collect(ctx, sprintID, o)
	if err != nil {
		s.log.Errorw("issue tracker unavailable, returning degraded report",
			"sprint", sprintID, "error", err)
		return s.degradedReport(sprintID), nil
	}

	// Review requests are keyed by issue, so this fetch can only start once
	// issue keys are known. Review-system failure degrades to an empty set.
	reviews := s.collectReviews(ctx, snap, o)

	rep := s.runPipeline(snap, history, reviews)

	s.cacheReport(ctx, sprintID, rep)
	if snap.Sprint.State == models.SprintClosed {
		s.persistHistorical(ctx, snap.Sprint, rep)
	}

	return rep, nil
}

// runPipeline executes the strictly sequential computation stages on an
// already-collected snapshot.
func (s *Service) runPipeline(snap snapshot, history []models.HistoricalMetrics, reviews []models.ReviewRequest) *models.SprintReport {
	sprintMetrics := s.metrics.ComputeSprintMetrics(snap.Issues, snap.Sprint)
	prMetrics := s.metrics.ComputePRMetrics(reviews)
	bottlenecks := s.metrics.FindBottlenecks(snap.Issues)

	assessment := s.risk.Assess(risk.Input{
		Sprint:       sprintMetrics,
		PullRequests: prMetrics,
		History:      history,
		Issues:       snap.Issues,
		Reviews:      reviews,
	})

	// Spillover prediction only applies to a sprint still in flight.
	if snap.Sprint.State == models.SprintActive {
		predictions := s.spillover.Predict(snap.Issues, snap.Sprint, s.now(), &sprintMetrics)
		if len(predictions) > 0 {
			s.log.Debugw("spillover predicted",
				"sprint", snap.Sprint.ID, "at_risk", len(predictions))
		}
	}

	recs := s.recommend.Generate(recommend.Input{
		Risk:         assessment,
		Sprint:       sprintMetrics,
		PullRequests: prMetrics,
		Issues:       snap.Issues,
		Reviews:      reviews,
		Bottlenecks:  bottlenecks,
	})

	var next *models.NextSprintSuggestions
	if len(history) > 0 {
		suggestions := s.recommend.GenerateNextSprintSuggestions(recommend.NextSprintInput{
			Sprint:  sprintMetrics,
			History: history,
			Risk:    assessment,
			Issues:  snap.Issues,
			Reviews: reviews,
		})
		next = &suggestions
	}

	return s.assembler.Assemble(report.Input{
		Sprint:          snap.Sprint,
		Metrics:         sprintMetrics,
		PullRequests:    prMetrics,
		Risk:            assessment,
		Recommendations: recs,
		Issues:          snap.Issues,
		Reviews:         reviews,
		Bottlenecks:     bottlenecks,
		NextSprint:      next,
	})
}

// PredictSpillover returns per-issue spillover probabilities for a sprint,
// reusing the cached snapshot when fresh. The report shape does not carry
// predictions, so UI callers fetch them through this entry point.
func (s *Service) PredictSpillover(ctx context.Context, sprintID string, opts ...AnalyzeOption) ([]models.SpilloverPrediction, error) {
	if sprintID == "" {
		return nil, &ValidationError{Msg: "sprint id is required"}
	}

	var o analyzeOptions
	for _, opt := range opts {
		opt(&o)
	}

	snap, err := s.fetchSnapshot(ctx, sprintID, o.forceRefresh)
	if err != nil {
		return nil, err
	}

	sprintMetrics := s.metrics.ComputeSprintMetrics(snap.Issues, snap.Sprint)
	return s.spillover.Predict(snap.Issues, snap.Sprint, s.now(), &sprintMetrics), nil
}

// Invalidate removes every cache entry for a sprint.
func (s *Service) Invalidate(ctx context.Context, sprintID string) error {
	if sprintID == "" {
		return &ValidationError{Msg: "sprint id is required"}
	}

	for _, key := range []string{reportKey(sprintID), snapshotKey(sprintID), reviewsKey(sprintID)} {
		if err := s.store.Delete(ctx, key); err != nil {
			s.log.Warnw("cache delete failed", "key", key, "error", err)
		}
	}
	return nil
}

func (s *Service) cachedReport(ctx context.Context, sprintID string) *models.SprintReport {
	data, ok, err := s.store.Get(ctx, reportKey(sprintID))
	if err != nil {
		s.log.Warnw("report cache read failed", "sprint", sprintID, "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var rep models.SprintReport
	if err := json.Unmarshal(data, &rep); err != nil {
		s.log.Warnw("report cache entry corrupt", "sprint", sprintID, "error", err)
		return nil
	}
	return &rep
}

func (s *Service) cacheReport(ctx context.Context, sprintID string, rep *models.SprintReport) {
	data, err := json.Marshal(rep)
	if err != nil {
		s.log.Warnw("report marshal failed", "sprint", sprintID, "error", err)
		return
	}
	ttl := time.Duration(s.cfg.Cache.ReportTTL) * time.Minute
	if err := s.store.Set(ctx, reportKey(sprintID), data, ttl); err != nil {
		s.log.Warnw("report cache write failed", "sprint", sprintID, "error", err)
	}
}

// persistHistorical snapshots a closed sprint's metrics for future trend
// comparison. Write-once: an existing entry is never overwritten.
func (s *Service) persistHistorical(ctx context.Context, sprint models.Sprint, rep *models.SprintReport) {
	key := historicalKey(sprint.ID)

	if _, ok, err := s.store.Get(ctx, key); err != nil {
		s.log.Warnw("historical cache read failed", "sprint", sprint.ID, "error", err)
		return
	} else if ok {
		return
	}

	hist := models.HistoricalMetrics{
		SprintID:     sprint.ID,
		SprintName:   sprint.Name,
		CompletedAt:  sprint.EndAt,
		Sprint:       rep.Metrics.Sprint,
		PullRequests: rep.Metrics.PullRequests,
	}
	data, err := json.Marshal(hist)
	if err != nil {
		s.log.Warnw("historical marshal failed", "sprint", sprint.ID, "error", err)
		return
	}

	ttl := time.Duration(s.cfg.Cache.HistoricalTTL) * time.Minute
	if err := s.store.Set(ctx, key, data, ttl); err != nil {
		s.log.Warnw("historical cache write failed", "sprint", sprint.ID, "error", err)
	}
}

func reportKey(sprintID string) string     { return fmt.Sprintf("report:%s", sprintID) }
func snapshotKey(sprintID string) string   { return fmt.Sprintf("snapshot:%s", sprintID) }
func reviewsKey(sprintID string) string    { return fmt.Sprintf("reviews:%s", sprintID) }
func historicalKey(sprintID string) string { return fmt.Sprintf("historical:%s", sprintID) }
