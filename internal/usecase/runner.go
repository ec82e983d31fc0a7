package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"FinScore/internal/domain/models"
	domrepo "FinScore/internal/domain/repository"
	icache "FinScore/internal/service/cache"
	"FinScore/internal/services/scoring"
	applogger "FinScore/pkg/logger"
)

const runCachePrefix = "run"

// RunUseCase is the batch entry point: it loads the indicator table,
// scores it, runs the anomaly pipelines and hands the result to the sinks.
// Results are cached by a fingerprint of the score table and the engine
// configuration, so an identical rerun is served without recomputation.
type RunUseCase struct {
	source      domrepo.IndicatorSource
	precomputed bool
	scoring     *ScoringUseCase
	anomalies   *AnomalyUseCase
	settings    any

	cache    icache.BytesCache
	cacheTTL time.Duration

	store     domrepo.ResultStore
	publisher domrepo.Publisher
	exporter  domrepo.Exporter
	metrics   domrepo.Metrics
	l         *applogger.Logger

	newID func() string
	now   func() time.Time

	runMu  sync.Mutex // one run at a time
	mu     sync.RWMutex
	latest *models.Run
}

// RunOption configures optional collaborators of RunUseCase.
type RunOption func(*RunUseCase)

// WithPrecomputedScores reads score_<dimension>_<cohort> columns from the
// source instead of normalizing raw ratios. The source must implement
// repository.ScoreSource.
func WithPrecomputedScores(enabled bool) RunOption {
	return func(uc *RunUseCase) { uc.precomputed = enabled }
}

// WithCache enables the fingerprint cache.
func WithCache(c icache.BytesCache, ttl time.Duration) RunOption {
	return func(uc *RunUseCase) {
		uc.cache = c
		uc.cacheTTL = ttl
	}
}

// WithResultStore persists every computed run.
func WithResultStore(s domrepo.ResultStore) RunOption {
	return func(uc *RunUseCase) { uc.store = s }
}

// WithPublisher publishes assessments and anomalies of every run.
func WithPublisher(p domrepo.Publisher) RunOption {
	return func(uc *RunUseCase) { uc.publisher = p }
}

// WithExporter writes every run as flat files.
func WithExporter(e domrepo.Exporter) RunOption {
	return func(uc *RunUseCase) { uc.exporter = e }
}

// WithSettings sets the configuration value hashed into the cache key.
// Anything that changes the output must be part of it.
func WithSettings(v any) RunOption {
	return func(uc *RunUseCase) { uc.settings = v }
}

func NewRunUseCase(
	source domrepo.IndicatorSource,
	sc *ScoringUseCase,
	an *AnomalyUseCase,
	m domrepo.Metrics,
	opts ...RunOption,
) *RunUseCase {
	uc := &RunUseCase{
		source:    source,
		scoring:   sc,
		anomalies: an,
		metrics:   m,
		l:         applogger.Nop(),
		newID:     func() string { return uuid.New().String() },
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// SetLogger injects a structured logger.
func (uc *RunUseCase) SetLogger(l *applogger.Logger) {
	if l != nil {
		uc.l = l
	}
}

// Run evaluates the current indicator table. Sink failures are joined into
// the returned error; the run itself is still returned and becomes the
// latest run.
func (uc *RunUseCase) Run(ctx context.Context) (*models.Run, error) {
	uc.runMu.Lock()
	defer uc.runMu.Unlock()

	start := uc.now()
	run, err := uc.compute(ctx, start)
	if err != nil {
		uc.metrics.RecordRun("failed")
		uc.l.Error("run.compute failed", applogger.Error(err))
		return nil, err
	}

	uc.mu.Lock()
	uc.latest = run
	uc.mu.Unlock()

	sinkErr := uc.deliver(ctx, run)
	outcome := "ok"
	switch {
	case sinkErr != nil:
		outcome = "sink_failed"
	case run.Cached:
		outcome = "cached"
	}
	uc.metrics.RecordRun(outcome)
	uc.l.Info("run.done",
		applogger.String("run_id", run.ID),
		applogger.String("fingerprint", run.Fingerprint),
		applogger.Bool("cached", run.Cached),
		applogger.Int("rows", run.Table.Len()),
		applogger.Int("companies", len(run.Anomalies)),
		applogger.Duration("duration_ms", run.Duration),
	)
	if sum := run.Summary(); len(sum.Errors) > 0 {
		uc.l.Warn("run.pipelines failed", applogger.String("run_id", run.ID), applogger.Any("errors", sum.Errors))
	}
	return run, sinkErr
}

func (uc *RunUseCase) compute(ctx context.Context, start time.Time) (*models.Run, error) {
	table, err := stageOf(uc.metrics, "load", func() (models.ScoreTable, error) { return uc.loadTable(ctx) })
	if err != nil {
		return nil, fmt.Errorf("load indicator table: %w", err)
	}

	fp, err := icache.Fingerprint(table, uc.settings)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}
	key := icache.GenerateKey(runCachePrefix, fp)

	if cached, ok := uc.lookup(ctx, key); ok {
		cached.ID = uc.newID()
		cached.StartedAt = start
		cached.Duration = uc.now().Sub(start)
		cached.Cached = true
		return cached, nil
	}

	run := &models.Run{ID: uc.newID(), StartedAt: start, Fingerprint: fp, Table: table}

	run.Scoring, err = stageOf(uc.metrics, "score", func() (models.ScoringResult, error) { return uc.scoring.Score(ctx, table) })
	if err != nil {
		return nil, err
	}
	run.Anomalies, err = stageOf(uc.metrics, "anomaly", func() ([]models.CompanyAnomalies, error) { return uc.anomalies.Run(ctx, table) })
	if err != nil {
		return nil, err
	}
	run.Duration = uc.now().Sub(start)

	uc.remember(ctx, key, run)
	return run, nil
}

// stageOf times fn under the given stage label.
func stageOf[T any](m domrepo.Metrics, name string, fn func() (T, error)) (T, error) {
	t0 := time.Now()
	v, err := fn()
	m.RecordStage(name, time.Since(t0).Seconds())
	return v, err
}

func (uc *RunUseCase) loadTable(ctx context.Context) (models.ScoreTable, error) {
	if uc.precomputed {
		src, ok := uc.source.(domrepo.ScoreSource)
		if !ok {
			return models.ScoreTable{}, errors.New("source does not provide precomputed scores")
		}
		return src.LoadScores(ctx)
	}
	obs, err := uc.source.LoadObservations(ctx)
	if err != nil {
		return models.ScoreTable{}, err
	}
	return scoring.BuildScoreTable(obs), nil
}

func (uc *RunUseCase) lookup(ctx context.Context, key string) (*models.Run, bool) {
	if uc.cache == nil {
		return nil, false
	}
	b, ok, err := uc.cache.GetBytes(ctx, key)
	if err != nil {
		uc.l.Warn("run.cache get failed", applogger.String("key", key), applogger.Error(err))
	}
	if err != nil || !ok {
		uc.metrics.RecordCacheLookup(false)
		return nil, false
	}
	var run models.Run
	if err := json.Unmarshal(b, &run); err != nil {
		uc.l.Warn("run.cache decode failed", applogger.String("key", key), applogger.Error(err))
		uc.metrics.RecordCacheLookup(false)
		return nil, false
	}
	uc.metrics.RecordCacheLookup(true)
	return &run, true
}

func (uc *RunUseCase) remember(ctx context.Context, key string, run *models.Run) {
	if uc.cache == nil {
		return
	}
	b, err := json.Marshal(run)
	if err != nil {
		uc.l.Warn("run.cache encode failed", applogger.Error(err))
		return
	}
	if err := uc.cache.SetBytes(ctx, key, b, uc.cacheTTL); err != nil {
		uc.l.Warn("run.cache set failed", applogger.String("key", key), applogger.Error(err))
	}
}

// deliver hands the run to every configured sink. One failing sink does
// not stop the others.
func (uc *RunUseCase) deliver(ctx context.Context, run *models.Run) error {
	t0 := time.Now()
	defer func() { uc.metrics.RecordStage("deliver", time.Since(t0).Seconds()) }()

	var errs []error
	if uc.store != nil {
		if err := uc.store.SaveRun(ctx, run); err != nil {
			errs = append(errs, fmt.Errorf("save run: %w", err))
		}
	}
	if uc.publisher != nil {
		var items []models.Assessment
		for _, c := range models.Cohorts() {
			items = append(items, run.Scoring.Assessments[c]...)
		}
		if err := uc.publisher.PublishAssessments(ctx, run.ID, items); err != nil {
			errs = append(errs, fmt.Errorf("publish assessments: %w", err))
		}
		if err := uc.publisher.PublishAnomalies(ctx, run.ID, run.AllRecords()); err != nil {
			errs = append(errs, fmt.Errorf("publish anomalies: %w", err))
		}
	}
	if uc.exporter != nil {
		paths, err := uc.exporter.Export(ctx, run)
		if err != nil {
			errs = append(errs, fmt.Errorf("export run: %w", err))
		} else {
			uc.l.Info("run.export ok", applogger.String("run_id", run.ID), applogger.Strings("files", paths))
		}
	}
	for _, err := range errs {
		uc.l.Warn("run.deliver failed", applogger.String("run_id", run.ID), applogger.Error(err))
	}
	return errors.Join(errs...)
}

// Latest returns the most recent completed run.
func (uc *RunUseCase) Latest() (*models.Run, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	if uc.latest == nil {
		return nil, ErrNoRun
	}
	return uc.latest, nil
}
