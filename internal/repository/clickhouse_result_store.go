package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"FinScore/internal/domain/models"
	domrepo "FinScore/internal/domain/repository"
	pkgch "FinScore/pkg/clickhouse"
	applogger "FinScore/pkg/logger"
)

var _ domrepo.ResultStore = (*CHResultStore)(nil)

// CHResultStore writes run outputs into ClickHouse in long format, one
// row per (run, company, date, dimension) for anomalies.
type CHResultStore struct {
	ch *pkgch.Client
	db string
	l  *applogger.Logger
}

func NewCHResultStore(ch *pkgch.Client) *CHResultStore {
	return &CHResultStore{ch: ch, db: ch.Database(), l: applogger.Nop()}
}

// SetLogger injects a structured logger.
func (s *CHResultStore) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

func (s *CHResultStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, ResultSchema(s.db))
}

func (s *CHResultStore) SaveRun(ctx context.Context, run *models.Run) error {
	start := time.Now()

	if _, err := s.ch.DB().ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s.runs (run_id, started_at, duration_ms, fingerprint, rows, companies) VALUES (?, ?, ?, ?, ?, ?)", s.db),
		run.ID, run.StartedAt, run.Duration.Milliseconds(), run.Fingerprint,
		uint32(run.Table.Len()), uint32(len(run.Table.Companies())),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	assessments := flattenAssessments(run)
	err := s.ch.InsertBatch(ctx,
		fmt.Sprintf("INSERT INTO %s.assessments (%s)", s.db, strings.Join(assessmentColumns(), ", ")),
		len(assessments), func(i int) []any { return assessmentValues(run.ID, assessments[i]) })
	if err != nil {
		return fmt.Errorf("insert assessments: %w", err)
	}

	records := run.AllRecords()
	err = s.ch.InsertBatch(ctx,
		fmt.Sprintf("INSERT INTO %s.anomalies (%s)", s.db, strings.Join(anomalyColumns, ", ")),
		len(records), func(i int) []any { return anomalyValues(run.ID, records[i]) })
	if err != nil {
		return fmt.Errorf("insert anomalies: %w", err)
	}

	var clusters []models.Cluster
	for _, c := range run.Anomalies {
		clusters = append(clusters, c.Clusters()...)
	}
	err = s.ch.InsertBatch(ctx,
		fmt.Sprintf("INSERT INTO %s.clusters (run_id, company, dimension, nature, start, end, count) VALUES (?, ?, ?, ?, ?, ?, ?)", s.db),
		len(clusters), func(i int) []any {
			c := clusters[i]
			return []any{run.ID, c.Company, c.Dimension.String(), string(c.Nature), c.Start, c.End, uint32(c.Count)}
		})
	if err != nil {
		return fmt.Errorf("insert clusters: %w", err)
	}

	s.l.Info("clickhouse save_run ok",
		applogger.String("run_id", run.ID),
		applogger.Int("assessments", len(assessments)),
		applogger.Int("anomalies", len(records)),
		applogger.Int("clusters", len(clusters)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (s *CHResultStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *CHResultStore) Close() error {
	return nil // client owned by the caller
}

func flattenAssessments(run *models.Run) []models.Assessment {
	var out []models.Assessment
	for _, c := range models.Cohorts() {
		out = append(out, run.Scoring.Assessments[c]...)
	}
	return out
}

func assessmentColumns() []string {
	cols := []string{"run_id", "company", "quarter", "date", "cohort", "status", "alerts", "revenue_growth"}
	for _, d := range models.Dimensions() {
		cols = append(cols, "score_"+d.String())
	}
	return cols
}

func assessmentValues(runID string, a models.Assessment) []any {
	vals := []any{runID, a.Company, a.Quarter, a.Date, string(a.Cohort), string(a.Status), a.AlertSummary(), a.RevenueGrowth.Ptr()}
	for _, v := range a.Scores {
		vals = append(vals, v.Ptr())
	}
	return vals
}

var anomalyColumns = []string{
	"run_id", "company", "date", "quarter", "dimension", "score", "delta",
	"reconstruction_error", "threshold", "is_anomaly", "nature", "anomaly_type", "events",
}

func anomalyValues(runID string, r models.AnomalyRecord) []any {
	events := make([]string, len(r.Events))
	for i, e := range r.Events {
		events[i] = e.Date.Format(time.DateOnly) + " " + e.Description
	}
	var flag uint8
	if r.IsAnomaly {
		flag = 1
	}
	return []any{
		runID, r.Company, r.Date, r.Quarter, r.Dimension.String(), r.Score, r.Delta,
		r.ReconstructionError, r.Threshold, flag, string(r.Nature), string(r.Direction), events,
	}
}

// ResultSchema returns the DDL of the run output tables.
func ResultSchema(db string) []string {
	scoreCols := make([]string, 0, models.NumDimensions)
	for _, d := range models.Dimensions() {
		scoreCols = append(scoreCols, fmt.Sprintf("            score_%s Nullable(Float64)", d))
	}
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.runs (
            run_id String,
            started_at DateTime64(3),
            duration_ms Int64,
            fingerprint String,
            rows UInt32,
            companies UInt32
        ) ENGINE = MergeTree ORDER BY (started_at, run_id)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.assessments (
            run_id String,
            company LowCardinality(String),
            quarter String,
            date Date,
            cohort LowCardinality(String),
            status LowCardinality(String),
            alerts String,
            revenue_growth Nullable(Float64),
%s
        ) ENGINE = MergeTree ORDER BY (run_id, cohort, company, date)`, db, strings.Join(scoreCols, ",\n")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.anomalies (
            run_id String,
            company LowCardinality(String),
            date Date,
            quarter String,
            dimension LowCardinality(String),
            score Float64,
            delta Float64,
            reconstruction_error Float64,
            threshold Float64,
            is_anomaly UInt8,
            nature LowCardinality(String),
            anomaly_type LowCardinality(String),
            events Array(String)
        ) ENGINE = MergeTree ORDER BY (run_id, company, dimension, date)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.clusters (
            run_id String,
            company LowCardinality(String),
            dimension LowCardinality(String),
            nature LowCardinality(String),
            start Date,
            end Date,
            count UInt32
        ) ENGINE = MergeTree ORDER BY (run_id, company, dimension, start)`, db),
	}
}
