package repository

import (
	"context"

	"FinScore/internal/domain/models"
)

// IndicatorSource supplies the already-parsed quarterly indicator table.
type IndicatorSource interface {
	LoadObservations(ctx context.Context) ([]models.Observation, error)
}

// ScoreSource is implemented by sources that also carry precomputed
// score_<dimension>_<cohort> columns.
type ScoreSource interface {
	LoadScores(ctx context.Context) (models.ScoreTable, error)
}

// EventSource supplies the static event annotations of a company.
type EventSource interface {
	For(company string) []models.Event
}

// ResultStore persists run outputs.
type ResultStore interface {
	Init(ctx context.Context) error // ensure tables
	SaveRun(ctx context.Context, run *models.Run) error
	Health(ctx context.Context) error
	Close() error
}

// Publisher emits run outputs to downstream consumers.
type Publisher interface {
	PublishAssessments(ctx context.Context, runID string, items []models.Assessment) error
	PublishAnomalies(ctx context.Context, runID string, records []models.AnomalyRecord) error
	Close() error
}

// Exporter writes run outputs as flat files.
type Exporter interface {
	Export(ctx context.Context, run *models.Run) ([]string, error)
}

type Metrics interface {
	RecordStage(stage string, seconds float64)
	RecordPipelineFailure(dimension, reason string)
	RecordAnomalies(dimension, nature string, n int)
	RecordStatus(cohort, status string)
	RecordCacheLookup(hit bool)
	RecordRun(outcome string)
}
