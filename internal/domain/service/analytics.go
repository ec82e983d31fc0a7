package service

import (
	"context"

	"FinScore/internal/domain/models"
)

// AnomalyDetector fits a reconstruction model on one score series and
// scores every period of it.
type AnomalyDetector interface {
	Detect(ctx context.Context, s models.ScoreSeries) (models.DimensionResult, error)
}

// EventCorrelator attaches nearby events to anomalous records.
type EventCorrelator interface {
	Annotate(records []models.AnomalyRecord, events []models.Event) []models.AnomalyRecord
}
