package usecase

import (
	"context"
	"fmt"
	"time"

	"FinScore/internal/domain/models"
	domrepo "FinScore/internal/domain/repository"
	"FinScore/internal/services/scoring"
	applogger "FinScore/pkg/logger"
)

// ScoringUseCase computes the bands of both cohorts and labels every row.
type ScoringUseCase struct {
	cfg     scoring.ThresholdConfig
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewScoringUseCase(cfg scoring.ThresholdConfig, m domrepo.Metrics) *ScoringUseCase {
	return &ScoringUseCase{cfg: cfg, metrics: m, l: applogger.Nop()}
}

// SetLogger injects a structured logger.
func (uc *ScoringUseCase) SetLogger(l *applogger.Logger) {
	if l != nil {
		uc.l = l
	}
}

// Config returns the threshold configuration.
func (uc *ScoringUseCase) Config() scoring.ThresholdConfig { return uc.cfg }

// Score fails when a cohort column is too sparse for a band; the error
// wraps scoring.ErrInsufficientSample.
func (uc *ScoringUseCase) Score(ctx context.Context, table models.ScoreTable) (models.ScoringResult, error) {
	start := time.Now()
	res := models.ScoringResult{
		Bands:       make(map[models.Cohort]models.BandSet, 2),
		Assessments: make(map[models.Cohort][]models.Assessment, 2),
	}

	for _, c := range models.Cohorts() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		bands, err := scoring.ComputeBands(table, c, uc.cfg)
		if err != nil {
			uc.l.Warn("scoring.bands failed",
				applogger.String("cohort", string(c)),
				applogger.Error(err),
			)
			return res, fmt.Errorf("score %s cohort: %w", c, err)
		}
		items := scoring.AssessTable(table, bands)
		for _, a := range items {
			uc.metrics.RecordStatus(string(c), string(a.Status))
		}
		res.Bands[c] = bands
		res.Assessments[c] = items
	}

	uc.l.Info("scoring.run ok",
		applogger.Int("rows", table.Len()),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return res, nil
}
