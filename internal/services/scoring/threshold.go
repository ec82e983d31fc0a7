package scoring

import (
	"fmt"
	"math"

	"FinScore/internal/domain/models"
	"FinScore/internal/services/features"
)

// ThresholdConfig controls band estimation.
type ThresholdConfig struct {
	PLow         float64
	PHigh        float64
	MinSamples   int
	RevenueDrop  float64
	RevenueBoost float64
}

// DefaultThresholdConfig is P10/P90 with at least 10 scores and the fixed
// ±10% revenue thresholds.
func DefaultThresholdConfig() ThresholdConfig {
	return ThresholdConfig{PLow: 0.10, PHigh: 0.90, MinSamples: 10, RevenueDrop: -0.10, RevenueBoost: 0.10}
}

// ComputeBands estimates the band of every dimension from the cohort
// columns of the whole table.
func ComputeBands(table models.ScoreTable, c models.Cohort, cfg ThresholdConfig) (models.BandSet, error) {
	if cfg.PLow < 0 || cfg.PHigh > 1 || cfg.PLow > cfg.PHigh {
		return models.BandSet{}, fmt.Errorf("invalid percentile cutoffs %.2f/%.2f", cfg.PLow, cfg.PHigh)
	}
	set := models.BandSet{Cohort: c, RevenueDrop: cfg.RevenueDrop, RevenueBoost: cfg.RevenueBoost}
	for _, d := range models.Dimensions() {
		b, err := EstimateBand(models.Present(table.Values(d, c)), cfg)
		if err != nil {
			return models.BandSet{}, fmt.Errorf("%s %s band: %w", c, d, err)
		}
		set.Bands[d] = b
	}
	if err := set.Validate(); err != nil {
		return models.BandSet{}, err
	}
	return set, nil
}

// EstimateBand returns [q(PLow), q(PHigh)] of the values.
func EstimateBand(values []float64, cfg ThresholdConfig) (models.Band, error) {
	need := cfg.MinSamples
	if need < 1 {
		need = 1
	}
	if len(values) < need {
		return models.Band{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientSample, len(values), need)
	}
	low := features.Quantile(values, cfg.PLow)
	high := features.Quantile(values, cfg.PHigh)
	if math.IsNaN(low) || math.IsNaN(high) {
		return models.Band{}, fmt.Errorf("%w: undefined quantile", ErrInsufficientSample)
	}
	return models.Band{Low: low, High: high}, nil
}
