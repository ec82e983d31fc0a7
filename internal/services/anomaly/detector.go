package anomaly

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"FinScore/internal/domain/models"
	"FinScore/internal/domain/service"
	"FinScore/internal/services/features"
	applogger "FinScore/pkg/logger"
)

// Detector fits one reconstruction model per call. It holds no state
// between calls and is safe for concurrent use.
type Detector struct {
	params Params
	log    *applogger.Logger
}

var _ service.AnomalyDetector = (*Detector)(nil)

func NewDetector(p Params) (*Detector, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("anomaly params: %w", err)
	}
	return &Detector{params: p, log: applogger.Nop()}, nil
}

func (d *Detector) SetLogger(l *applogger.Logger) {
	if l != nil {
		d.log = l
	}
}

// Params returns the detector's hyperparameters.
func (d *Detector) Params() Params { return d.params }

// Detect selects the healthy periods, trains on them, calibrates the
// threshold on the held-out part and scores every period with a score.
func (d *Detector) Detect(ctx context.Context, s models.ScoreSeries) (models.DimensionResult, error) {
	p := d.params
	res := models.DimensionResult{Dimension: s.Dimension}

	points := features.Points(s.Scores)
	healthy := SelectHealthy(points, p.HealthyPLow, p.HealthyPHigh)
	res.HealthyCount = len(healthy)
	if len(healthy) < p.MinHealthy {
		return res, fmt.Errorf("%s/%s: %w (have %d, need %d)", s.Company, s.Dimension, ErrNoHealthyData, len(healthy), p.MinHealthy)
	}

	scaler := features.FitStandardizer(featureRows(healthy))
	z := scaler.Transform(featureRows(healthy))

	rng := rand.New(rand.NewSource(p.Seed))
	trainIdx, valIdx := Split(len(z), p.ValidationFraction, rng)

	start := time.Now()
	ae := NewAutoencoder(2, p.EncodingDim, p.LearningRate, rng)
	loss, err := ae.Fit(ctx, pick(z, trainIdx), p.Epochs, p.BatchSize)
	if err != nil {
		return res, fmt.Errorf("%s/%s fit: %w", s.Company, s.Dimension, err)
	}

	valErr, err := ae.Errors(pick(z, valIdx))
	if err != nil {
		return res, fmt.Errorf("%s/%s validate: %w", s.Company, s.Dimension, err)
	}
	res.Threshold = features.Quantile(valErr, p.ThresholdQuantile)

	errs, err := ae.Errors(scaler.Transform(featureRows(points)))
	if err != nil {
		return res, fmt.Errorf("%s/%s score: %w", s.Company, s.Dimension, err)
	}

	res.Records = make([]models.AnomalyRecord, len(points))
	for k, pt := range points {
		isAnomaly := errs[k] > res.Threshold
		nature, dir := Classify(isAnomaly, pt.Delta, p.Convention)
		res.Records[k] = models.AnomalyRecord{
			Company:             s.Company,
			Date:                s.Dates[pt.Index],
			Quarter:             s.Quarters[pt.Index],
			Dimension:           s.Dimension,
			Score:               pt.Score,
			Delta:               pt.Delta,
			ReconstructionError: errs[k],
			Threshold:           res.Threshold,
			IsAnomaly:           isAnomaly,
			Nature:              nature,
			Direction:           dir,
		}
	}

	d.log.Debug("anomaly.fit ok",
		applogger.String("company", s.Company),
		applogger.String("dimension", s.Dimension.String()),
		applogger.Int("healthy", len(healthy)),
		applogger.Int("train", len(trainIdx)),
		applogger.Float64("loss", loss),
		applogger.Float64("threshold", res.Threshold),
		applogger.Duration("took", time.Since(start)),
	)
	return res, nil
}

// Classify derives nature and direction of a record. Non-anomalous rows
// and zero deltas are none on both.
func Classify(isAnomaly bool, delta float64, conv Convention) (models.Nature, models.Direction) {
	if !isAnomaly || delta == 0 {
		return models.NatureNone, models.DirectionNone
	}
	up := delta > 0
	dir := models.DirectionNegative
	if up {
		dir = models.DirectionPositive
	}
	if up == (conv == DeltaUpGood) {
		return models.NatureGood, dir
	}
	return models.NatureBad, dir
}

func featureRows(points []features.Point) [][]float64 {
	out := make([][]float64, len(points))
	for i, p := range points {
		out[i] = []float64{p.Score, p.Delta}
	}
	return out
}

func pick(rows [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}
