package anomaly

import "fmt"

// Convention maps a score move to good or bad news.
type Convention string

const (
	// DeltaUpBad reads a rising score as a bad anomaly and a falling one as
	// good. This is what the anomaly dashboards show.
	DeltaUpBad Convention = "delta_up_bad"
	// DeltaUpGood is the intuitive reverse.
	DeltaUpGood Convention = "delta_up_good"
)

// Params are the hyperparameters of one dimension pipeline.
type Params struct {
	EncodingDim        int
	Epochs             int
	BatchSize          int
	LearningRate       float64
	ValidationFraction float64
	ThresholdQuantile  float64
	Seed               int64
	MinHealthy         int
	HealthyPLow        float64
	HealthyPHigh       float64
	Convention         Convention
}

// DefaultParams mirrors the reference training run.
func DefaultParams() Params {
	return Params{
		EncodingDim:        2,
		Epochs:             100,
		BatchSize:          8,
		LearningRate:       0.001,
		ValidationFraction: 0.2,
		ThresholdQuantile:  0.95,
		Seed:               42,
		MinHealthy:         5,
		HealthyPLow:        0.10,
		HealthyPHigh:       0.90,
		Convention:         DeltaUpBad,
	}
}

// Validate rejects parameter sets no pipeline can run with.
func (p Params) Validate() error {
	switch {
	case p.EncodingDim < 1:
		return fmt.Errorf("encoding_dim must be >= 1, got %d", p.EncodingDim)
	case p.Epochs < 1:
		return fmt.Errorf("epochs must be >= 1, got %d", p.Epochs)
	case p.BatchSize < 1:
		return fmt.Errorf("batch_size must be >= 1, got %d", p.BatchSize)
	case p.LearningRate <= 0:
		return fmt.Errorf("learning_rate must be > 0, got %g", p.LearningRate)
	case p.ValidationFraction <= 0 || p.ValidationFraction >= 1:
		return fmt.Errorf("validation_fraction must be in (0,1), got %g", p.ValidationFraction)
	case p.ThresholdQuantile <= 0 || p.ThresholdQuantile > 1:
		return fmt.Errorf("threshold_quantile must be in (0,1], got %g", p.ThresholdQuantile)
	case p.MinHealthy < 2:
		return fmt.Errorf("min_healthy must be >= 2, got %d", p.MinHealthy)
	case p.HealthyPLow > p.HealthyPHigh:
		return fmt.Errorf("healthy percentiles inverted: %g > %g", p.HealthyPLow, p.HealthyPHigh)
	case p.Convention != DeltaUpBad && p.Convention != DeltaUpGood:
		return fmt.Errorf("unknown nature convention %q", p.Convention)
	}
	return nil
}
