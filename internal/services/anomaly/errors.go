package anomaly

import "errors"

var (
	// ErrNoHealthyData means the healthy set is too small to fit a model.
	ErrNoHealthyData = errors.New("no healthy data to fit reconstruction model")
	// ErrNotFitted is returned when scoring with a model that was never trained.
	ErrNotFitted = errors.New("reconstruction model not fitted")
)
