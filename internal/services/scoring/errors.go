package scoring

import "errors"

// ErrInsufficientSample is returned when a cohort column holds too few
// present scores to estimate its percentile band.
var ErrInsufficientSample = errors.New("insufficient sample for threshold estimation")
