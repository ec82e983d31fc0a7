package events

import (
	"sort"
	"time"

	"FinScore/internal/domain/models"
	domsvc "FinScore/internal/domain/service"
)

// DefaultTolerance is the single window used to match events to anomalies.
const DefaultTolerance = 90 * 24 * time.Hour

// Correlator attaches nearby events to anomaly records.
type Correlator struct {
	Tolerance time.Duration
}

var _ domsvc.EventCorrelator = (*Correlator)(nil)

func NewCorrelator(tolerance time.Duration) *Correlator {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Correlator{Tolerance: tolerance}
}

// Nearby returns the events tagged for dim within [date-tol, date+tol],
// sorted by date.
func (c *Correlator) Nearby(date time.Time, dim models.Dimension, events []models.Event) []models.Event {
	from, to := date.Add(-c.Tolerance), date.Add(c.Tolerance)
	var out []models.Event
	for _, e := range events {
		if !e.TargetsDimension(dim) {
			continue
		}
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Annotate fills Events on every anomalous record. The input is not modified.
func (c *Correlator) Annotate(records []models.AnomalyRecord, events []models.Event) []models.AnomalyRecord {
	out := make([]models.AnomalyRecord, len(records))
	copy(out, records)
	if len(events) == 0 {
		return out
	}
	for i := range out {
		if !out[i].IsAnomaly {
			continue
		}
		out[i].Events = c.Nearby(out[i].Date, out[i].Dimension, events)
	}
	return out
}
