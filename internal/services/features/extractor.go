package features

import (
	"FinScore/internal/domain/models"
)

// Deltas computes the period-over-period differences d_t = s_t - s_{t-1}.
// The first delta, and every delta next to a missing score, is 0.
func Deltas(scores []models.NullFloat) []float64 {
	out := make([]float64, len(scores))
	for i := 1; i < len(scores); i++ {
		prev, cur := scores[i-1], scores[i]
		if !prev.Valid || !cur.Valid {
			continue
		}
		out[i] = cur.Float64 - prev.Float64
	}
	return out
}

// Column extracts one indicator column of the observations.
func Column(obs []models.Observation, ind models.Indicator) []models.NullFloat {
	out := make([]models.NullFloat, len(obs))
	for i, o := range obs {
		out[i] = o.Get(ind)
	}
	return out
}

// Point is one (score, delta) feature pair of an entity's timeline.
// Index refers back to the position in the source rows.
type Point struct {
	Index int
	Score float64
	Delta float64
}

// Points builds the feature pairs of a score column, skipping missing scores.
func Points(scores []models.NullFloat) []Point {
	deltas := Deltas(scores)
	out := make([]Point, 0, len(scores))
	for i, s := range scores {
		if !s.Valid {
			continue
		}
		out = append(out, Point{Index: i, Score: s.Float64, Delta: deltas[i]})
	}
	return out
}
