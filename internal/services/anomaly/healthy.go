package anomaly

import (
	"math"
	"math/rand"

	"FinScore/internal/services/features"
)

// SelectHealthy keeps the points whose score and delta both lie inside
// their own [q(pLow), q(pHigh)] band, bounds included. Reapplying it keeps
// most of a coarse-grained input; continuous inputs shrink by the band
// width again.
func SelectHealthy(points []features.Point, pLow, pHigh float64) []features.Point {
	if len(points) == 0 {
		return nil
	}
	scores := make([]float64, len(points))
	deltas := make([]float64, len(points))
	for i, p := range points {
		scores[i], deltas[i] = p.Score, p.Delta
	}
	sLo, sHi := features.Quantile(scores, pLow), features.Quantile(scores, pHigh)
	dLo, dHi := features.Quantile(deltas, pLow), features.Quantile(deltas, pHigh)

	out := make([]features.Point, 0, len(points))
	for _, p := range points {
		if p.Score >= sLo && p.Score <= sHi && p.Delta >= dLo && p.Delta <= dHi {
			out = append(out, p)
		}
	}
	return out
}

// Split shuffles 0..n-1 and returns (train, validation) index sets with
// ceil(n*fraction) validation indexes, at least one when n > 1.
func Split(n int, fraction float64, rng *rand.Rand) (train, val []int) {
	if n == 0 {
		return nil, nil
	}
	perm := rng.Perm(n)
	nVal := int(math.Ceil(float64(n) * fraction))
	if nVal < 1 {
		nVal = 1
	}
	if nVal >= n {
		nVal = n - 1
	}
	return perm[nVal:], perm[:nVal]
}
