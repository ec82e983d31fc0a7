package features

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"FinScore/internal/domain/models"
)

// Quantile returns the p-quantile of x by linear interpolation between the
// closest order statistics, q = x[h] + (h - floor(h)) * (x[h+1] - x[h]) with
// h = (n-1)p. This is the numpy/pandas default; gonum's stat.Quantile only
// offers the empirical and LinInterp (type 4) kinds. Returns NaN for empty x.
func Quantile(x []float64, p float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	return QuantileSorted(sorted, p)
}

// QuantileSorted is Quantile over already sorted input.
func QuantileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	switch {
	case p <= 0:
		return sorted[0]
	case p >= 1:
		return sorted[n-1]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo+1 >= n {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// PercentileRanks ranks every present value among the present values,
// ties sharing their average rank, and divides by the count. Results lie
// in (0, 1]; missing values stay missing.
func PercentileRanks(values []models.NullFloat) []models.NullFloat {
	out := make([]models.NullFloat, len(values))
	idx := make([]int, 0, len(values))
	for i, v := range values {
		if v.Valid {
			idx = append(idx, i)
		}
	}
	n := len(idx)
	if n == 0 {
		return out
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]].Float64 < values[idx[b]].Float64 })

	for start := 0; start < n; {
		end := start + 1
		for end < n && values[idx[end]].Float64 == values[idx[start]].Float64 {
			end++
		}
		// ranks start+1 .. end share their mean
		avg := float64(start+1+end) / 2
		for k := start; k < end; k++ {
			out[idx[k]] = models.Some(avg / float64(n))
		}
		start = end
	}
	return out
}

// Standardizer rescales columns to zero mean and unit variance using
// statistics fit on a reference set.
type Standardizer struct {
	Mean []float64
	Std  []float64
}

// FitStandardizer computes per-column population mean and standard
// deviation. A zero deviation is replaced by 1 so constant columns map to 0.
func FitStandardizer(rows [][]float64) Standardizer {
	if len(rows) == 0 {
		return Standardizer{}
	}
	cols := len(rows[0])
	s := Standardizer{Mean: make([]float64, cols), Std: make([]float64, cols)}
	col := make([]float64, len(rows))
	for j := 0; j < cols; j++ {
		for i, r := range rows {
			col[i] = r[j]
		}
		m, sd := stat.PopMeanStdDev(col, nil)
		if sd == 0 || math.IsNaN(sd) {
			sd = 1
		}
		s.Mean[j], s.Std[j] = m, sd
	}
	return s
}

// Transform returns standardized copies of the rows.
func (s Standardizer) Transform(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		z := make([]float64, len(r))
		copy(z, r)
		floats.Sub(z, s.Mean)
		floats.Div(z, s.Std)
		out[i] = z
	}
	return out
}
