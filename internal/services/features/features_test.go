package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinScore/internal/domain/models"
)

func vals(xs ...float64) []models.NullFloat {
	out := make([]models.NullFloat, len(xs))
	for i, x := range xs {
		out[i] = models.Some(x)
	}
	return out
}

func TestQuantileMatchesLinearInterpolation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.InDelta(t, 1.9, Quantile(x, 0.1), 1e-12)
	assert.InDelta(t, 9.1, Quantile(x, 0.9), 1e-12)
	assert.InDelta(t, 5.5, Quantile(x, 0.5), 1e-12)
	assert.Equal(t, 1.0, Quantile(x, 0))
	assert.Equal(t, 10.0, Quantile(x, 1))
	assert.Equal(t, 3.0, Quantile([]float64{3}, 0.95))
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}

func TestQuantileDoesNotReorderInput(t *testing.T) {
	x := []float64{3, 1, 2}
	Quantile(x, 0.5)
	assert.Equal(t, []float64{3, 1, 2}, x)
}

func TestPercentileRanksAverageTies(t *testing.T) {
	in := vals(10, 20, 20, 40)
	in = append(in, models.Missing())
	got := PercentileRanks(in)

	assert.InDelta(t, 0.25, got[0].Float64, 1e-12)
	assert.InDelta(t, 0.625, got[1].Float64, 1e-12)
	assert.InDelta(t, 0.625, got[2].Float64, 1e-12)
	assert.InDelta(t, 1.0, got[3].Float64, 1e-12)
	assert.False(t, got[4].Valid)

	for _, v := range got[:4] {
		assert.Greater(t, v.Float64, 0.0)
		assert.LessOrEqual(t, v.Float64, 1.0)
	}
}

func TestPercentileRanksAllMissing(t *testing.T) {
	got := PercentileRanks([]models.NullFloat{models.Missing(), models.Missing()})
	require.Len(t, got, 2)
	assert.False(t, got[0].Valid)
}

func TestDeltas(t *testing.T) {
	in := vals(0.5, 0.7, 0.4)
	in = append(in, models.Missing(), models.Some(0.9))
	got := Deltas(in)
	assert.Equal(t, 0.0, got[0])
	assert.InDelta(t, 0.2, got[1], 1e-12)
	assert.InDelta(t, -0.3, got[2], 1e-12)
	assert.Equal(t, 0.0, got[3])
	assert.Equal(t, 0.0, got[4])

	pts := Points(in)
	require.Len(t, pts, 4)
	assert.Equal(t, 4, pts[3].Index)
}

func TestStandardizer(t *testing.T) {
	rows := [][]float64{{1, 5}, {3, 5}}
	s := FitStandardizer(rows)
	assert.Equal(t, []float64{2, 5}, s.Mean)
	assert.Equal(t, []float64{1, 1}, s.Std)

	z := s.Transform(rows)
	assert.Equal(t, []float64{-1, 0}, z[0])
	assert.Equal(t, []float64{1, 0}, z[1])
	assert.Equal(t, []float64{1, 5}, rows[0], "input untouched")
}
