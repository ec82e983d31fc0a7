package scoring

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinScore/internal/domain/models"
)

func fixedBands(c models.Cohort) models.BandSet {
	s := models.BandSet{Cohort: c, RevenueDrop: -0.10, RevenueBoost: 0.10}
	for _, d := range models.Dimensions() {
		s.Bands[d] = models.Band{Low: 0.1, High: 0.9}
	}
	return s
}

func scores(p, l, s, lev float64) models.DimensionScores {
	return models.DimensionScores{models.Some(p), models.Some(l), models.Some(s), models.Some(lev)}
}

func TestClassifyCascade(t *testing.T) {
	missing := models.Missing()
	cases := []struct {
		name    string
		cohort  models.Cohort
		scores  models.DimensionScores
		revenue models.NullFloat
		want    models.Status
	}{
		{"leveraged risk beats greens", models.CohortLocal, scores(0.95, 0.95, 0.95, 0.05), models.Some(0), models.StatusLeveragedRisk},
		{"excellent health", models.CohortLocal, scores(0.5, 0.5, 0.5, 0.95), models.Some(0.2), models.StatusExcellentHealth},
		{"no excellent health without revenue", models.CohortLocal, scores(0.5, 0.5, 0.5, 0.95), missing, models.StatusGoodSignal},
		{"stable", models.CohortLocal, scores(0.5, 0.4, 0.6, 0.5), models.Some(0.02), models.StatusStable},
		{"critical overrides green", models.CohortLocal, scores(0.05, 0.05, 0.05, 0.95), models.Some(0), models.StatusCriticalRisk},
		{"danger", models.CohortLocal, scores(0.05, 0.05, 0.5, 0.5), models.Some(0), models.StatusDanger},
		{"strong", models.CohortLocal, scores(0.95, 0.95, 0.5, 0.5), models.Some(0), models.StatusStrong},
		{"good signal", models.CohortLocal, scores(0.95, 0.5, 0.5, 0.5), models.Some(0), models.StatusGoodSignal},
		{"mixed risk precedes caution", models.CohortLocal, scores(0.05, 0.95, 0.5, 0.5), models.Some(0), models.StatusMixedRisk},
		{"caution", models.CohortLocal, scores(0.05, 0.5, 0.5, 0.5), models.Some(0), models.StatusCaution},
		{"watch fallback", models.CohortLocal, scores(0.05, 0.95, 0.95, 0.5), models.Some(0), models.StatusWatch},
		{"global ignores leverage override", models.CohortGlobal, scores(0.95, 0.95, 0.95, 0.05), models.Some(0), models.StatusWatch},
		{"global ignores revenue", models.CohortGlobal, scores(0.5, 0.5, 0.5, 0.95), models.Some(0.5), models.StatusGoodSignal},
		{"missing leverage skips override", models.CohortLocal, models.DimensionScores{models.Some(0.5), models.Some(0.5), models.Some(0.5), missing}, models.Some(0.5), models.StatusStable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.scores, tc.revenue, fixedBands(tc.cohort))
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got, Classify(tc.scores, tc.revenue, fixedBands(tc.cohort)), "pure")
		})
	}
}

func TestInsufficientDataDominates(t *testing.T) {
	m := models.Missing()
	inputs := []models.DimensionScores{
		{m, m, m, m},
		{models.Some(0.01), m, m, m},
		{models.Some(0.01), models.Some(0.01), m, m},
		{m, m, models.Some(0.99), models.Some(0.01)},
	}
	for _, c := range models.Cohorts() {
		for _, in := range inputs {
			assert.Equal(t, models.StatusInsufficientData, Classify(in, models.Some(1), fixedBands(c)))
		}
	}
}

func TestRulesOrder(t *testing.T) {
	local := Rules(models.CohortLocal)
	require.Len(t, local, 11)
	assert.Equal(t, models.StatusInsufficientData, local[0])
	assert.Equal(t, models.StatusLeveragedRisk, local[1])
	assert.Equal(t, models.StatusWatch, local[10])
	assert.Less(t, indexOf(local, models.StatusMixedRisk), indexOf(local, models.StatusCaution))

	global := Rules(models.CohortGlobal)
	assert.Len(t, global, 9)
	assert.Equal(t, -1, indexOf(global, models.StatusLeveragedRisk))
	assert.Equal(t, -1, indexOf(global, models.StatusExcellentHealth))
}

func indexOf(list []models.Status, s models.Status) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func TestAlertsLocal(t *testing.T) {
	got := Alerts(scores(0.95, 0.05, 0.5, 0.95), models.Some(-0.2), fixedBands(models.CohortLocal))
	assert.Equal(t, []models.AlertTag{"↑ Profitability", "↓ Liquidity", "↑ Adj. Leverage", "Rev ↓"}, got)

	got = Alerts(scores(0.5, 0.5, 0.5, 0.5), models.Some(0.25), fixedBands(models.CohortLocal))
	assert.Equal(t, []models.AlertTag{"Rev ↑"}, got)
}

func TestAlertsGlobal(t *testing.T) {
	got := Alerts(scores(0.05, 0.5, 0.95, 0.5), models.Some(0.5), fixedBands(models.CohortGlobal))
	assert.Equal(t, []models.AlertTag{"Low Profitability", "High Solvency"}, got)
}

func TestAlertsSkipMissing(t *testing.T) {
	in := models.DimensionScores{models.Missing(), models.Some(0.05), models.Missing(), models.Missing()}
	got := Alerts(in, models.Missing(), fixedBands(models.CohortLocal))
	assert.Equal(t, []models.AlertTag{"↓ Liquidity"}, got)
}

func TestAssessSummary(t *testing.T) {
	row := models.ScoreRow{Company: "ACME", Quarter: "2020Q1", Local: scores(0.95, 0.95, 0.5, 0.5), RevenueGrowth: models.Some(0.3)}
	a := Assess(row, fixedBands(models.CohortLocal))
	assert.Equal(t, models.StatusStrong, a.Status)
	assert.Equal(t, "↑ Profitability, ↑ Liquidity, Rev ↑", a.AlertSummary())
}

// panel builds n quarters for each company with ratios that grow with the
// quarter index, shifted per company.
func panel(companies []string, n int) []models.Observation {
	var out []models.Observation
	start := time.Date(2016, 3, 31, 0, 0, 0, 0, time.UTC)
	for ci, c := range companies {
		for q := 0; q < n; q++ {
			base := float64(q%7)/10 + float64(ci)/100
			out = append(out, models.Observation{
				Company:       c,
				Quarter:       fmt.Sprintf("Q%d", q),
				Date:          start.AddDate(0, 3*q, 0),
				ROA:           models.Some(0.01 + base),
				ROE:           models.Some(0.02 + base*1.5),
				NetMargin:     models.Some(0.1 + base/2),
				CurrentRatio:  models.Some(1 + base),
				CashRatio:     models.Some(0.3 + float64(q%5)/10),
				DebtToEquity:  models.Some(2 - base),
				RevenueGrowth: models.Some(base - 0.3),
			})
		}
	}
	return out
}

func TestNormalizedScoresInUnitInterval(t *testing.T) {
	obs := panel([]string{"A", "B", "C"}, 12)
	obs[4].CashRatio = models.Missing()

	norm := Normalize(obs)
	for _, n := range norm {
		for _, c := range models.Cohorts() {
			for _, v := range n.Ranks(c) {
				if v.Valid {
					assert.GreaterOrEqual(t, v.Float64, 0.0)
					assert.LessOrEqual(t, v.Float64, 1.0)
				}
			}
		}
	}
	assert.False(t, norm[4].Local.Get(models.IndicatorCashRatio).Valid)

	table := BuildScoreTable(obs)
	require.Equal(t, len(obs), table.Len())
	assert.Equal(t, []string{"A", "B", "C"}, table.Companies())
	for _, r := range table.Rows {
		for _, c := range models.Cohorts() {
			for _, v := range r.Scores(c) {
				if v.Valid {
					assert.GreaterOrEqual(t, v.Float64, 0.0)
					assert.LessOrEqual(t, v.Float64, 1.0)
				}
			}
		}
	}
}

func TestLocalAndGlobalRanksDiffer(t *testing.T) {
	obs := panel([]string{"A", "B"}, 4)
	// B's values are uniformly higher than A's, so within each quarter B ranks first.
	norm := Normalize(obs)
	assert.InDelta(t, 1.0, norm[4].Global.Get(models.IndicatorROA).Float64, 1e-12)
	assert.InDelta(t, 0.5, norm[0].Global.Get(models.IndicatorROA).Float64, 1e-12)
	assert.InDelta(t, 0.25, norm[4].Local.Get(models.IndicatorROA).Float64, 1e-12)
}

func TestComputeBands(t *testing.T) {
	table := BuildScoreTable(panel([]string{"A", "B", "C"}, 12))
	for _, c := range models.Cohorts() {
		set, err := ComputeBands(table, c, DefaultThresholdConfig())
		require.NoError(t, err)
		assert.Equal(t, c, set.Cohort)
		for _, d := range models.Dimensions() {
			vals := models.Present(table.Values(d, c))
			lo, hi := minMax(vals)
			b := set.Band(d)
			assert.LessOrEqual(t, b.Low, b.High)
			assert.GreaterOrEqual(t, b.Low, lo)
			assert.LessOrEqual(t, b.High, hi)
		}
	}
}

func TestComputeBandsInsufficientSample(t *testing.T) {
	table := BuildScoreTable(panel([]string{"A"}, 5))
	_, err := ComputeBands(table, models.CohortLocal, DefaultThresholdConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientSample))
}

func TestComputeBandsRejectsBadCutoffs(t *testing.T) {
	cfg := DefaultThresholdConfig()
	cfg.PLow, cfg.PHigh = 0.9, 0.1
	_, err := ComputeBands(models.ScoreTable{}, models.CohortLocal, cfg)
	assert.Error(t, err)
}

func minMax(xs []float64) (float64, float64) {
	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}
