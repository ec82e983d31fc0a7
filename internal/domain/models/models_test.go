package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullFloatJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A NullFloat `json:"a"`
		B NullFloat `json:"b"`
	}{A: Some(0.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":0.5,"b":null}`, string(b))

	var v struct {
		A NullFloat `json:"a"`
		B NullFloat `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":null,"b":2}`), &v))
	assert.False(t, v.A.Valid)
	assert.Equal(t, Some(2), v.B)
}

func TestSomeRejectsNaN(t *testing.T) {
	assert.False(t, Some(math.NaN()).Valid)
	assert.False(t, Some(math.Inf(1)).Valid)
}

func TestNullFloatScan(t *testing.T) {
	var n NullFloat
	require.NoError(t, n.Scan(nil))
	assert.False(t, n.Valid)
	require.NoError(t, n.Scan("0.25"))
	assert.Equal(t, Some(0.25), n)
	require.NoError(t, n.Scan(float32(1)))
	assert.Equal(t, Some(1), n)
	assert.Error(t, n.Scan(true))
}

func TestMeanPropagatesMissing(t *testing.T) {
	assert.Equal(t, Some(0.5), Mean(Some(0.25), Some(0.75)))
	assert.False(t, Mean(Some(0.25), Missing()).Valid)
	assert.False(t, Complement(Missing()).Valid)
	assert.InDelta(t, 0.3, Complement(Some(0.7)).Float64, 1e-12)
}

func TestDimensionCompose(t *testing.T) {
	var r Ranks
	r[IndicatorROA] = Some(0.2)
	r[IndicatorROE] = Some(0.4)
	r[IndicatorNetMargin] = Some(0.6)
	r[IndicatorCurrentRatio] = Some(1)
	r[IndicatorDebtToEquity] = Some(0.25)

	assert.InDelta(t, 0.4, Profitability.Compose(r).Float64, 1e-12)
	assert.False(t, Liquidity.Compose(r).Valid, "cash ratio missing")
	assert.InDelta(t, 0.75, Solvency.Compose(r).Float64, 1e-12)
	assert.InDelta(t, 0.575, LeverageAdjusted.Compose(r).Float64, 1e-12)
}

func TestDimensionNames(t *testing.T) {
	for _, d := range Dimensions() {
		got, err := ParseDimension(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	assert.Equal(t, "leverage", LeverageAdjusted.EventTag())
	assert.Equal(t, "Adj. Leverage", LeverageAdjusted.Title())
	assert.Equal(t, "score_leverage_adjusted_global", LeverageAdjusted.ScoreColumn(CohortGlobal))
	_, err := ParseDimension("growth")
	assert.Error(t, err)
}

func TestBandSetValidate(t *testing.T) {
	s := BandSet{Cohort: CohortLocal, RevenueDrop: -0.1, RevenueBoost: 0.1}
	for _, d := range Dimensions() {
		s.Bands[d] = Band{Low: 0.1, High: 0.9}
	}
	require.NoError(t, s.Validate())
	s.Bands[Solvency] = Band{Low: 0.8, High: 0.2}
	assert.Error(t, s.Validate())
}

func TestEventTargets(t *testing.T) {
	e := Event{Targets: SplitTargets("Profitability / leverage")}
	assert.Equal(t, []string{"profitability", "leverage"}, e.Targets)
	assert.True(t, e.TargetsDimension(LeverageAdjusted))
	assert.False(t, e.TargetsDimension(Liquidity))
}

func TestBuildAnomalyTableMergesOnDate(t *testing.T) {
	d1 := time.Date(2020, 3, 31, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC)
	c := CompanyAnomalies{
		Company: "ACME",
		Dimensions: map[Dimension]DimensionResult{
			Profitability: {Records: []AnomalyRecord{
				{Company: "ACME", Date: d2, Dimension: Profitability, Score: 0.5, Nature: NatureNone, Direction: DirectionNone},
				{Company: "ACME", Date: d1, Dimension: Profitability, Score: 0.4, Nature: NatureNone, Direction: DirectionNone},
			}},
			Solvency: {Records: []AnomalyRecord{
				{Company: "ACME", Date: d2, Dimension: Solvency, ReconstructionError: 2, Threshold: 1, IsAnomaly: true, Nature: NatureBad, Direction: DirectionPositive},
			}},
		},
	}

	tbl := BuildAnomalyTable(c)
	require.Len(t, tbl.Rows, 2)
	assert.Len(t, tbl.Columns, 2+7*NumDimensions)
	assert.Equal(t, d1, tbl.Rows[0].Date)

	cells := tbl.Rows[1].Strings()
	require.Len(t, cells, len(tbl.Columns))
	assert.Equal(t, "2020-06-30", cells[0])
	idx := indexOf(tbl.Columns, "is_anomaly_solvency")
	assert.Equal(t, "true", cells[idx])
	assert.Equal(t, "bad", cells[indexOf(tbl.Columns, "anomaly_nature_solvency")])
	assert.Equal(t, "", tbl.Rows[0].Strings()[idx])
}

func indexOf(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}

func TestScoresAndBandsJSONRoundTrip(t *testing.T) {
	s := DimensionScores{Some(0.1), Missing(), Some(0.3), Some(0.4)}
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"profitability":0.1,"liquidity":null,"solvency":0.3,"leverage_adjusted":0.4}`, string(b))
	var back DimensionScores
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, s, back)

	set := BandSet{Cohort: CohortGlobal, RevenueDrop: -0.1, RevenueBoost: 0.1}
	set.Bands[Liquidity] = Band{Low: 0.2, High: 0.8}
	b, err = json.Marshal(set)
	require.NoError(t, err)
	var setBack BandSet
	require.NoError(t, json.Unmarshal(b, &setBack))
	assert.Equal(t, set, setBack)

	assert.Error(t, json.Unmarshal([]byte(`{"growth":0.1}`), &back))
}

func TestRecommendation(t *testing.T) {
	quiet := Assessment{Cohort: CohortLocal}
	assert.Equal(t, NoConcern, Recommendation(quiet, Assessment{Cohort: CohortGlobal}))

	local := Assessment{Alerts: []AlertTag{"↑ Profitability", "Rev ↑"}}
	global := Assessment{Alerts: []AlertTag{"↓ Solvency"}}
	assert.Equal(t, "Local: ↑ Profitability, Rev ↑. Global: ↓ Solvency.", Recommendation(local, global))
	assert.Equal(t, "Local: . Global: ↓ Solvency.", Recommendation(Assessment{}, global))
}
