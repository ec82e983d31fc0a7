package cluster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinScore/internal/domain/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDetectExample(t *testing.T) {
	dates := []time.Time{day(2020, 1, 1), day(2020, 2, 1), day(2020, 3, 1), day(2020, 9, 1)}
	got := Detect(dates, DefaultParams())
	require.Len(t, got, 1)
	assert.Equal(t, day(2019, 12, 27), got[0].Start)
	assert.Equal(t, day(2020, 3, 6), got[0].End)
	assert.Equal(t, 3, got[0].Count())
	assert.False(t, !dates[3].Before(got[0].Start) && !dates[3].After(got[0].End))
}

func TestDetectEmptyAndShort(t *testing.T) {
	assert.Empty(t, Detect(nil, DefaultParams()))
	assert.Empty(t, Detect([]time.Time{day(2020, 1, 1), day(2020, 1, 2)}, DefaultParams()))
}

func TestDetectTakesFarthestAndDoesNotOverlap(t *testing.T) {
	var dates []time.Time
	for m := 1; m <= 12; m++ {
		dates = append(dates, day(2021, time.Month(m), 1))
	}
	got := Detect(dates, DefaultParams())
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].First)
	assert.Equal(t, 6, got[0].Last, "Jan 1 to Jul 1 is 181 days")
	assert.Equal(t, 7, got[1].First)
	assert.Equal(t, 11, got[1].Last)

	for k := 1; k < len(got); k++ {
		assert.Greater(t, got[k].First, got[k-1].Last)
	}
	for _, w := range got {
		for i := w.First; i <= w.Last; i++ {
			assert.False(t, dates[i].Before(w.Start))
			assert.False(t, dates[i].After(w.End))
		}
	}
}

func TestDetectSkipsSparseStart(t *testing.T) {
	dates := []time.Time{day(2018, 1, 1), day(2019, 1, 1), day(2019, 2, 1), day(2019, 3, 1)}
	got := Detect(dates, DefaultParams())
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].First)
}

func TestForRecordsFiltersNatureAndDimension(t *testing.T) {
	rec := func(d time.Time, dim models.Dimension, n models.Nature, anomalous bool) models.AnomalyRecord {
		return models.AnomalyRecord{Company: "ACME", Date: d, Dimension: dim, Nature: n, IsAnomaly: anomalous}
	}
	records := []models.AnomalyRecord{
		rec(day(2020, 3, 1), models.Liquidity, models.NatureBad, true),
		rec(day(2020, 1, 1), models.Liquidity, models.NatureBad, true),
		rec(day(2020, 2, 1), models.Liquidity, models.NatureGood, true),
		rec(day(2020, 2, 1), models.Solvency, models.NatureBad, true),
		rec(day(2020, 2, 15), models.Liquidity, models.NatureBad, true),
		rec(day(2020, 2, 20), models.Liquidity, models.NatureNone, false),
	}

	got := ForRecords(records, models.Liquidity, models.NatureBad, DefaultParams())
	require.Len(t, got, 1)
	assert.Equal(t, "ACME", got[0].Company)
	assert.Equal(t, 3, got[0].Count)
	assert.True(t, got[0].Contains(day(2020, 1, 1)))
	assert.True(t, got[0].Contains(day(2020, 3, 1)))

	assert.Empty(t, ForRecords(records, models.Liquidity, models.NatureGood, DefaultParams()))
	assert.Empty(t, ForRecords(nil, models.Liquidity, models.NatureBad, DefaultParams()))
	assert.Len(t, ForDimension(records, models.Liquidity, DefaultParams()), 1)
}
