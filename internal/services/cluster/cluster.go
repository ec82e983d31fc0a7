package cluster

import (
	"sort"
	"time"

	"FinScore/internal/domain/models"
)

// Params control the greedy window search.
type Params struct {
	MinCount int
	MaxSpan  time.Duration
	Padding  time.Duration
}

// DefaultParams groups at least 3 anomalies within about two quarters and
// pads each window by 5 days on both sides.
func DefaultParams() Params {
	return Params{MinCount: 3, MaxSpan: 185 * 24 * time.Hour, Padding: 5 * 24 * time.Hour}
}

// Window is one detected group: the padded bounds and the source index range.
type Window struct {
	Start time.Time
	End   time.Time
	First int
	Last  int
}

// Count is the number of source dates inside the window.
func (w Window) Count() int { return w.Last - w.First + 1 }

// Detect scans sorted dates left to right. From each start it takes the
// farthest date still within MaxSpan, provided the window holds at least
// MinCount dates, then resumes after it. Windows never share dates.
func Detect(dates []time.Time, p Params) []Window {
	minCount := p.MinCount
	if minCount < 1 {
		minCount = 1
	}
	var out []Window
	for i := 0; i+minCount-1 < len(dates); {
		j := farthest(dates, i, minCount, p.MaxSpan)
		if j < 0 {
			i++
			continue
		}
		out = append(out, Window{
			Start: dates[i].Add(-p.Padding),
			End:   dates[j].Add(p.Padding),
			First: i,
			Last:  j,
		})
		i = j + 1
	}
	return out
}

func farthest(dates []time.Time, i, minCount int, maxSpan time.Duration) int {
	for j := len(dates) - 1; j >= i+minCount-1; j-- {
		if dates[j].Sub(dates[i]) <= maxSpan {
			return j
		}
	}
	return -1
}

// ForRecords clusters the anomalous records of one dimension and nature.
// Records may arrive in any order.
func ForRecords(records []models.AnomalyRecord, dim models.Dimension, nature models.Nature, p Params) []models.Cluster {
	var dates []time.Time
	company := ""
	for _, r := range records {
		if r.IsAnomaly && r.Dimension == dim && r.Nature == nature {
			dates = append(dates, r.Date)
			company = r.Company
		}
	}
	if len(dates) == 0 {
		return nil
	}
	sort.Slice(dates, func(a, b int) bool { return dates[a].Before(dates[b]) })

	windows := Detect(dates, p)
	out := make([]models.Cluster, 0, len(windows))
	for _, w := range windows {
		out = append(out, models.Cluster{
			Company:   company,
			Dimension: dim,
			Nature:    nature,
			Start:     w.Start,
			End:       w.End,
			Count:     w.Count(),
		})
	}
	return out
}

// ForDimension clusters good and bad anomalies of one dimension, bad first.
func ForDimension(records []models.AnomalyRecord, dim models.Dimension, p Params) []models.Cluster {
	out := ForRecords(records, dim, models.NatureBad, p)
	return append(out, ForRecords(records, dim, models.NatureGood, p)...)
}
