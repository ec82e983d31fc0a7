package models

import "time"

// ScoreSeries is one company's local score history for one dimension, in
// date order.
type ScoreSeries struct {
	Company   string
	Dimension Dimension
	Dates     []time.Time
	Quarters  []string
	Scores    []NullFloat
}

// SeriesFromRows extracts the local score column of the dimension. Rows
// must belong to one company and be sorted by date.
func SeriesFromRows(rows []ScoreRow, d Dimension) ScoreSeries {
	s := ScoreSeries{
		Dimension: d,
		Dates:     make([]time.Time, len(rows)),
		Quarters:  make([]string, len(rows)),
		Scores:    make([]NullFloat, len(rows)),
	}
	for i, r := range rows {
		if i == 0 {
			s.Company = r.Company
		}
		s.Dates[i], s.Quarters[i], s.Scores[i] = r.Date, r.Quarter, r.Local[d]
	}
	return s
}
