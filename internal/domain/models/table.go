package models

import (
	"sort"
	"strconv"
	"time"
)

// AnomalyTable is the wide per-company output: one row per (date, company)
// with seven columns per dimension, merged across dimensions.
type AnomalyTable struct {
	Columns []string
	Rows    []AnomalyTableRow
}

// AnomalyTableRow is one merged row. Cells of a dimension without a record
// for that date are empty.
type AnomalyTableRow struct {
	Date    time.Time
	Company string
	Cells   map[Dimension]AnomalyRecord
}

// AnomalyColumns returns the header in output order.
func AnomalyColumns() []string {
	cols := []string{"date", "company"}
	for _, d := range Dimensions() {
		k := d.String()
		cols = append(cols,
			d.ScoreColumn(CohortLocal),
			"delta_"+k,
			"reconstruction_error_"+k,
			"is_anomaly_"+k,
			"anomaly_nature_"+k,
			"anomaly_type_"+k,
			"threshold_"+k,
		)
	}
	return cols
}

// BuildAnomalyTable merges the per-dimension records of one company.
func BuildAnomalyTable(c CompanyAnomalies) AnomalyTable {
	byDate := make(map[time.Time]*AnomalyTableRow)
	for _, rec := range c.Records() {
		key := rec.Date.UTC()
		row, ok := byDate[key]
		if !ok {
			row = &AnomalyTableRow{Date: key, Company: rec.Company, Cells: make(map[Dimension]AnomalyRecord, NumDimensions)}
			byDate[key] = row
		}
		row.Cells[rec.Dimension] = rec
	}

	rows := make([]AnomalyTableRow, 0, len(byDate))
	for _, r := range byDate {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return AnomalyTable{Columns: AnomalyColumns(), Rows: rows}
}

// Strings renders the row in column order.
func (r AnomalyTableRow) Strings() []string {
	out := []string{r.Date.Format(time.DateOnly), r.Company}
	for _, d := range Dimensions() {
		rec, ok := r.Cells[d]
		if !ok {
			out = append(out, "", "", "", "", "", "", "")
			continue
		}
		out = append(out,
			formatFloat(rec.Score),
			formatFloat(rec.Delta),
			formatFloat(rec.ReconstructionError),
			strconv.FormatBool(rec.IsAnomaly),
			string(rec.Nature),
			string(rec.Direction),
			formatFloat(rec.Threshold),
		)
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
