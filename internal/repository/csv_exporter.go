package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"FinScore/internal/domain/models"
	domrepo "FinScore/internal/domain/repository"
)

var _ domrepo.Exporter = (*CSVExporter)(nil)

// CSVExporter writes a run as flat files under dir:
//
//	<dir>/<run>/assessments_<cohort>.csv
//	<dir>/<run>/recommendations.csv     (local and global alerts per quarter)
//	<dir>/<run>/anomalies_<company>.csv  (wide table merged on date)
//	<dir>/<run>/clusters.csv
type CSVExporter struct {
	dir string
}

func NewCSVExporter(dir string) *CSVExporter {
	return &CSVExporter{dir: dir}
}

func (e *CSVExporter) Export(ctx context.Context, run *models.Run) ([]string, error) {
	root := filepath.Join(e.dir, run.ID)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	var paths []string
	for _, c := range models.Cohorts() {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		p := filepath.Join(root, "assessments_"+string(c)+".csv")
		if err := writeCSV(p, assessmentHeader(), assessmentRecords(run.Scoring.Assessments[c])); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}

	p := filepath.Join(root, "recommendations.csv")
	header := []string{"company", "quarter", "date", "local_status", "global_status", "recommendation"}
	if err := writeCSV(p, header, recommendationRecords(run.Scoring.Assessments)); err != nil {
		return paths, err
	}
	paths = append(paths, p)

	var clusters [][]string
	for _, ca := range run.Anomalies {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		table := models.BuildAnomalyTable(ca)
		rows := make([][]string, len(table.Rows))
		for i, r := range table.Rows {
			rows[i] = r.Strings()
		}
		p := filepath.Join(root, "anomalies_"+safeName(ca.Company)+".csv")
		if err := writeCSV(p, table.Columns, rows); err != nil {
			return paths, err
		}
		paths = append(paths, p)

		for _, cl := range ca.Clusters() {
			clusters = append(clusters, []string{
				cl.Company, cl.Dimension.String(), string(cl.Nature),
				cl.Start.Format(time.DateOnly), cl.End.Format(time.DateOnly), fmt.Sprint(cl.Count),
			})
		}
	}

	p = filepath.Join(root, "clusters.csv")
	if err := writeCSV(p, []string{"company", "dimension", "nature", "start", "end", "count"}, clusters); err != nil {
		return paths, err
	}
	return append(paths, p), nil
}

func assessmentHeader() []string {
	h := []string{"company", "quarter", "date"}
	for _, d := range models.Dimensions() {
		h = append(h, d.String())
	}
	return append(h, "revenue_growth", "status", "alerts")
}

func assessmentRecords(items []models.Assessment) [][]string {
	out := make([][]string, len(items))
	for i, a := range items {
		row := []string{a.Company, a.Quarter, a.Date.Format(time.DateOnly)}
		for _, v := range a.Scores {
			row = append(row, v.String())
		}
		out[i] = append(row, a.RevenueGrowth.String(), string(a.Status), a.AlertSummary())
	}
	return out
}

// recommendationRecords pairs the cohorts on company and quarter, in local
// order followed by global-only quarters.
func recommendationRecords(byCohort map[models.Cohort][]models.Assessment) [][]string {
	type key struct{ company, quarter string }
	global := make(map[key]models.Assessment, len(byCohort[models.CohortGlobal]))
	for _, a := range byCohort[models.CohortGlobal] {
		global[key{a.Company, a.Quarter}] = a
	}

	row := func(l, g models.Assessment) []string {
		ref := l
		if ref.Company == "" {
			ref = g
		}
		return []string{ref.Company, ref.Quarter, ref.Date.Format(time.DateOnly),
			string(l.Status), string(g.Status), models.Recommendation(l, g)}
	}

	var out [][]string
	for _, l := range byCohort[models.CohortLocal] {
		k := key{l.Company, l.Quarter}
		g := global[k]
		delete(global, k)
		out = append(out, row(l, g))
	}
	for _, g := range byCohort[models.CohortGlobal] {
		if _, ok := global[key{g.Company, g.Quarter}]; ok {
			out = append(out, row(models.Assessment{}, g))
		}
	}
	return out
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return f.Close()
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, s)
}
