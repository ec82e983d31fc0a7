package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinScore/internal/domain/models"
	pkgkafka "FinScore/pkg/kafka"
)

type fakeRow struct {
	vals []any
}

// Scan copies vals into dest the way database/sql would for the types
// the stores use.
func (f fakeRow) Scan(dest ...any) error {
	if len(dest) != len(f.vals) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = f.vals[i].(string)
		case *time.Time:
			*p = f.vals[i].(time.Time)
		case *models.NullFloat:
			if err := p.Scan(f.vals[i]); err != nil {
				return err
			}
		default:
			return errors.New("unsupported dest")
		}
	}
	return nil
}

func TestScanObservation(t *testing.T) {
	date := time.Date(2020, 3, 31, 0, 0, 0, 0, time.UTC)
	row := fakeRow{vals: []any{" aapl ", "", date,
		0.05, 0.12, nil, 1.4, 0.3, 1.8, -0.02,
		0.021, nil, 0.0175,
	}}
	o, err := scanObservation(row)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", o.Company)
	assert.Equal(t, "2020Q1", o.Quarter)
	assert.Equal(t, models.Some(0.05), o.ROA)
	assert.False(t, o.NetMargin.Valid)
	assert.Equal(t, models.Some(-0.02), o.RevenueGrowth)
	assert.False(t, o.Macro.GDPGrowth.Valid)

	_, err = scanObservation(fakeRow{vals: []any{"x"}})
	assert.Error(t, err)
}

func TestScanScoreRow(t *testing.T) {
	date := time.Date(2021, 6, 30, 0, 0, 0, 0, time.UTC)
	vals := []any{"MSFT", "2021Q2", date, 0.04, nil, nil, nil}
	for i := 0; i < 2*models.NumDimensions; i++ {
		vals = append(vals, float64(i)/10)
	}
	r, err := scanScoreRow(fakeRow{vals: vals})
	require.NoError(t, err)
	assert.Equal(t, models.Some(0.0), r.Local[models.Profitability])
	assert.Equal(t, models.Some(0.3), r.Local[models.LeverageAdjusted])
	assert.Equal(t, models.Some(0.4), r.Global[models.Profitability])
	assert.Len(t, scoreColumns(), 2*models.NumDimensions)
	assert.Equal(t, "score_profitability_local", scoreColumns()[0])
}

func TestParseObservations(t *testing.T) {
	obs, err := ParseObservations([]byte(`[
        {"company": "aaa", "date": "2020-03-31", "roa": 0.1, "debt_to_equity": null},
        {"company": "AAA", "quarter": "2020Q2", "roa": 0.2, "inflation_yoy": 0.03}
    ]`))
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, "AAA", obs[0].Company)
	assert.Equal(t, "2020Q1", obs[0].Quarter)
	assert.False(t, obs[0].DebtToEquity.Valid)
	assert.Equal(t, time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC), obs[1].Date)
	assert.Equal(t, models.Some(0.03), obs[1].Macro.Inflation)

	_, err = ParseObservations([]byte(`[{"company": "A"}]`))
	assert.Error(t, err)
	_, err = ParseObservations([]byte(`[{"date": "2020-03-31"}]`))
	assert.Error(t, err)
	_, err = ParseObservations([]byte(`[{"company": "A", "date": "soon"}]`))
	assert.Error(t, err)
}

func TestMemorySource(t *testing.T) {
	src := NewMemorySource([]models.Observation{{Company: "A"}})
	obs, err := src.LoadObservations(context.Background())
	require.NoError(t, err)
	assert.Len(t, obs, 1)

	_, err = src.LoadScores(context.Background())
	assert.Error(t, err)

	src.Replace(nil)
	obs, err = src.LoadObservations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, obs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.LoadObservations(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	path := filepath.Join(t.TempDir(), "obs.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"company":"B","quarter":"2019Q4"}]`), 0o600))
	loaded, err := LoadMemorySource(path)
	require.NoError(t, err)
	obs, _ = loaded.LoadObservations(context.Background())
	assert.Equal(t, "B", obs[0].Company)
}

func sampleRun() *models.Run {
	d1 := time.Date(2020, 3, 31, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC)
	rec := func(d time.Time, dim models.Dimension, anomalous bool) models.AnomalyRecord {
		r := models.AnomalyRecord{
			Company: "ACME", Date: d, Dimension: dim,
			Score: 0.5, ReconstructionError: 0.1, Threshold: 0.2,
			Nature: models.NatureNone, Direction: models.DirectionNone,
		}
		if anomalous {
			r.IsAnomaly, r.ReconstructionError = true, 0.9
			r.Nature, r.Direction = models.NatureBad, models.DirectionPositive
		}
		return r
	}
	return &models.Run{
		ID: "run-1",
		Scoring: models.ScoringResult{
			Assessments: map[models.Cohort][]models.Assessment{
				models.CohortLocal: {{
					Company: "ACME", Quarter: "2020Q1", Date: d1, Cohort: models.CohortLocal,
					Scores: models.DimensionScores{models.Some(0.8), models.Some(0.7), models.Some(0.6), models.Some(0.5)},
					Status: models.StatusStrong, Alerts: []models.AlertTag{"Profitability ↑", "Rev ↑"},
				}},
			},
		},
		Anomalies: []models.CompanyAnomalies{{
			Company: "ACME/X",
			Dimensions: map[models.Dimension]models.DimensionResult{
				models.Profitability: {
					Dimension: models.Profitability,
					Records:   []models.AnomalyRecord{rec(d1, models.Profitability, false), rec(d2, models.Profitability, true)},
					Clusters:  []models.Cluster{{Company: "ACME", Dimension: models.Profitability, Nature: models.NatureBad, Start: d1, End: d2, Count: 3}},
				},
				models.Solvency: {
					Dimension: models.Solvency,
					Records:   []models.AnomalyRecord{rec(d2, models.Solvency, false)},
				},
			},
		}},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVExporter(t *testing.T) {
	dir := t.TempDir()
	paths, err := NewCSVExporter(dir).Export(context.Background(), sampleRun())
	require.NoError(t, err)
	require.Len(t, paths, 5)

	local := readCSV(t, filepath.Join(dir, "run-1", "assessments_local.csv"))
	require.Len(t, local, 2)
	assert.Equal(t, []string{"company", "quarter", "date", "profitability", "liquidity", "solvency", "leverage_adjusted", "revenue_growth", "status", "alerts"}, local[0])
	assert.Equal(t, "Strong", local[1][8])
	assert.Equal(t, "Profitability ↑, Rev ↑", local[1][9])

	global := readCSV(t, filepath.Join(dir, "run-1", "assessments_global.csv"))
	assert.Len(t, global, 1)

	recs := readCSV(t, filepath.Join(dir, "run-1", "recommendations.csv"))
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"ACME", "2020Q1", "2020-03-31", "Strong", "", "Local: Profitability ↑, Rev ↑. Global: ."}, recs[1])

	wide := readCSV(t, filepath.Join(dir, "run-1", "anomalies_ACME_X.csv"))
	require.Len(t, wide, 3)
	assert.Equal(t, models.AnomalyColumns(), wide[0])
	assert.Equal(t, "2020-03-31", wide[1][0])

	clusters := readCSV(t, filepath.Join(dir, "run-1", "clusters.csv"))
	require.Len(t, clusters, 2)
	assert.Equal(t, []string{"ACME", "profitability", "bad", "2020-03-31", "2020-06-30", "3"}, clusters[1])
}

func TestRecommendationRecordsPairCohorts(t *testing.T) {
	d := time.Date(2021, 3, 31, 0, 0, 0, 0, time.UTC)
	a := func(company, quarter string, c models.Cohort, s models.Status, alerts ...models.AlertTag) models.Assessment {
		return models.Assessment{Company: company, Quarter: quarter, Date: d, Cohort: c, Status: s, Alerts: alerts}
	}
	rows := recommendationRecords(map[models.Cohort][]models.Assessment{
		models.CohortLocal: {
			a("ACME", "2021Q1", models.CohortLocal, models.StatusStable),
			a("BETA", "2021Q1", models.CohortLocal, models.StatusDanger, "↓ Liquidity"),
		},
		models.CohortGlobal: {
			a("ACME", "2021Q1", models.CohortGlobal, models.StatusStable),
			a("BETA", "2021Q1", models.CohortGlobal, models.StatusWatch, "Rev ↓"),
			a("GAMMA", "2021Q1", models.CohortGlobal, models.StatusStrong, "↑ Solvency"),
		},
	})
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ACME", "2021Q1", "2021-03-31", "Stable", "Stable", models.NoConcern}, rows[0])
	assert.Equal(t, "Local: ↓ Liquidity. Global: Rev ↓.", rows[1][5])
	assert.Equal(t, []string{"GAMMA", "2021Q1", "2021-03-31", "", "Strong", "Local: . Global: ↑ Solvency."}, rows[2])
}

type capturePublisher struct {
	topics []string
	sent   [][]pkgkafka.Message
}

func (c *capturePublisher) PublishBatch(_ context.Context, topic string, msgs []pkgkafka.Message) error {
	c.topics = append(c.topics, topic)
	c.sent = append(c.sent, msgs)
	return nil
}

func (c *capturePublisher) Close() error { return nil }

func TestKafkaResultPublisher(t *testing.T) {
	cp := &capturePublisher{}
	p := &KafkaResultPublisher{producer: cp, assessmentsTopic: "finscore.assessments", anomaliesTopic: "finscore.anomalies"}
	run := sampleRun()

	require.NoError(t, p.PublishAssessments(context.Background(), run.ID, run.Scoring.Assessments[models.CohortLocal]))
	require.NoError(t, p.PublishAnomalies(context.Background(), run.ID, run.AllRecords()))

	assert.Equal(t, []string{"finscore.assessments", "finscore.anomalies"}, cp.topics)
	require.Len(t, cp.sent[0], 1)
	assert.Equal(t, []byte("ACME"), cp.sent[0][0].Key)
	assert.Equal(t, "local", cp.sent[0][0].Headers["cohort"])

	require.Len(t, cp.sent[1], 1, "only flagged rows are published")
	msg := cp.sent[1][0].Value.(anomalyMessage)
	assert.Equal(t, "run-1", msg.RunID)
	assert.True(t, msg.IsAnomaly)
	assert.Equal(t, "profitability", cp.sent[1][0].Headers["dimension"])
}

func TestResultRows(t *testing.T) {
	run := sampleRun()
	a := flattenAssessments(run)
	require.Len(t, a, 1)
	vals := assessmentValues(run.ID, a[0])
	assert.Len(t, vals, len(assessmentColumns()))
	assert.Equal(t, "Profitability ↑, Rev ↑", vals[6])

	rec := run.AllRecords()[1]
	rec.Events = []models.Event{{Date: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC), Description: "guidance cut"}}
	av := anomalyValues(run.ID, rec)
	assert.Len(t, av, len(anomalyColumns))
	assert.Equal(t, uint8(1), av[9])
	assert.Equal(t, []string{"2020-06-01 guidance cut"}, av[12])

	assert.Len(t, ResultSchema("finscore"), 5)
	assert.Len(t, IndicatorSchema("finscore", "indicators"), 2)
}
