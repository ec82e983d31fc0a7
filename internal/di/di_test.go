package di

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalrepo "FinScore/internal/repository"
	"FinScore/pkg/config"
	"FinScore/pkg/metrics"
)

// writePanel writes 12 companies over 8 quarters of indicator rows.
func writePanel(t *testing.T, dir string) string {
	t.Helper()
	var rows []map[string]any
	for c := 0; c < 12; c++ {
		for q := 0; q < 8; q++ {
			wobble := float64((c*7+q*3)%5) / 100
			rows = append(rows, map[string]any{
				"company":        fmt.Sprintf("C%02d", c),
				"quarter":        fmt.Sprintf("%dQ%d", 2018+q/4, q%4+1),
				"roa":            0.01 + 0.002*float64(c) + wobble/10,
				"roe":            0.08 + 0.01*float64(c%4) + wobble,
				"net_margin":     0.15 + wobble,
				"current_ratio":  1.0 + 0.05*float64(c) - wobble,
				"cash_ratio":     0.3 + wobble,
				"debt_to_equity": 1.5 + 0.1*float64(c%6) + wobble,
				"revenue_growth": -0.15 + 0.03*float64((c+q)%10),
			})
		}
	}
	b, err := json.Marshal(rows)
	require.NoError(t, err)
	path := filepath.Join(dir, "indicators.json")
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func memoryConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Log.Level = "error"
	cfg.Log.Output = "stderr"
	cfg.Metrics.Enabled = false
	cfg.Source.Type = "memory"
	cfg.Source.Path = writePanel(t, dir)
	cfg.Anomaly.Epochs = 3
	cfg.Output.Dir = filepath.Join(dir, "out")
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestInitializeAppMemoryRun(t *testing.T) {
	cfg := memoryConfig(t)

	app, err := InitializeApp(cfg)
	require.NoError(t, err)
	defer app.Close()

	run, err := app.RunOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.False(t, run.Cached)
	assert.Equal(t, 96, run.Table.Len())
	assert.Len(t, run.Anomalies, 12)

	files, err := filepath.Glob(filepath.Join(cfg.Output.Dir, run.ID, "*.csv"))
	require.NoError(t, err)
	assert.NotEmpty(t, files)

	again, err := app.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, run.Fingerprint, again.Fingerprint)
	assert.NotEqual(t, run.ID, again.ID)
}

func TestInitializeAppRejectsMissingSource(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Source.Path = filepath.Join(t.TempDir(), "missing.json")
	_, err := InitializeApp(cfg)
	assert.Error(t, err)
}

func TestOptionalProviders(t *testing.T) {
	cfg := config.Default()
	cfg.Source.Type = "memory"
	cfg.Metrics.Enabled = false
	cfg.Cache.Enabled = false

	ch, err := ProvideClickHouseClient(cfg)
	require.NoError(t, err)
	assert.Nil(t, ch)

	store, err := ProvideResultStore(cfg, ch, nil)
	require.NoError(t, err)
	assert.Nil(t, store)

	pub, err := ProvidePublisher(cfg)
	require.NoError(t, err)
	assert.IsType(t, internalrepo.NoopPublisher{}, pub)

	assert.Nil(t, ProvideExporter(cfg))
	assert.Nil(t, ProvideCache(cfg, nil))
	assert.IsType(t, metrics.Noop{}, ProvideMetrics(cfg))
}

func TestParamMapping(t *testing.T) {
	cfg := config.Default()
	cfg.Anomaly.NatureConvention = "delta_up_good"
	p := AnomalyParams(cfg)
	require.NoError(t, p.Validate())
	assert.EqualValues(t, "delta_up_good", p.Convention)
	assert.Equal(t, int64(42), p.Seed)

	assert.Equal(t, cfg.Scoring.MinSamples, ThresholdConfig(cfg).MinSamples)
	assert.Equal(t, cfg.Cluster.MaxSpan, ClusterParams(cfg).MaxSpan)
}
