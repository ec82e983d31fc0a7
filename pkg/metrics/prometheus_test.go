package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)

	r.RecordAnomalies("solvency", "bad", 3)
	r.RecordAnomalies("solvency", "bad", 0)
	r.RecordStatus("local", "Stable")
	r.RecordStatus("local", "Stable")
	r.RecordCacheLookup(true)
	r.RecordPipelineFailure("liquidity", "no_healthy_data")
	r.RecordStage("scoring", 0.01)
	r.RecordRun("ok")

	assert.Equal(t, 3.0, testutil.ToFloat64(r.anomalies.WithLabelValues("solvency", "bad")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.statuses.WithLabelValues("local", "Stable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.pipelineFailures.WithLabelValues("liquidity", "no_healthy_data")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 6)
}

func TestNewWithRegistryTwice(t *testing.T) {
	assert.NotPanics(t, func() {
		NewWithRegistry(prometheus.NewRegistry())
		NewWithRegistry(prometheus.NewRegistry())
	})
}
