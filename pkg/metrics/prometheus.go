package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	stageLatency     *prometheus.HistogramVec
	pipelineFailures *prometheus.CounterVec
	anomalies        *prometheus.CounterVec
	statuses         *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	runs             *prometheus.CounterVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not panic.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		stageLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finscore_stage_duration_seconds",
				Help:    "Duration of engine stages in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"stage"},
		),
		pipelineFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscore_pipeline_failures_total",
				Help: "Anomaly pipelines that failed, by dimension and reason",
			},
			[]string{"dimension", "reason"},
		),
		anomalies: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscore_anomalies_total",
				Help: "Flagged anomalies by dimension and nature",
			},
			[]string{"dimension", "nature"},
		),
		statuses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscore_status_labels_total",
				Help: "Assigned status labels by cohort",
			},
			[]string{"cohort", "status"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscore_cache_lookups_total",
				Help: "Fingerprint cache lookups",
			},
			[]string{"hit"},
		),
		runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finscore_runs_total",
				Help: "Engine runs by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordStage records a stage latency in seconds.
func (r *Recorder) RecordStage(stage string, seconds float64) {
	r.stageLatency.WithLabelValues(stage).Observe(seconds)
}

// RecordPipelineFailure counts one failed (company, dimension) pipeline.
func (r *Recorder) RecordPipelineFailure(dimension, reason string) {
	r.pipelineFailures.WithLabelValues(dimension, reason).Inc()
}

// RecordAnomalies adds n flagged anomalies.
func (r *Recorder) RecordAnomalies(dimension, nature string, n int) {
	if n <= 0 {
		return
	}
	r.anomalies.WithLabelValues(dimension, nature).Add(float64(n))
}

// RecordStatus counts one assigned label.
func (r *Recorder) RecordStatus(cohort, status string) {
	r.statuses.WithLabelValues(cohort, status).Inc()
}

// RecordCacheLookup counts a fingerprint cache hit or miss.
func (r *Recorder) RecordCacheLookup(hit bool) {
	r.cacheLookups.WithLabelValues(strconv.FormatBool(hit)).Inc()
}

// RecordRun counts a finished run.
func (r *Recorder) RecordRun(outcome string) {
	r.runs.WithLabelValues(outcome).Inc()
}

// Noop discards everything.
type Noop struct{}

func (Noop) RecordStage(string, float64)          {}
func (Noop) RecordPipelineFailure(string, string) {}
func (Noop) RecordAnomalies(string, string, int)  {}
func (Noop) RecordStatus(string, string)          {}
func (Noop) RecordCacheLookup(bool)               {}
func (Noop) RecordRun(string)                     {}
