// Package metrics provides the Prometheus metrics of the dataset loader.
package metrics

import (
	"fmt"
	"time"

	ingesterrors "github.com/dvloznov/dataset-loader/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// IngestMetrics contains all Prometheus metrics related to dataset ingestion.
// A nil *IngestMetrics is valid and records nothing.
type IngestMetrics struct {
	IngestionsTotal *prometheus.CounterVec
	RowsIngested    prometheus.Counter
	PhaseDuration   *prometheus.HistogramVec
	PhaseFailures   *prometheus.CounterVec
	JobsTotal       *prometheus.CounterVec
	JobsInFlight    prometheus.Gauge
}

// NewIngestMetrics creates and registers the ingestion metrics.
func NewIngestMetrics(registry prometheus.Registerer) (*IngestMetrics, error) {
	m := &IngestMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register ingest metrics: %w", err)
	}
	return m, nil
}

func (m *IngestMetrics) initMetrics() {
	m.IngestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loader_ingestions_total",
			Help: "Total number of dataset ingestions partitioned by outcome.",
		},
		[]string{"status"},
	)
	m.RowsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "loader_rows_ingested_total",
			Help: "Total number of annotation rows written to storage.",
		},
	)
	m.PhaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loader_phase_duration_seconds",
			Help:    "Time spent in each ingestion phase.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
		},
		[]string{"phase"},
	)
	m.PhaseFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loader_phase_failures_total",
			Help: "Total number of ingestion failures partitioned by phase and category.",
		},
		[]string{"phase", "category"},
	)
	m.JobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loader_jobs_total",
			Help: "Total number of load jobs partitioned by final status.",
		},
		[]string{"status"},
	)
	m.JobsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "loader_jobs_in_flight",
			Help: "Number of load jobs currently being processed.",
		},
	)
}

// ObservePhase records the duration of a phase and, if err is non-nil, a
// failure with the error's category.
func (m *IngestMetrics) ObservePhase(phase ingesterrors.Phase, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.PhaseDuration.WithLabelValues(string(phase)).Observe(d.Seconds())
	if err != nil {
		m.PhaseFailures.WithLabelValues(string(phase), string(ingesterrors.CategoryOf(err))).Inc()
	}
}

// RecordIngestion counts a finished ingestion and the rows it wrote.
func (m *IngestMetrics) RecordIngestion(rows int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.IngestionsTotal.WithLabelValues(StatusFailure).Inc()
		return
	}
	m.IngestionsTotal.WithLabelValues(StatusSuccess).Inc()
	m.RowsIngested.Add(float64(rows))
}

// RecordJob counts a job reaching a final status.
func (m *IngestMetrics) RecordJob(status string) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(status).Inc()
}

// JobStarted and JobFinished track jobs in flight.
func (m *IngestMetrics) JobStarted() {
	if m == nil {
		return
	}
	m.JobsInFlight.Inc()
}

func (m *IngestMetrics) JobFinished() {
	if m == nil {
		return
	}
	m.JobsInFlight.Dec()
}

// Describe implements the prometheus.Collector interface.
func (m *IngestMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.IngestionsTotal.Describe(ch)
	m.RowsIngested.Describe(ch)
	m.PhaseDuration.Describe(ch)
	m.PhaseFailures.Describe(ch)
	m.JobsTotal.Describe(ch)
	m.JobsInFlight.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *IngestMetrics) Collect(ch chan<- prometheus.Metric) {
	m.IngestionsTotal.Collect(ch)
	m.RowsIngested.Collect(ch)
	m.PhaseDuration.Collect(ch)
	m.PhaseFailures.Collect(ch)
	m.JobsTotal.Collect(ch)
	m.JobsInFlight.Collect(ch)
}
