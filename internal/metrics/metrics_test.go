package metrics

import (
	"fmt"
	"testing"
	"time"

	ingesterrors "github.com/dvloznov/dataset-loader/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) *IngestMetrics {
	t.Helper()
	m, err := NewIngestMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func TestRecordIngestion(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordIngestion(8, nil)
	m.RecordIngestion(2, nil)
	m.RecordIngestion(5, fmt.Errorf("boom"))

	assert.InDelta(t, 2, testutil.ToFloat64(m.IngestionsTotal.WithLabelValues(StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.IngestionsTotal.WithLabelValues(StatusFailure)), 0)
	assert.InDelta(t, 10, testutil.ToFloat64(m.RowsIngested), 0)
}

func TestObservePhase(t *testing.T) {
	m := newTestMetrics(t)

	m.ObservePhase(ingesterrors.PhaseStage, 10*time.Millisecond, nil)
	notFound := ingesterrors.New(ingesterrors.ErrDatasetNotFound).Phase(ingesterrors.PhaseStage).Build()
	m.ObservePhase(ingesterrors.PhaseStage, time.Millisecond, notFound)

	assert.Equal(t, 1, testutil.CollectAndCount(m.PhaseDuration))
	assert.InDelta(t, 1, testutil.ToFloat64(
		m.PhaseFailures.WithLabelValues(string(ingesterrors.PhaseStage), string(ingesterrors.CategoryNotFound))), 0)
}

func TestJobMetrics(t *testing.T) {
	m := newTestMetrics(t)

	m.JobStarted()
	m.JobStarted()
	m.JobFinished()
	m.RecordJob("completed")

	assert.InDelta(t, 1, testutil.ToFloat64(m.JobsInFlight), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.JobsTotal.WithLabelValues("completed")), 0)
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *IngestMetrics
	assert.NotPanics(t, func() {
		m.ObservePhase(ingesterrors.PhaseWrite, time.Second, nil)
		m.RecordIngestion(1, nil)
		m.RecordJob("failed")
		m.JobStarted()
		m.JobFinished()
	})
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewIngestMetrics(reg)
	require.NoError(t, err)
	_, err = NewIngestMetrics(reg)
	assert.Error(t, err)
}
