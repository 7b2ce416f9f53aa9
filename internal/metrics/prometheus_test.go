package metrics

import (
	"testing"
	"time"

	"dlt-predictor/internal/predictor"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ predictor.Observer = (*Recorder)(nil)

// TestObserveRun tests run counters and the stability gauge
func TestObserveRun(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.ObserveRun("single", 5, 20*time.Millisecond, 72, false)
	r.ObserveRun("single", 2, 10*time.Millisecond, -1, false)
	r.ObserveRun("compound", 3, time.Millisecond, 40, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.runs.WithLabelValues("single", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("compound", "true")))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.predictions.WithLabelValues("single")))
	assert.Equal(t, 72.0, testutil.ToFloat64(r.stability.WithLabelValues("single")))
	assert.Equal(t, 40.0, testutil.ToFloat64(r.stability.WithLabelValues("compound")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.runDuration))
}

// TestSyncAndVerification tests draw and prize counters
func TestSyncAndVerification(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordDrawSynced("24101")
	r.RecordDrawSynced("bad")
	r.RecordVerification("五等奖", 300)
	r.RecordVerification("未中奖", 0)
	r.ObserveSamplingExhausted("front")
	r.RecordError("api_fetch")
	r.RecordCommand("predict")
	r.RecordLatency("api_fetch", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.drawsSynced))
	assert.Equal(t, 24101.0, testutil.ToFloat64(r.latestIssue))
	assert.Equal(t, 300.0, testutil.ToFloat64(r.prizeAmount))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.verified.WithLabelValues("未中奖")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.exhausted.WithLabelValues("front")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("api_fetch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.commandsServed.WithLabelValues("predict")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
