package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counts(t *testing.T) {
	r := New()

	r.ObserveEvaluation("Ok")
	r.ObserveEvaluation("Ok")
	r.ObserveEvaluation("TotalFailure")
	r.GeneratorError()
	r.SyncRun(4, nil)
	r.SyncRun(0, errors.New("sheets down"))
	r.SetQueueDepth(3)
	r.Archived()
	r.ObserveParse(2 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.evaluations.WithLabelValues("Ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.evaluations.WithLabelValues("TotalFailure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.generatorErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.syncRuns.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.syncRuns.WithLabelValues("error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.syncInserted))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.queueDepth))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.archived))
	assert.Equal(t, 1, testutil.CollectAndCount(r.parseDuration))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.ObserveEvaluation("Ok")
		r.ObserveParse(time.Second)
		r.GeneratorError()
		r.SyncRun(1, nil)
		r.SetQueueDepth(1)
		r.Archived()
	})
	assert.Nil(t, r.Registry())

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}

func TestRecorder_Handler(t *testing.T) {
	r := New(WithRuntimeCollectors())
	r.ObserveEvaluation("PartialFailure")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `meeting_evaluator_evaluations_total{status="PartialFailure"} 1`))
	assert.Contains(t, body, "go_goroutines")
}
