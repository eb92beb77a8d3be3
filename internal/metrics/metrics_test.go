package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqdash/internal/engine"
)

func TestObserve(t *testing.T) {
	m := New()

	m.ObserveLoad(engine.LoadStats{RowsRead: 12, RowsKept: 10, RowsDropped: 2})
	m.ObserveCompute("ok", 3*time.Millisecond)
	m.ObserveCompute("ok", time.Millisecond)
	m.ObserveCompute("no_data", time.Millisecond)

	assert.Equal(t, 10.0, testutil.ToFloat64(m.RecordsLoaded))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsDropped))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Computations.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Computations.WithLabelValues("no_data")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveCompute("ok", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `airq_view_computations_total{status="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "airq_view_computation_seconds_bucket")
}
