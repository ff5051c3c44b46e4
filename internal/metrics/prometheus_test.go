package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics_Operations(t *testing.T) {
	m := NewPrometheusMetrics("rootrise")

	m.ObserveOperation("contribute", "ok")
	m.ObserveOperation("contribute", "ok")
	m.ObserveOperation("contribute", "DeadlinePassed")

	require.Equal(t, float64(2), testutil.ToFloat64(m.operations.WithLabelValues("contribute", "ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.operations.WithLabelValues("contribute", "DeadlinePassed")))
}

func TestPrometheusMetrics_Transfers(t *testing.T) {
	m := NewPrometheusMetrics("rootrise")

	m.ObserveTransfer("refund", 400)
	m.ObserveTransfer("refund", 100)

	require.Equal(t, float64(500), testutil.ToFloat64(m.transferTotal.WithLabelValues("refund")))
	require.Equal(t, float64(2), testutil.ToFloat64(m.transferCount.WithLabelValues("refund")))
}

func TestPrometheusMetrics_Gauges(t *testing.T) {
	m := NewPrometheusMetrics("rootrise")

	m.SetPaused(true)
	require.Equal(t, float64(1), testutil.ToFloat64(m.paused))
	m.SetPaused(false)
	require.Equal(t, float64(0), testutil.ToFloat64(m.paused))

	m.SetProjects(3)
	require.Equal(t, float64(3), testutil.ToFloat64(m.projectsCreated))
}

func TestPrometheusMetrics_Handler(t *testing.T) {
	m := NewPrometheusMetrics("rootrise")
	m.ObserveOperation("pause", "ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "rootrise_ledger_operations_total"))
}

func TestNopMetrics(t *testing.T) {
	var m Metrics = NewNopMetrics()
	m.ObserveOperation("pause", "ok")
	m.ObserveTransfer("release", 1)
	m.SetPaused(true)
	m.SetProjects(1)
}
