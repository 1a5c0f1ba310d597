package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Run("Should_count_requests_by_route_and_status", func(t *testing.T) {
		m := New()
		m.ObserveRequest(http.MethodPost, "/add", http.StatusOK, 5*time.Millisecond)
		m.ObserveRequest(http.MethodPost, "/add", http.StatusOK, 5*time.Millisecond)
		m.ObserveRequest(http.MethodPost, "/add", http.StatusBadRequest, time.Millisecond)

		assert.InDelta(t, 2, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/add", "200")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/add", "400")), 0)
	})

	t.Run("Should_label_unmatched_routes", func(t *testing.T) {
		m := New()
		m.ObserveRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)
		assert.InDelta(t, 1, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")), 0)
	})

	t.Run("Should_count_task_ops", func(t *testing.T) {
		m := New()
		m.ObserveTaskOp("toggle", "not_found")
		assert.InDelta(t, 1, testutil.ToFloat64(m.taskOps.WithLabelValues("toggle", "not_found")), 0)
	})

	t.Run("Should_expose_registry_over_http", func(t *testing.T) {
		m := New()
		m.ObserveTaskOp("create", "ok")
		srv := httptest.NewServer(m.Handler())
		defer srv.Close()

		res, err := http.Get(srv.URL)
		require.NoError(t, err)
		defer res.Body.Close()
		body, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, string(body), `todo_task_operations_total{op="create",result="ok"} 1`)
	})
}
