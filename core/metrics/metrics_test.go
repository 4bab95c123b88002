package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chainmux/core/handler"
	"github.com/dmitrymomot/chainmux/core/metrics"
	"github.com/dmitrymomot/chainmux/core/pattern"
	"github.com/dmitrymomot/chainmux/core/router"
)

func TestRecorder_Observe(t *testing.T) {
	t.Parallel()

	rec := metrics.New(metrics.WithNamespace("test"))
	rec.Observe(http.MethodGet, "/users/{id}", http.StatusOK, 20*time.Millisecond)
	rec.Observe(http.MethodGet, "/users/{id}", http.StatusOK, 30*time.Millisecond)
	rec.Observe(http.MethodGet, router.NotFoundKey, http.StatusNotFound, time.Millisecond)

	count, err := testutil.GatherAndCount(rec.Registry(), "test_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	expected := `
# HELP test_http_requests_total Requests dispatched, by method, route template and status.
# TYPE test_http_requests_total counter
test_http_requests_total{method="GET",route="/users/{id}",status="200"} 2
test_http_requests_total{method="GET",route="@404",status="404"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "test_http_requests_total"))
}

func TestRecorder_WithRouter(t *testing.T) {
	t.Parallel()

	rec := metrics.New()
	r := router.New(router.WithObserver(rec))
	r.Get("/items/{id}", handler.New("item", func(_ *handler.Context, args handler.Args) (any, error) {
		return args.Int("id"), nil
	}, handler.Path("id", pattern.Int)))
	r.Handle(http.MethodGet, "/metrics", rec.Handler())

	for _, target := range []string{"/items/1", "/items/2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",route="/items/{id}",status="200"} 2`)
	assert.Contains(t, w.Body.String(), "http_request_duration_seconds_bucket")
}
