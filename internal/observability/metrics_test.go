package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/odyssey-crm/internal/jobs"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMetricsHandlerIncludesJobMetrics(t *testing.T) {
	metrics := NewMetrics()
	jobmetrics.NewMetrics(metrics.Registerer()).Track("order:created").End(nil)

	body := scrape(t, metrics)
	assert.Contains(t, body, `crm_jobs_total{job="order:created",status="success"} 1`)
	assert.Contains(t, body, "crm_http_requests_in_flight 0")
}

func TestMetricsMiddlewareLabelsOrderRoutes(t *testing.T) {
	metrics := NewMetrics()
	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/def", nil))

	body := scrape(t, metrics)
	assert.Contains(t, body, `crm_http_requests_total{area="orders",code="404",route="/orders/{id}"} 2`)
	assert.Contains(t, body, `crm_http_request_duration_seconds_bucket{area="orders",route="/orders/{id}"`)
}

func TestMetricsMiddlewareUnmatchedRoute(t *testing.T) {
	metrics := NewMetrics()
	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chi.NewRouteContext()))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, scrape(t, metrics), `crm_http_requests_total{area="system",code="418",route="unmatched"} 1`)
}

func TestRouteArea(t *testing.T) {
	cases := map[string]string{
		"/api/orders/{id}":   "orders",
		"/orders/{id}/edit":  "orders",
		"/customers":         "customers",
		"/api/products/{id}": "products",
		"/healthz":           "system",
		"/jobs/health":       "system",
		"unmatched":          "system",
	}
	for route, want := range cases {
		assert.Equal(t, want, routeArea(route), route)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, m.Middleware(next))
}
