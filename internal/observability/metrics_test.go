package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsRequests(t *testing.T) {
	m := NewMetrics()
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/stocks", nil))
	require.Equal(t, http.StatusTeapot, res.Code)

	m.RecordCheckout("completed")
	m.RecordCheckout("rejected")

	res = httptest.NewRecorder()
	m.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := res.Body.String()
	require.True(t, strings.Contains(body, "stockline_http_requests_total"))
	require.True(t, strings.Contains(body, `stockline_checkouts_total{outcome="completed"} 1`))
	require.True(t, strings.Contains(body, `stockline_checkouts_total{outcome="rejected"} 1`))
}

func TestNilMetricsIsInert(t *testing.T) {
	var m *Metrics
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, res.Code)

	res = httptest.NewRecorder()
	m.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, res.Code)
}
