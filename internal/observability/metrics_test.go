package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdesk/bizdesk/internal/totals"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsHandlerExposesJobMetrics(t *testing.T) {
	metrics := NewMetrics()
	_ = metrics.Jobs().Track("totals:reconcile").End(nil)

	assert.Contains(t, scrape(t, metrics), `bizdesk_jobs_total{job="totals:reconcile",status="success"} 1`)
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	assert.Contains(t, body, `bizdesk_http_requests_total{code="418",method="GET",route="/test"} 1`)
	assert.Contains(t, body, `bizdesk_http_request_duration_seconds_bucket{route="/test"`)
}

type failingCalculator struct{}

func (failingCalculator) Compute(totals.Input) (totals.DocumentTotals, error) {
	return totals.DocumentTotals{}, errors.New("boom")
}

func TestInstrumentCalculatorCountsOutcomes(t *testing.T) {
	metrics := NewMetrics()

	calc := metrics.InstrumentCalculator(totals.NewCalculator())
	_, err := calc.Compute(totals.Input{Items: []totals.LineItem{{Quantity: 1, UnitPrice: 100, GSTRate: 18}}, InterState: true})
	require.NoError(t, err)
	_, err = metrics.InstrumentCalculator(failingCalculator{}).Compute(totals.Input{})
	require.Error(t, err)

	body := scrape(t, metrics)
	assert.Contains(t, body, `bizdesk_totals_computed_total{outcome="ok",supply="inter"} 1`)
	assert.Contains(t, body, `bizdesk_totals_computed_total{outcome="rejected",supply="intra"} 1`)
}

func TestNilMetricsPassThrough(t *testing.T) {
	var m *Metrics
	calc := totals.NewCalculator()
	assert.Equal(t, Calculator(calc), m.InstrumentCalculator(calc))
	assert.Nil(t, m.Jobs())

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
