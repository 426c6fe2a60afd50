package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdesk/bizdesk/internal/masterdata/companies"
	"github.com/bizdesk/bizdesk/internal/observability"
	"github.com/bizdesk/bizdesk/internal/shared"
	"github.com/bizdesk/bizdesk/internal/totals"
)

type companyRepo struct{ ids map[int64]bool }

func (c companyRepo) List(context.Context, shared.PageRequest) ([]companies.Company, int, error) {
	return nil, 0, nil
}

func (c companyRepo) Get(_ context.Context, id int64) (*companies.Company, error) {
	if !c.ids[id] {
		return nil, companies.ErrNotFound
	}
	return &companies.Company{ID: id, Code: "C1", Name: "Blue", StateCode: "29"}, nil
}

func (c companyRepo) Exists(_ context.Context, id int64) (bool, error) { return c.ids[id], nil }

func (c companyRepo) IDs(context.Context) ([]int64, error) { return []int64{1}, nil }

func (c companyRepo) Create(_ context.Context, co companies.Company) (*companies.Company, error) {
	return &co, nil
}

func (c companyRepo) Update(context.Context, companies.Company) error { return nil }

func (c companyRepo) Delete(context.Context, int64) error { return nil }

func testRouter(t *testing.T, cfg *Config) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetrics()
	return NewRouter(RouterParams{
		Logger:     logger,
		Config:     cfg,
		Metrics:    metrics,
		Calculator: metrics.InstrumentCalculator(totals.NewCalculator()),
		Companies:  companies.NewHandler(logger, companies.NewService(companyRepo{ids: map[int64]bool{1: true}})),
	})
}

func defaultConfig() *Config {
	return &Config{AppEnv: "development", AppRequestTimeout: 5 * time.Second, RateLimitRequests: 100, RateLimitWindow: time.Minute}
}

func TestHealthzAndSecurityHeaders(t *testing.T) {
	router := testRouter(t, defaultConfig())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rr.Header().Get("X-RateLimit-Limit"))
}

func TestTotalsEndpoint(t *testing.T) {
	router := testRouter(t, defaultConfig())

	body := `{"items":[{"quantity":10,"unit_price":100,"discount_percent":0,"gst_rate":18},
		{"quantity":5,"unit_price":90,"discount_percent":0,"gst_rate":12}],
		"freight":{"amount":0,"type":"fixed"},"packing_forwarding":{"amount":0,"type":"fixed"},
		"discount":{"amount":10,"type":"percentage"}}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/totals", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"grand_total_formatted":"1,539.00"`)

	var out totals.DocumentTotals
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	assert.Equal(t, 1450.0, out.Subtotal)
	assert.Equal(t, 234.0, out.TotalTax)
	assert.Equal(t, 145.0, out.DocumentDiscount)
	assert.Equal(t, 1539.0, out.GrandTotal)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/totals",
		strings.NewReader(`{"items":[{"quantity":-1,"unit_price":100,"gst_rate":18}]}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/totals", strings.NewReader(`{"items":[]}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	scrape := httptest.NewRecorder()
	router.ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), `bizdesk_totals_computed_total{outcome="ok",supply="intra"} 1`)
	assert.Contains(t, scrape.Body.String(), `bizdesk_totals_computed_total{outcome="rejected",supply="intra"} 1`)
}

func TestTotalsEndpointAutoRoundOff(t *testing.T) {
	router := testRouter(t, defaultConfig())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/totals",
		strings.NewReader(`{"items":[{"quantity":3,"unit_price":33.33,"gst_rate":5}],"auto_round_off":true}`)))
	require.Equal(t, http.StatusOK, rr.Code)

	var out totals.DocumentTotals
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	assert.Equal(t, 105.0, out.GrandTotal)
	assert.Equal(t, 0.01, out.RoundOff)
}

func TestCompanyScopedRoutes(t *testing.T) {
	router := testRouter(t, defaultConfig())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/companies/1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"code":"C1"`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/companies/2/customers", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := defaultConfig()
	cfg.RateLimitRequests = 2
	router := testRouter(t, cfg)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
