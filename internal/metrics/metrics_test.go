package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"mediahub/internal/metrics"
)

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestRecordedValuesAreExposed(t *testing.T) {
	m := metrics.New()
	m.CacheLookup("memory")
	m.CacheLookup("memory")
	m.ParseFinished("ffprobe", false, 20*time.Millisecond)
	m.CatalogRequest("video", 404, time.Millisecond)
	m.EnrichmentOutcome("accepted")
	m.RegisterGauge("cache", "entries", "Live cache entries.", func() float64 { return 7 })

	out := scrape(t, m)
	for _, want := range []string{
		`mediahub_cache_lookups_total{source="memory"} 2`,
		`mediahub_parser_runs_total{prober="ffprobe",result="error"} 1`,
		`mediahub_catalog_requests_total{endpoint="video",status="4xx"} 1`,
		`mediahub_enrichment_jobs_total{outcome="accepted"} 1`,
		`mediahub_cache_entries 7`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in scrape output", want)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *metrics.Metrics
	m.CacheLookup("store")
	m.ParseFinished("ffprobe", true, time.Second)
	m.EnrichmentQueued(1)
	m.ScanFinished(3, time.Second)
	if m.Registry() != nil {
		t.Fatal("expected nil registry")
	}
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := metrics.New()
	router := chi.NewRouter()
	router.Use(m.Middleware)
	router.Get("/api/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/42", nil))

	out := scrape(t, m)
	want := `mediahub_api_requests_total{endpoint="/api/items/{id}",method="GET",status="204"} 1`
	if !strings.Contains(out, want) {
		t.Fatalf("expected %q in scrape output:\n%s", want, out)
	}
}
