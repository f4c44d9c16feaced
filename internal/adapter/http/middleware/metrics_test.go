package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordsMatchedRoute(t *testing.T) {
	httpRequestsTotal.Reset()
	httpRequestDuration.Reset()
	httpRequestsInFlight.Set(0)

	router := chi.NewRouter()
	router.Use(Metrics)
	router.Post("/api/v1/replay", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/replay", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	counter := httpRequestsTotal.WithLabelValues(http.MethodPost, "/api/v1/replay", "200")
	if got := testutil.ToFloat64(counter); got != 1 {
		t.Fatalf("expected counter 1, got %v", got)
	}

	if got := testutil.ToFloat64(httpRequestsInFlight); got != 0 {
		t.Fatalf("expected in-flight gauge back at 0, got %v", got)
	}
}

func TestMetricsCollapsesUnmatchedRoutes(t *testing.T) {
	httpRequestsTotal.Reset()

	handlerCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/some/unknown/path", nil)
	Metrics(next).ServeHTTP(httptest.NewRecorder(), req)

	if !handlerCalled {
		t.Fatalf("next handler was not invoked")
	}

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	if got := testutil.ToFloat64(counter); got != 1 {
		t.Fatalf("expected unmatched counter 1, got %v", got)
	}
}

func TestMetricsDefaultsToOK(t *testing.T) {
	httpRequestsTotal.Reset()

	// Handler never calls WriteHeader explicitly.
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/implicit", nil)
	Metrics(next).ServeHTTP(httptest.NewRecorder(), req)

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "200")
	if got := testutil.ToFloat64(counter); got != 1 {
		t.Fatalf("expected implicit 200 counter 1, got %v", got)
	}
}
