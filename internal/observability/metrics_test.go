package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shop-catalog/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMetricsMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	r := chi.NewRouter()
	r.Use(HTTPMetricsMiddleware(metrics))
	r.Get("/api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Product not found"}`))
	})

	for _, id := range []string{"1", "2", "abc"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/"+id, nil))
	}

	expected := `
		# HELP catalog_http_requests_total Total number of HTTP requests
		# TYPE catalog_http_requests_total counter
		catalog_http_requests_total{method="GET",route="/api/products/{id}",status="404"} 3
	`
	if err := testutil.CollectAndCompare(metrics.HTTPRequestsTotal, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metric value: %v", err)
	}

	if count := testutil.CollectAndCount(metrics.HTTPRequestDuration); count != 1 {
		t.Errorf("expected 1 duration series, got %d", count)
	}
}

func TestObserveStorage(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.ObserveStorage("put", nil)
	metrics.ObserveStorage("put", nil)
	metrics.ObserveStorage("delete", errors.New("gone"))

	expected := `
		# HELP catalog_storage_operations_total Total number of image store operations
		# TYPE catalog_storage_operations_total counter
		catalog_storage_operations_total{operation="delete",status="error"} 1
		catalog_storage_operations_total{operation="put",status="ok"} 2
	`
	if err := testutil.CollectAndCompare(metrics.StorageOperationsTotal, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metric value: %v", err)
	}
}

func TestHandler(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	metrics.ObserveStorage("put", nil)

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	if !strings.Contains(string(body), "catalog_storage_operations_total") {
		t.Errorf("metrics output missing storage counter")
	}
}

func TestInstrumentStore(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	instrumented := metrics.InstrumentStore(store)

	ctx := context.Background()
	if err := instrumented.Put(ctx, "a.png", "image/png", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := instrumented.Put(ctx, "../escape", "image/png", []byte("x")); err == nil {
		t.Fatal("expected invalid name error")
	}

	if got := testutil.ToFloat64(metrics.StorageOperationsTotal.WithLabelValues("put", "ok")); got != 1 {
		t.Errorf("expected 1 successful put, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.StorageOperationsTotal.WithLabelValues("put", "error")); got != 1 {
		t.Errorf("expected 1 failed put, got %v", got)
	}
}
