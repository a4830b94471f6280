package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRouteRecordsStatus(t *testing.T) {
	c := NewCollector("bookora_test")
	h := c.Route("/api/v1/public/book", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/public/book", nil))

	got := testutil.ToFloat64(c.RequestsTotal.WithLabelValues(http.MethodPost, "/api/v1/public/book", "409"))
	if got != 1 {
		t.Fatalf("expected one 409 sample, got %v", got)
	}

	rw := httptest.NewRecorder()
	c.Handler().ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rw.Body.String(), "bookora_test_http_requests_total") {
		t.Fatal("expected exposition to include the request counter")
	}
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector("bookora_test")
	b := NewCollector("bookora_test")
	a.BookingsTotal.WithLabelValues("create", "confirmed").Inc()
	if testutil.ToFloat64(b.BookingsTotal.WithLabelValues("create", "confirmed")) != 0 {
		t.Fatal("collectors must not share a registry")
	}
}
