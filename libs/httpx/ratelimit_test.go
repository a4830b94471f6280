package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRateLimiterPerCaller(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	if !rl.Allow("user:a", now) || !rl.Allow("user:a", now) {
		t.Fatal("expected burst of 2 to pass")
	}
	if rl.Allow("user:a", now) {
		t.Fatal("expected third request to be limited")
	}
	if !rl.Allow("user:b", now) {
		t.Fatal("other callers keep their own budget")
	}
	if !rl.Allow("user:a", now.Add(31*time.Second)) {
		t.Fatal("expected a token to refill after window/limit")
	}
}

func TestClientKeyPrefersUser(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.7:5555"
	if got := ClientKey(r); got != "ip:10.0.0.7" {
		t.Fatalf("unexpected key %q", got)
	}
	r.Header.Set("X-User-Id", "cust-9")
	if got := ClientKey(r); got != "ip:10.0.0.7" {
		t.Fatalf("unauthenticated header must not pick the bucket, got %q", got)
	}
	r = r.WithContext(ContextWithPrincipal(r.Context(), "cust-9"))
	if got := ClientKey(r); got != "user:cust-9" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestRedisRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rl := NewRedisRateLimiter(rdb, 1, time.Minute, "bookora:ratelimit:")
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), rl.Middleware(nil, false))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/book", nil)
	req = req.WithContext(ContextWithPrincipal(req.Context(), "cust-1"))

	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusNoContent {
		t.Fatalf("expected first request through, got %d", rw.Code)
	}
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rw.Code)
	}
	if !mr.Exists("bookora:ratelimit:user:cust-1") {
		t.Fatalf("expected single-colon key, have %v", mr.Keys())
	}

	mr.FastForward(2 * time.Minute)
	ok, err := rl.Allow(context.Background(), "user:cust-1")
	if err != nil || !ok {
		t.Fatalf("expected window to reset (ok=%v err=%v)", ok, err)
	}
}
