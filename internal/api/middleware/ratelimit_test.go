package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_AllowsBurstThenRejects(t *testing.T) {
	rl := NewRateLimiter(1, 3)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be within burst", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("fourth request should be rejected")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other clients have their own bucket")
	}

	now = now.Add(time.Second)
	if !rl.Allow("10.0.0.1") {
		t.Error("a token should have been refilled after one second")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatal("disabled limiter rejected a request")
		}
	}
	if rl.Clients() != 0 {
		t.Errorf("disabled limiter should not track clients, got %d", rl.Clients())
	}
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(5, 5)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	rl.Allow("b")
	if rl.Clients() != 2 {
		t.Fatalf("Clients() = %d, want 2", rl.Clients())
	}

	now = now.Add(DefaultIdleTTL + time.Second)
	rl.Allow("c")
	if rl.Clients() != 1 {
		t.Errorf("idle clients should be evicted, Clients() = %d", rl.Clients())
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(0.5, 1)
	rejected := 0
	rl.OnReject = func(*http.Request) { rejected++ }

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reference", nil)
	req.RemoteAddr = "192.0.2.1:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Errorf("Retry-After = %q, want 2", got)
	}
	if rejected != 1 {
		t.Errorf("OnReject called %d times", rejected)
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	if got := ClientKey(req); got != "192.0.2.1" {
		t.Errorf("ClientKey() = %q", got)
	}

	req.RemoteAddr = "192.0.2.9"
	if got := ClientKey(req); got != "192.0.2.9" {
		t.Errorf("ClientKey() without port = %q", got)
	}
}
