package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hrledger/internal/domain/auth"
	"hrledger/internal/domain/employee"
)

func noContent() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRateLimitUsesUserKeyBeforeIPFallback(t *testing.T) {
	limited := RateLimit(1, time.Minute)(noContent())

	userCtx := context.WithValue(context.Background(), ctxKeyUser, auth.UserContext{
		UserID: "user-1",
		Role:   employee.RoleAdmin,
	})

	first := httptest.NewRequest(http.MethodPatch, "/api/v1/leaves/l1/approve", nil).WithContext(userCtx)
	first.RemoteAddr = "198.51.100.11:2222"
	firstRec := httptest.NewRecorder()
	limited.ServeHTTP(firstRec, first)
	if firstRec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", firstRec.Code)
	}

	second := httptest.NewRequest(http.MethodPatch, "/api/v1/leaves/l1/approve", nil).WithContext(userCtx)
	second.RemoteAddr = "198.51.100.12:3333"
	secondRec := httptest.NewRecorder()
	limited.ServeHTTP(secondRec, second)
	if secondRec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by user key, got %d", secondRec.Code)
	}
}

func TestRateLimitFallsBackToIP(t *testing.T) {
	limited := RateLimit(1, time.Minute)(noContent())

	first := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/today", nil)
	first.RemoteAddr = "203.0.113.10:4444"
	firstRec := httptest.NewRecorder()
	limited.ServeHTTP(firstRec, first)
	if firstRec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", firstRec.Code)
	}

	second := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/today", nil)
	second.RemoteAddr = "203.0.113.10:5555"
	secondRec := httptest.NewRecorder()
	limited.ServeHTTP(secondRec, second)
	if secondRec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by ip key, got %d", secondRec.Code)
	}
}

func TestRateLimitWindowReset(t *testing.T) {
	limited := RateLimit(1, 40*time.Millisecond)(noContent())

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/check-in", nil)
		req.RemoteAddr = "192.0.2.20:1111"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send(); code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", code)
	}
	time.Sleep(50 * time.Millisecond)
	if code := send(); code != http.StatusNoContent {
		t.Fatalf("expected third request after window reset to pass, got %d", code)
	}
}

func TestRateLimitReturnsRetryMetadata(t *testing.T) {
	limited := RateLimit(1, time.Minute)(noContent())

	req1 := httptest.NewRequest(http.MethodPost, "/api/v1/leaves", nil)
	req1.RemoteAddr = "192.0.2.30:1234"
	limited.ServeHTTP(httptest.NewRecorder(), req1)

	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/leaves", nil)
	req2.RemoteAddr = "192.0.2.30:1234"
	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, req2)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected throttled response, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatal("expected X-RateLimit-Reset header")
	}
}

func TestLedgerMutationRateLimitScope(t *testing.T) {
	limited := LedgerMutationRateLimit(4, time.Minute)(noContent())

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/admin", nil)
		req.RemoteAddr = "198.51.100.40:8888"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected read route request %d to bypass mutation limits, got %d", i+1, rec.Code)
		}
	}

	userCtx := context.WithValue(context.Background(), ctxKeyUser, auth.UserContext{
		UserID: "admin-1",
		Role:   employee.RoleAdmin,
	})
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/leaves/l1/reject", nil).WithContext(userCtx)
		req.RemoteAddr = "198.51.100.41:9999"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		if i < 2 && rec.Code != http.StatusNoContent {
			t.Fatalf("expected mutation %d to pass, got %d", i+1, rec.Code)
		}
		if i == 2 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected third mutation to be throttled, got %d", rec.Code)
		}
	}
}

func TestIsLedgerMutation(t *testing.T) {
	cases := map[string]bool{
		"POST /api/v1/attendance/check-in":  true,
		"POST /api/v1/attendance/check-out": true,
		"POST /api/v1/leaves":               true,
		"PATCH /api/v1/leaves/abc/approve":  true,
		"PATCH /api/v1/leaves/abc/reject/":  true,
		"POST /api/v1/employees":            true,
		"GET /api/v1/leaves":                false,
		"GET /api/v1/attendance/history":    false,
	}
	for line, want := range cases {
		method, path, _ := strings.Cut(line, " ")
		if got := isLedgerMutation(httptest.NewRequest(method, path, nil)); got != want {
			t.Fatalf("%s: expected %v, got %v", line, want, got)
		}
	}
}
