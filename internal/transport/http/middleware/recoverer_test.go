package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"hrledger/internal/transport/http/api"
)

func TestRecovererWritesEnvelope(t *testing.T) {
	handler := RequestID(Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leaves", nil)
	req.Header.Set("X-Request-ID", "req-panic")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var env api.Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success || env.Error == nil || env.Error.Code != "internal_error" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env.RequestID != "req-panic" {
		t.Fatalf("expected request id to survive the panic, got %q", env.RequestID)
	}
}

func TestRecovererReraisesAbort(t *testing.T) {
	handler := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
