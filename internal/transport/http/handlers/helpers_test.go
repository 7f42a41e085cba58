package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"hrledger/internal/app/server"
	"hrledger/internal/domain/auth"
	"hrledger/internal/domain/employee"
	"hrledger/internal/platform/config"
	"hrledger/internal/platform/db"
)

type apiError struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *apiError       `json:"error"`
	RequestID string          `json:"requestId"`
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type harness struct {
	app    *server.App
	server *httptest.Server
	client *http.Client
	clock  *testClock
	cfg    config.Config
}

func testConfig() config.Config {
	return config.Config{
		Addr:                ":0",
		Environment:         "test",
		DatabaseDriver:      config.DriverSQLite,
		DatabaseURL:         db.MemoryDSN,
		JWTSecret:           "test-secret",
		TokenTTL:            time.Hour,
		Timezone:            "UTC",
		DefaultLeaveBalance: 20,
		AdminLeaveBalance:   25,
		MaxBodyBytes:        1048576,
		RateLimitPerMinute:  1000,
		RunMigrations:       true,
		RunSeed:             true,
		SeedAdminEmail:      "admin@test.local",
		SeedAdminName:       "Test Admin",
		EmailFrom:           "no-reply@test.local",
		MetricsEnabled:      true,
	}
}

func newHarness(t *testing.T, cfg config.Config, start time.Time) *harness {
	t.Helper()
	clock := &testClock{now: start}
	app, err := server.New(context.Background(), cfg, server.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	ts := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		ts.Close()
		app.Close()
	})
	return &harness{app: app, server: ts, client: ts.Client(), clock: clock, cfg: cfg}
}

func (h *harness) tokenFor(t *testing.T, email string) string {
	t.Helper()
	e, err := h.app.Services.Employees.Store.GetByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("failed to load %s: %v", email, err)
	}
	token, err := auth.GenerateToken(h.cfg.JWTSecret, auth.ClaimsFor(e), time.Hour)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	return token
}

func (h *harness) adminToken(t *testing.T) string {
	return h.tokenFor(t, h.cfg.SeedAdminEmail)
}

func (h *harness) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	resp := h.raw(t, method, path, token, body)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response %q: %v", string(raw), err)
	}
	return resp.StatusCode, env
}

func (h *harness) raw(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(method, h.server.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// expect performs the request and fails unless the status matches.
func (h *harness) expect(t *testing.T, want int, method, path, token string, body any) envelope {
	t.Helper()
	status, env := h.do(t, method, path, token, body)
	if status != want {
		t.Fatalf("%s %s: expected status %d, got %d (error %+v)", method, path, want, status, env.Error)
	}
	return env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("failed to decode data %q: %v", string(env.Data), err)
	}
	return out
}

func (h *harness) createEmployee(t *testing.T, token, name, email string, balance int) employee.Employee {
	t.Helper()
	env := h.expect(t, http.StatusCreated, http.MethodPost, "/api/v1/employees", token, map[string]any{
		"name":         name,
		"email":        email,
		"role":         "employee",
		"leaveBalance": balance,
	})
	return decode[employee.Employee](t, env)
}
