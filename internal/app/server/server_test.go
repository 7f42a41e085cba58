package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrledger/internal/domain/auth"
	"hrledger/internal/domain/employee"
	"hrledger/internal/domain/leave"
	"hrledger/internal/platform/config"
	"hrledger/internal/platform/db"
)

func sqliteConfig() config.Config {
	return config.Config{
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
		SeedSampleEmployees: true,
		MetricsEnabled:      true,
	}
}

func TestNewSeedsSampleData(t *testing.T) {
	ctx := context.Background()
	// Thursday 2024-02-08: the 1st, 2nd, 5th, 6th and 7th are past weekdays.
	now := time.Date(2024, time.February, 8, 12, 0, 0, 0, time.UTC)
	app, err := New(ctx, sqliteConfig(), WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	defer app.Close()

	admins, err := app.Services.Employees.List(ctx, employee.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, 25, admins[0].LeaveBalance)

	staff, err := app.Services.Employees.List(ctx, employee.RoleEmployee)
	require.NoError(t, err)
	require.Len(t, staff, len(sampleEmployees))

	pending, err := app.Services.Leaves.ListAll(ctx, leave.StatusPending, "", leave.Page{})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Days)

	first, last := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	present, err := app.Services.Attendance.PresentBetween(ctx, first, last)
	require.NoError(t, err)
	assert.Equal(t, sampleAttendanceEmployees*5, present)

	// A second pass must not duplicate anything.
	require.NoError(t, Seed(ctx, app.Services, app.Config, now))
	staff, err = app.Services.Employees.List(ctx, employee.RoleEmployee)
	require.NoError(t, err)
	assert.Len(t, staff, len(sampleEmployees))
	pending, err = app.Services.Leaves.ListAll(ctx, leave.StatusPending, "", leave.Page{})
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestOperationalRoutes(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig()
	cfg.SeedSampleEmployees = false
	app, err := New(ctx, cfg)
	require.NoError(t, err)
	defer app.Close()

	rr := httptest.NewRecorder()
	app.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	app.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = httptest.NewRecorder()
	app.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	admin, err := app.Services.Employees.Store.GetByEmail(ctx, cfg.SeedAdminEmail)
	require.NoError(t, err)
	token, err := auth.GenerateToken(cfg.JWTSecret, auth.ClaimsFor(admin), time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	app.Router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "requestsTotal")

	rr = httptest.NewRecorder()
	app.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), `"code":"not_found"`)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	cfg := sqliteConfig()
	cfg.DatabaseDriver = "mysql"
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}
