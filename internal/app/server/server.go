package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"hrledger/internal/domain/attendance"
	"hrledger/internal/domain/dashboard"
	"hrledger/internal/domain/employee"
	"hrledger/internal/domain/leave"
	"hrledger/internal/platform/config"
	"hrledger/internal/platform/email"
	"hrledger/internal/platform/jobs"
	"hrledger/internal/platform/metrics"
	"hrledger/internal/transport/http/api"
	attendancehandler "hrledger/internal/transport/http/handlers/attendance"
	dashboardhandler "hrledger/internal/transport/http/handlers/dashboard"
	employeehandler "hrledger/internal/transport/http/handlers/employee"
	leavehandler "hrledger/internal/transport/http/handlers/leave"
	"hrledger/internal/transport/http/middleware"
)

// Services are the domain services the HTTP layer and the CLI share.
type Services struct {
	Employees  *employee.Service
	Leaves     *leave.Service
	Attendance *attendance.Service
	Dashboard  *dashboard.Service
}

type App struct {
	Config   config.Config
	Services Services
	Metrics  *metrics.Collector
	Router   http.Handler

	now    func() time.Time
	stores stores
	jobs   *jobs.Service
}

const notificationWorkers = 2

type Option func(*App)

// WithClock replaces the wall clock used by handlers and services.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// New opens the configured database, applies migrations and seed data when
// enabled, and assembles the router. Callers must Close the app.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	app := &App{Config: cfg, Metrics: metrics.New(), now: time.Now}
	for _, opt := range opts {
		opt(app)
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.stores = st

	app.jobs = jobs.New(0)
	app.jobs.Events = app.Metrics
	app.jobs.Start(notificationWorkers)

	notifier := email.NewNotifier(email.NewMailer(cfg))
	notifier.Jobs = app.jobs

	loc := cfg.Location()
	leaves := leave.NewService(st.Leaves)
	leaves.Now = app.now
	leaves.ReservePending = cfg.ReservePendingLeave
	leaves.Events = app.Metrics
	leaves.Notifier = notifier

	att := attendance.NewService(st.Attendance, loc)
	att.Events = app.Metrics

	app.Services = Services{
		Employees:  employee.NewService(st.Employees, cfg.DefaultLeaveBalance, cfg.AdminLeaveBalance),
		Leaves:     leaves,
		Attendance: att,
		Dashboard:  dashboard.NewService(st.Employees, st.Leaves, st.Attendance, loc),
	}

	if cfg.RunSeed {
		if err := Seed(ctx, app.Services, cfg, app.now()); err != nil {
			app.Close()
			return nil, err
		}
	}

	app.Router = app.routes()
	return app, nil
}

func (a *App) Ping(ctx context.Context) error {
	return a.stores.ping(ctx)
}

// Close waits for queued notifications, then releases the database.
func (a *App) Close() {
	if a.jobs != nil {
		a.jobs.Stop()
	}
	if a.stores.close != nil {
		a.stores.close()
	}
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	window := time.Minute

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(a.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, window))
	router.Use(middleware.Auth(cfg.JWTSecret, a.Services.Employees))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.With(middleware.RequireRole(employee.RoleAdmin)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.LedgerMutationRateLimit(cfg.RateLimitPerMinute, window))

		employeeHandler := employeehandler.NewHandler(a.Services.Employees)
		employeeHandler.Now = a.now
		employeeHandler.RegisterRoutes(r)

		leaveHandler := leavehandler.NewHandler(a.Services.Leaves, cfg.Location())
		leaveHandler.Now = a.now
		leaveHandler.RegisterRoutes(r)

		attendanceHandler := attendancehandler.NewHandler(a.Services.Attendance)
		attendanceHandler.Now = a.now
		attendanceHandler.RegisterRoutes(r)

		dashboardHandler := dashboardhandler.NewHandler(a.Services.Dashboard)
		dashboardHandler.Now = a.now
		dashboardHandler.RegisterRoutes(r)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusNotFound, "not_found", "route not found", middleware.GetRequestID(r.Context()))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", middleware.GetRequestID(r.Context()))
	})

	return router
}

// Run serves the API until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, cfg config.Config) error {
	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("ledger server listening", "addr", cfg.Addr, "driver", cfg.DatabaseDriver, "timezone", cfg.Timezone)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
