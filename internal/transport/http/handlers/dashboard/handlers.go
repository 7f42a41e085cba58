package dashboardhandler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrledger/internal/domain/dashboard"
	"hrledger/internal/domain/employee"
	"hrledger/internal/transport/http/api"
	"hrledger/internal/transport/http/middleware"
)

type Handler struct {
	Service *dashboard.Service
	Now     func() time.Time
}

func NewHandler(service *dashboard.Service) *Handler {
	return &Handler{Service: service, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.With(middleware.RequireRole(employee.RoleAdmin)).Get("/admin", h.handleAdmin)
		r.Get("/employee", h.handleEmployee)
	})
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *Handler) handleAdmin(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.Admin(r.Context(), h.now())
	if err != nil {
		slog.Error("admin dashboard failed", "requestId", middleware.GetRequestID(r.Context()), "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "failed to load dashboard", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleEmployee(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	summary, err := h.Service.Employee(r.Context(), user.UserID, h.now())
	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", middleware.GetRequestID(r.Context()))
			return
		}
		slog.Error("employee dashboard failed", "employeeId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "failed to load dashboard", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}
