package employeehandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrledger/internal/domain/employee"
	"hrledger/internal/transport/http/api"
	"hrledger/internal/transport/http/middleware"
	"hrledger/internal/transport/http/shared"
)

type Handler struct {
	Service *employee.Service
	Now     func() time.Time
}

func NewHandler(service *employee.Service) *Handler {
	return &Handler{Service: service, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Get("/me", h.handleMe)
		r.Get("/{employeeID}", h.handleGet)
		r.With(middleware.RequireRole(employee.RoleAdmin)).Get("/", h.handleList)
		r.With(middleware.RequireRole(employee.RoleAdmin)).Post("/", h.handleCreate)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload employee.RegisterInput
	if err := shared.DecodeJSON(r, &payload); err != nil {
		if shared.IsBodyTooLarge(err) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid json payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	v.Required("email", payload.Email, "is required")
	v.Enum("role", string(payload.Role), []string{string(employee.RoleAdmin), string(employee.RoleEmployee)}, "must be admin or employee")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	payload.Role = employee.Role(strings.ToLower(strings.TrimSpace(string(payload.Role))))

	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	created, err := h.Service.Register(r.Context(), payload, now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	role := employee.Role(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("role"))))
	out, err := h.Service.List(r.Context(), role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	h.writeEmployee(w, r, user.UserID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	v := shared.NewValidator()
	v.UUID("id", employeeID)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	if !user.IsAdmin() && employeeID != user.UserID {
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", middleware.GetRequestID(r.Context()))
		return
	}
	h.writeEmployee(w, r, employeeID)
}

func (h *Handler) writeEmployee(w http.ResponseWriter, r *http.Request, id string) {
	e, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, e, middleware.GetRequestID(r.Context()))
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	field := ""
	switch {
	case errors.Is(err, employee.ErrInvalidName):
		field = "name"
	case errors.Is(err, employee.ErrInvalidEmail):
		field = "email"
	case errors.Is(err, employee.ErrInvalidRole):
		field = "role"
	case errors.Is(err, employee.ErrNegativeBalance):
		field = "leaveBalance"
	}
	if field != "" {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: field, Reason: err.Error()}})
		return
	}

	switch {
	case errors.Is(err, employee.ErrEmailTaken):
		api.Fail(w, http.StatusConflict, "email_taken", "email already registered", reqID)
	case errors.Is(err, employee.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
	default:
		slog.Error("employee request failed", "path", r.URL.Path, "requestId", reqID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "employee operation failed", reqID)
	}
}
