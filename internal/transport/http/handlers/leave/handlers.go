package leavehandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrledger/internal/domain/calendar"
	"hrledger/internal/domain/employee"
	"hrledger/internal/domain/leave"
	"hrledger/internal/transport/http/api"
	"hrledger/internal/transport/http/middleware"
	"hrledger/internal/transport/http/shared"
)

const (
	maxReasonLength = 1000
	maxListLimit    = 500
)

type Handler struct {
	Service  *leave.Service
	Location *time.Location
	Now      func() time.Time
}

func NewHandler(service *leave.Service, loc *time.Location) *Handler {
	return &Handler{Service: service, Location: loc, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leaves", func(r chi.Router) {
		r.Post("/", h.handleApply)
		r.Get("/mine", h.handleListMine)
		r.Get("/{leaveID}", h.handleGet)
		r.With(middleware.RequireRole(employee.RoleAdmin)).Get("/", h.handleListAll)
		r.With(middleware.RequireRole(employee.RoleAdmin)).Patch("/{leaveID}/approve", h.handleApprove)
		r.With(middleware.RequireRole(employee.RoleAdmin)).Patch("/{leaveID}/reject", h.handleReject)
	})
}

type applyPayload struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	LeaveType string `json:"leaveType"`
	Reason    string `json:"reason"`
}

type rejectPayload struct {
	RejectionReason string `json:"rejectionReason"`
}

func leaveTypeNames() []string {
	out := make([]string, 0, len(leave.Types))
	for _, t := range leave.Types {
		out = append(out, string(t))
	}
	return out
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload applyPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		if shared.IsBodyTooLarge(err) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid json payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.Required("leaveType", payload.LeaveType, "is required")
	v.Enum("leaveType", payload.LeaveType, leaveTypeNames(), "must be one of vacation, sick, work_from_home")
	v.Required("reason", payload.Reason, "is required")
	if len(payload.Reason) > maxReasonLength {
		v.Add("reason", "is too long")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	in := leave.ApplyInput{
		StartDate: start,
		EndDate:   end,
		LeaveType: leave.Type(strings.ToLower(strings.TrimSpace(payload.LeaveType))),
		Reason:    payload.Reason,
	}
	created, err := h.Service.Apply(r.Context(), user.UserID, in, calendar.Today(h.now(), h.Location))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 0, maxListLimit)
	status := leave.Status(strings.ToLower(r.URL.Query().Get("status")))
	out, err := h.Service.ListMine(r.Context(), user.UserID, status, leave.Page{Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	employeeID := strings.TrimSpace(query.Get("employee"))

	v := shared.NewValidator()
	v.UUID("employee", employeeID)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	page := shared.ParsePagination(r, 0, maxListLimit)
	status := leave.Status(strings.ToLower(query.Get("status")))
	out, err := h.Service.ListAll(r.Context(), status, employeeID, leave.Page{Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	leaveID, ok := leaveIDParam(w, r)
	if !ok {
		return
	}
	req, err := h.Service.Get(r.Context(), leaveID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !user.IsAdmin() && req.Employee.ID != user.UserID {
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	leaveID, ok := leaveIDParam(w, r)
	if !ok {
		return
	}
	decision, err := h.Service.Approve(r.Context(), leaveID, user.UserID, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, decision, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	leaveID, ok := leaveIDParam(w, r)
	if !ok {
		return
	}
	var payload rejectPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid json payload", middleware.GetRequestID(r.Context()))
		return
	}
	if len(payload.RejectionReason) > maxReasonLength {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "rejectionReason", Reason: "is too long"}})
		return
	}

	decision, err := h.Service.Reject(r.Context(), leaveID, user.UserID, payload.RejectionReason, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, decision, middleware.GetRequestID(r.Context()))
}

func leaveIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	leaveID := chi.URLParam(r, "leaveID")
	v := shared.NewValidator()
	v.Required("id", leaveID, "is required")
	v.UUID("id", leaveID)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return "", false
	}
	return leaveID, true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())

	var verr *leave.ValidationError
	if errors.As(err, &verr) {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: verr.Field, Reason: verr.Reason}})
		return
	}
	var balanceErr *leave.InsufficientBalanceError
	if errors.As(err, &balanceErr) {
		api.FailWithDetails(w, http.StatusUnprocessableEntity, "insufficient_balance", balanceErr.Error(), map[string]int{
			"required":  balanceErr.Required,
			"available": balanceErr.Available,
		}, reqID)
		return
	}

	switch {
	case errors.Is(err, leave.ErrOverlap):
		api.Fail(w, http.StatusConflict, "leave_overlap", "leave overlaps an existing request", reqID)
	case errors.Is(err, leave.ErrAlreadyProcessed):
		api.Fail(w, http.StatusConflict, "already_processed", "leave request already processed", reqID)
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", reqID)
	case errors.Is(err, leave.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", reqID)
	default:
		slog.Error("leave request failed", "path", r.URL.Path, "requestId", reqID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "leave operation failed", reqID)
	}
}
