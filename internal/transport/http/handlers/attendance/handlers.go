package attendancehandler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrledger/internal/domain/attendance"
	"hrledger/internal/transport/http/api"
	"hrledger/internal/transport/http/middleware"
	"hrledger/internal/transport/http/shared"
)

const maxNotesLength = 500

type Handler struct {
	Service *attendance.Service
	Now     func() time.Time
}

func NewHandler(service *attendance.Service) *Handler {
	return &Handler{Service: service, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Post("/check-in", h.handleCheckIn)
		r.Post("/check-out", h.handleCheckOut)
		r.Get("/today", h.handleToday)
		r.Get("/history", h.handleHistory)
		r.Get("/history/export", h.handleExport)
	})
}

type notesPayload struct {
	Notes string `json:"notes"`
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	h.handleMark(w, r, h.Service.CheckIn)
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	h.handleMark(w, r, h.Service.CheckOut)
}

type markFunc func(ctx context.Context, employeeID string, now time.Time, notes string) (attendance.Record, error)

func (h *Handler) handleMark(w http.ResponseWriter, r *http.Request, mark markFunc) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload notesPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		if shared.IsBodyTooLarge(err) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid json payload", middleware.GetRequestID(r.Context()))
		return
	}
	if len(payload.Notes) > maxNotesLength {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "notes", Reason: "is too long"}})
		return
	}

	rec, err := mark(r.Context(), user.UserID, h.now(), payload.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	today, err := h.Service.Today(r.Context(), user.UserID, h.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, today, middleware.GetRequestID(r.Context()))
}

// historyFor parses month and year and loads the matching history. It writes
// the error response itself and reports whether the caller should continue.
func (h *Handler) historyFor(w http.ResponseWriter, r *http.Request, employeeID string) (attendance.History, bool) {
	query := r.URL.Query()
	v := shared.NewValidator()
	month := v.Int("month", query.Get("month"), 1, 12)
	year := v.Int("year", query.Get("year"), 1970, 9999)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return attendance.History{}, false
	}

	history, err := h.Service.History(r.Context(), employeeID, year, month, h.now())
	if err != nil {
		writeError(w, r, err)
		return attendance.History{}, false
	}
	return history, true
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	history, ok := h.historyFor(w, r, user.UserID)
	if !ok {
		return
	}
	api.Success(w, history, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "csv"
	}
	v := shared.NewValidator()
	v.Enum("format", format, []string{"csv", "pdf"}, "must be csv or pdf")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	history, ok := h.historyFor(w, r, user.UserID)
	if !ok {
		return
	}

	var buf bytes.Buffer
	var contentType string
	var err error
	switch format {
	case "pdf":
		contentType = "application/pdf"
		err = attendance.WritePDF(&buf, user.Name, history, h.Service.Location)
	default:
		contentType = "text/csv"
		err = attendance.WriteCSV(&buf, history, h.Service.Location)
	}
	if err != nil {
		slog.Error("attendance export failed", "format", format, "employeeId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "could not render attendance export", middleware.GetRequestID(r.Context()))
		return
	}

	filename := fmt.Sprintf("attendance-%04d-%02d.%s", history.Year, history.Month, format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("attendance export write failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		api.Fail(w, http.StatusConflict, "already_checked_in", "already checked in today", reqID)
	case errors.Is(err, attendance.ErrAlreadyCheckedOut):
		api.Fail(w, http.StatusConflict, "already_checked_out", "already checked out today", reqID)
	case errors.Is(err, attendance.ErrNotCheckedIn):
		api.Fail(w, http.StatusConflict, "not_checked_in", "no check-in recorded today", reqID)
	case errors.Is(err, attendance.ErrInvalidMonth):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "month", Reason: "must be between 1 and 12"}})
	case errors.Is(err, attendance.ErrInvalidYear):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "year", Reason: "must be between 1970 and 9999"}})
	default:
		slog.Error("attendance request failed", "path", r.URL.Path, "requestId", reqID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "attendance operation failed", reqID)
	}
}
