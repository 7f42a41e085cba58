package leave

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"hrledger/internal/domain/calendar"
	"hrledger/internal/domain/employee"
)

// Notifier is told about every approve or reject decision.
type Notifier interface {
	LeaveDecided(ctx context.Context, req Request) error
}

type EventRecorder interface {
	RecordEvent(name string)
}

type Service struct {
	Store          Store
	Notifier       Notifier
	Events         EventRecorder
	ReservePending bool
	Now            func() time.Time
}

func NewService(store Store) *Service {
	return &Service{Store: store, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *Service) record(name string) {
	if s.Events != nil {
		s.Events.RecordEvent(name)
	}
}

// Apply files a pending request. Nothing is debited until approval; the
// balance and overlap checks run under the employee row lock so two
// applications from the same employee cannot both pass them.
func (s *Service) Apply(ctx context.Context, employeeID string, in ApplyInput, today time.Time) (Request, error) {
	start := calendar.DateOf(in.StartDate)
	end := calendar.DateOf(in.EndDate)
	today = calendar.DateOf(today)

	if start.Before(today) {
		return Request{}, &ValidationError{Field: "startDate", Reason: ReasonPastDate}
	}
	if end.Before(start) {
		return Request{}, &ValidationError{Field: "endDate", Reason: ReasonInvertedDate}
	}
	if !in.LeaveType.Valid() {
		return Request{}, &ValidationError{Field: "leaveType", Reason: ReasonInvalidType}
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return Request{}, &ValidationError{Field: "reason", Reason: ReasonRequired}
	}

	cost, err := calendar.WorkingDays(start, end)
	if err != nil {
		return Request{}, err
	}

	var created Request
	err = s.Store.RunInTx(ctx, func(ctx context.Context, tx TxStore) error {
		available, err := availableBalance(ctx, tx, employeeID, s.ReservePending)
		if err != nil {
			return err
		}
		if available < cost {
			return &InsufficientBalanceError{Required: cost, Available: available}
		}

		overlap, err := tx.HasOverlap(ctx, employeeID, start, end)
		if err != nil {
			return err
		}
		if overlap {
			return ErrOverlap
		}

		now := s.now()
		req := Request{
			ID:        uuid.NewString(),
			Employee:  employee.RefID(employeeID),
			StartDate: start,
			EndDate:   end,
			Days:      cost,
			LeaveType: in.LeaveType,
			Reason:    reason,
			Status:    StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Insert(ctx, req); err != nil {
			return err
		}
		created = req
		return nil
	})
	if err != nil {
		s.record("leave_apply_rejected")
		return Request{}, err
	}

	s.record("leave_applied")
	slog.Info("leave applied", "leaveId", created.ID, "employeeId", employeeID, "days", cost)
	return created, nil
}

// ListMine returns the employee's own requests, newest first.
func (s *Service) ListMine(ctx context.Context, employeeID string, status Status, page Page) ([]Request, error) {
	if status != "" && !status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: ReasonInvalidState}
	}
	return s.Store.List(ctx, ListFilter{EmployeeID: employeeID, Status: status, Limit: page.Limit, Offset: page.Offset})
}

// ListAll is the administrative listing with employee details resolved.
func (s *Service) ListAll(ctx context.Context, status Status, employeeID string, page Page) ([]Request, error) {
	if status != "" && !status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: ReasonInvalidState}
	}
	return s.Store.List(ctx, ListFilter{EmployeeID: employeeID, Status: status, Limit: page.Limit, Offset: page.Offset, Expand: true})
}

func (s *Service) Get(ctx context.Context, id string) (Request, error) {
	return s.Store.Get(ctx, id)
}

// Approve re-checks the employee's current balance and commits the debit
// together with the status change.
func (s *Service) Approve(ctx context.Context, leaveID, approverID string, now time.Time) (Decision, error) {
	var remaining int
	err := s.Store.RunInTx(ctx, func(ctx context.Context, tx TxStore) error {
		req, err := tx.GetForUpdate(ctx, leaveID)
		if err != nil {
			return err
		}
		remaining, err = commitApproval(ctx, tx, req, approverID, now.UTC())
		return err
	})
	if err != nil {
		s.record("leave_approve_failed")
		return Decision{}, err
	}
	s.record("leave_approved")
	slog.Info("leave approved", "leaveId", leaveID, "approvedBy", approverID, "remainingBalance", remaining)
	return s.decided(ctx, leaveID, remaining)
}

// Reject closes a pending request without touching the balance. The
// employee row is never locked, so a rejection does not wait on approvals
// for the same employee.
func (s *Service) Reject(ctx context.Context, leaveID, approverID, reason string, now time.Time) (Decision, error) {
	var employeeID string
	err := s.Store.RunInTx(ctx, func(ctx context.Context, tx TxStore) error {
		req, err := tx.GetForUpdate(ctx, leaveID)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return ErrAlreadyProcessed
		}
		changed, err := tx.MarkRejected(ctx, leaveID, approverID, strings.TrimSpace(reason), now.UTC())
		if err != nil {
			return err
		}
		if !changed {
			return ErrAlreadyProcessed
		}
		employeeID = req.Employee.ID
		return nil
	})
	if err != nil {
		s.record("leave_reject_failed")
		return Decision{}, err
	}
	s.record("leave_rejected")
	slog.Info("leave rejected", "leaveId", leaveID, "rejectedBy", approverID)
	remaining, err := s.Store.Balance(ctx, employeeID)
	if err != nil {
		return Decision{}, err
	}
	return s.decided(ctx, leaveID, remaining)
}

func (s *Service) decided(ctx context.Context, leaveID string, remaining int) (Decision, error) {
	req, err := s.Store.Get(ctx, leaveID)
	if err != nil {
		return Decision{}, err
	}
	if s.Notifier != nil {
		if err := s.Notifier.LeaveDecided(ctx, req); err != nil {
			slog.Warn("leave decision notification failed", "leaveId", leaveID, "err", err)
		}
	}
	return Decision{Request: req, RemainingBalance: remaining}, nil
}

// UsedDays sums the working days of approved leave starting on or after since.
func (s *Service) UsedDays(ctx context.Context, employeeID string, since time.Time) (int, error) {
	return s.Store.UsedDays(ctx, employeeID, calendar.DateOf(since))
}
