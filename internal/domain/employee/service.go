package employee

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	Store          Store
	DefaultBalance int
	AdminBalance   int
}

func NewService(store Store, defaultBalance, adminBalance int) *Service {
	return &Service{Store: store, DefaultBalance: defaultBalance, AdminBalance: adminBalance}
}

// Register creates an employee with the allowance for its role unless the
// caller supplies one explicitly.
func (s *Service) Register(ctx context.Context, in RegisterInput, now time.Time) (Employee, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Employee{}, ErrInvalidName
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return Employee{}, ErrInvalidEmail
	}
	role := in.Role
	if role == "" {
		role = RoleEmployee
	}
	if !role.Valid() {
		return Employee{}, ErrInvalidRole
	}

	balance := s.DefaultBalance
	if role == RoleAdmin {
		balance = s.AdminBalance
	}
	if in.LeaveBalance != nil {
		if *in.LeaveBalance < 0 {
			return Employee{}, ErrNegativeBalance
		}
		balance = *in.LeaveBalance
	}

	now = now.UTC()
	e := Employee{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Role:         role,
		LeaveBalance: balance,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Create(ctx, e); err != nil {
		return Employee{}, err
	}
	slog.Info("employee registered", "employeeId", e.ID, "role", e.Role, "leaveBalance", e.LeaveBalance)
	return e, nil
}

// Ensure registers the employee only when the email is unknown.
func (s *Service) Ensure(ctx context.Context, in RegisterInput, now time.Time) (Employee, bool, error) {
	existing, err := s.Store.GetByEmail(ctx, strings.TrimSpace(in.Email))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Employee{}, false, err
	}
	created, err := s.Register(ctx, in, now)
	if err != nil {
		return Employee{}, false, err
	}
	return created, true, nil
}

func (s *Service) Get(ctx context.Context, id string) (Employee, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, role Role) ([]Employee, error) {
	if role != "" && !role.Valid() {
		return nil, ErrInvalidRole
	}
	return s.Store.List(ctx, role)
}
