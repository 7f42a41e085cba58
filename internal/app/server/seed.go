package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"hrledger/internal/domain/attendance"
	"hrledger/internal/domain/calendar"
	"hrledger/internal/domain/employee"
	"hrledger/internal/domain/leave"
	"hrledger/internal/platform/config"
)

type sampleEmployee struct {
	name    string
	email   string
	balance int
}

var sampleEmployees = []sampleEmployee{
	{name: "John Doe", email: "john.doe@company.com", balance: 20},
	{name: "Jane Smith", email: "jane.smith@company.com", balance: 18},
	{name: "Mike Johnson", email: "mike.johnson@company.com", balance: 22},
	{name: "Sarah Wilson", email: "sarah.wilson@company.com", balance: 15},
	{name: "David Brown", email: "david.brown@company.com", balance: 20},
}

const (
	sampleAttendanceEmployees = 3
	sampleAttendanceDays      = 10
)

// Seed makes sure the configured admin exists and, when sample data is
// enabled, registers a handful of employees with some attendance history and
// one pending leave request. Running it again changes nothing.
func Seed(ctx context.Context, svc Services, cfg config.Config, now time.Time) error {
	admin, created, err := svc.Employees.Ensure(ctx, employee.RegisterInput{
		Name:  cfg.SeedAdminName,
		Email: cfg.SeedAdminEmail,
		Role:  employee.RoleAdmin,
	}, now)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		slog.Info("seeded admin", "employeeId", admin.ID, "email", admin.Email)
	}

	if !cfg.SeedSampleEmployees {
		return nil
	}

	loc := cfg.Location()
	today := calendar.Today(now, loc)
	for i, sample := range sampleEmployees {
		balance := sample.balance
		e, created, err := svc.Employees.Ensure(ctx, employee.RegisterInput{
			Name:         sample.name,
			Email:        sample.email,
			Role:         employee.RoleEmployee,
			LeaveBalance: &balance,
		}, now)
		if err != nil {
			return fmt.Errorf("seed employee %s: %w", sample.email, err)
		}
		if !created {
			continue
		}
		slog.Info("seeded employee", "employeeId", e.ID, "email", e.Email)

		if i < sampleAttendanceEmployees {
			if err := seedAttendance(ctx, svc.Attendance, e.ID, today, loc, now); err != nil {
				return fmt.Errorf("seed attendance %s: %w", sample.email, err)
			}
		}
		if i == 1 {
			if err := seedPendingLeave(ctx, svc.Leaves, e.ID, today); err != nil {
				return fmt.Errorf("seed leave %s: %w", sample.email, err)
			}
		}
	}
	return nil
}

// seedAttendance fills past weekdays among the first days of this month with
// a 09:00 to 17:00 record.
func seedAttendance(ctx context.Context, svc *attendance.Service, employeeID string, today time.Time, loc *time.Location, now time.Time) error {
	first := calendar.StartOfMonth(today)
	for offset := 0; offset < sampleAttendanceDays; offset++ {
		day := first.AddDate(0, 0, offset)
		if !day.Before(today) {
			break
		}
		if calendar.IsWeekend(day) {
			continue
		}
		in := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, loc).UTC()
		out := time.Date(day.Year(), day.Month(), day.Day(), 17, 0, 0, 0, loc).UTC()
		rec := attendance.Record{
			ID:          uuid.NewString(),
			EmployeeID:  employeeID,
			Date:        day,
			CheckIn:     &in,
			CheckOut:    &out,
			HoursWorked: attendance.HoursBetween(in, out),
			IsPresent:   true,
			CreatedAt:   now.UTC(),
			UpdatedAt:   now.UTC(),
		}
		if err := svc.Store.Insert(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// seedPendingLeave files a two day vacation starting the Monday after next.
func seedPendingLeave(ctx context.Context, svc *leave.Service, employeeID string, today time.Time) error {
	start := today.AddDate(0, 0, 7)
	for start.Weekday() != time.Monday {
		start = start.AddDate(0, 0, 1)
	}
	_, err := svc.Apply(ctx, employeeID, leave.ApplyInput{
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 1),
		LeaveType: leave.TypeVacation,
		Reason:    "Family vacation",
	}, today)
	return err
}
