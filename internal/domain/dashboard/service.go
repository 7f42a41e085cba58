// Package dashboard builds the read-only admin and employee summaries. It
// owns no state; every figure is derived from the ledgers at request time.
package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"hrledger/internal/domain/attendance"
	"hrledger/internal/domain/calendar"
	"hrledger/internal/domain/employee"
	"hrledger/internal/domain/leave"
)

type Service struct {
	Employees  employee.Store
	Leaves     leave.Store
	Attendance attendance.Store
	Location   *time.Location
}

func NewService(employees employee.Store, leaves leave.Store, att attendance.Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{Employees: employees, Leaves: leaves, Attendance: att, Location: loc}
}

// Admin summarises headcount, pending work and attendance across role
// employee accounts.
func (s *Service) Admin(ctx context.Context, now time.Time) (AdminSummary, error) {
	today := calendar.Today(now, s.Location)
	monthStart := calendar.StartOfMonth(today)
	workingDays, err := calendar.WorkingDays(monthStart, today)
	if err != nil {
		return AdminSummary{}, err
	}

	var (
		total, pending, presentToday, presentMonth int
		recent                                     []leave.Request
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.Employees.Count(gctx, employee.RoleEmployee)
		return err
	})
	g.Go(func() error {
		var err error
		pending, err = s.Leaves.Count(gctx, leave.ListFilter{Status: leave.StatusPending})
		return err
	})
	g.Go(func() error {
		var err error
		presentToday, err = s.Attendance.CountPresent(gctx, today, today)
		return err
	})
	g.Go(func() error {
		var err error
		presentMonth, err = s.Attendance.CountPresent(gctx, monthStart, today)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.Leaves.List(gctx, leave.ListFilter{Status: leave.StatusPending, Limit: RecentPendingLimit, Expand: true})
		return err
	})
	if err := g.Wait(); err != nil {
		return AdminSummary{}, err
	}

	return AdminSummary{
		TotalEmployees: total,
		PendingLeaves:  pending,
		TodayAttendance: TodayCounts{
			Present: presentToday,
			Absent:  absent(total, presentToday),
			Total:   total,
		},
		MonthlyStats: AdminMonthly{
			AverageAttendance: AverageAttendance(presentMonth, total, workingDays),
			TotalWorkingDays:  workingDays,
		},
		RecentLeaves: recent,
	}, nil
}

// Employee summarises one account: profile, leave usage this year, today's
// attendance and the month so far.
func (s *Service) Employee(ctx context.Context, employeeID string, now time.Time) (EmployeeSummary, error) {
	today := calendar.Today(now, s.Location)
	monthStart := calendar.StartOfMonth(today)
	workingDays, err := calendar.WorkingDays(monthStart, today)
	if err != nil {
		return EmployeeSummary{}, err
	}

	var (
		emp     employee.Employee
		used    int
		pending int
		month   []attendance.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		emp, err = s.Employees.Get(gctx, employeeID)
		return err
	})
	g.Go(func() error {
		var err error
		used, err = s.Leaves.UsedDays(gctx, employeeID, calendar.StartOfYear(today))
		return err
	})
	g.Go(func() error {
		var err error
		pending, err = s.Leaves.Count(gctx, leave.ListFilter{EmployeeID: employeeID, Status: leave.StatusPending})
		return err
	})
	g.Go(func() error {
		var err error
		month, err = s.Attendance.ListRange(gctx, employeeID, monthStart, today)
		return err
	})
	if err := g.Wait(); err != nil {
		return EmployeeSummary{}, err
	}

	summary := EmployeeSummary{
		User: Profile{
			Name:               emp.Name,
			Email:              emp.Email,
			LeaveBalance:       emp.LeaveBalance,
			TotalLeaveDaysUsed: used,
		},
		MonthlyStats: EmployeeMonthly{
			TotalHours:       attendance.SumHours(month),
			PresentDays:      attendance.CountPresent(month),
			TotalWorkingDays: workingDays,
		},
		PendingLeaves: pending,
	}
	for _, rec := range month {
		if rec.Date.Equal(today) {
			summary.TodayAttendance = TodayStatus{
				IsCheckedIn:  rec.CheckedIn(),
				IsCheckedOut: rec.CheckedOut(),
				CheckIn:      rec.CheckIn,
				CheckOut:     rec.CheckOut,
				HoursWorked:  rec.HoursWorked,
			}
			break
		}
	}
	return summary, nil
}
