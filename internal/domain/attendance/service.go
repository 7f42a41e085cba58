package attendance

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"hrledger/internal/domain/calendar"
)

type EventRecorder interface {
	RecordEvent(name string)
}

type Service struct {
	Store    Store
	Events   EventRecorder
	Location *time.Location
}

func NewService(store Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{Store: store, Location: loc}
}

func (s *Service) record(name string) {
	if s.Events != nil {
		s.Events.RecordEvent(name)
	}
}

// Day is the calendar day now falls on in the service's location.
func (s *Service) Day(now time.Time) time.Time {
	return calendar.Today(now, s.Location)
}

// CheckIn opens today's record for the employee.
func (s *Service) CheckIn(ctx context.Context, employeeID string, now time.Time, notes string) (Record, error) {
	now = now.UTC()
	day := s.Day(now)
	rec := Record{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Date:       day,
		CheckIn:    &now,
		Notes:      strings.TrimSpace(notes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Store.CheckIn(ctx, rec); err != nil {
		if errors.Is(err, ErrAlreadyCheckedIn) {
			s.record("attendance_check_in_rejected")
		}
		return Record{}, err
	}
	s.record("attendance_checked_in")
	slog.Info("attendance check-in", "employeeId", employeeID, "date", calendar.FormatDate(day))
	return s.Store.GetByDate(ctx, employeeID, day)
}

// CheckOut closes today's record and derives the hours worked.
func (s *Service) CheckOut(ctx context.Context, employeeID string, now time.Time, notes string) (Record, error) {
	now = now.UTC()
	day := s.Day(now)
	rec, err := s.Store.GetByDate(ctx, employeeID, day)
	if errors.Is(err, ErrNotFound) {
		s.record("attendance_check_out_rejected")
		return Record{}, ErrNotCheckedIn
	}
	if err != nil {
		return Record{}, err
	}
	if !rec.CheckedIn() {
		s.record("attendance_check_out_rejected")
		return Record{}, ErrNotCheckedIn
	}
	if rec.CheckedOut() {
		s.record("attendance_check_out_rejected")
		return Record{}, ErrAlreadyCheckedOut
	}

	if n := strings.TrimSpace(notes); n != "" {
		rec.Notes = n
	}
	hours := HoursBetween(*rec.CheckIn, now)
	changed, err := s.Store.SetCheckOut(ctx, rec.ID, now, hours, rec.Notes)
	if err != nil {
		return Record{}, err
	}
	if !changed {
		s.record("attendance_check_out_rejected")
		return Record{}, ErrAlreadyCheckedOut
	}

	s.record("attendance_checked_out")
	slog.Info("attendance check-out", "employeeId", employeeID, "date", calendar.FormatDate(day), "hoursWorked", hours)
	return s.Store.GetByDate(ctx, employeeID, day)
}

func (s *Service) Today(ctx context.Context, employeeID string, now time.Time) (Today, error) {
	rec, err := s.Store.GetByDate(ctx, employeeID, s.Day(now))
	if errors.Is(err, ErrNotFound) {
		return Today{}, nil
	}
	if err != nil {
		return Today{}, err
	}
	return Today{Record: &rec, IsCheckedIn: rec.CheckedIn(), IsCheckedOut: rec.CheckedOut()}, nil
}

// ResolveMonth picks the month a history query covers. Without a month the
// previous calendar month is used; a month without a year means this year.
func (s *Service) ResolveMonth(year, month int, now time.Time) (int, time.Month, error) {
	today := s.Day(now)
	if month == 0 && year == 0 {
		y, m := calendar.PreviousMonth(today)
		return y, m, nil
	}
	if month < 1 || month > 12 {
		return 0, 0, ErrInvalidMonth
	}
	if year == 0 {
		year = today.Year()
	}
	if year < 1970 || year > 9999 {
		return 0, 0, ErrInvalidYear
	}
	return year, time.Month(month), nil
}

// History lists one month of records, newest first, with their totals.
func (s *Service) History(ctx context.Context, employeeID string, year, month int, now time.Time) (History, error) {
	y, m, err := s.ResolveMonth(year, month, now)
	if err != nil {
		return History{}, err
	}
	first, last := calendar.MonthRange(y, m)
	records, err := s.Store.ListRange(ctx, employeeID, first, last)
	if err != nil {
		return History{}, err
	}
	return History{
		Year:       y,
		Month:      int(m),
		Records:    records,
		TotalHours: SumHours(records),
		TotalDays:  len(records),
	}, nil
}

// MonthToDate sums the employee's hours and present days since the first of
// the current month.
func (s *Service) MonthToDate(ctx context.Context, employeeID string, now time.Time) (MonthToDate, error) {
	today := s.Day(now)
	records, err := s.Store.ListRange(ctx, employeeID, calendar.StartOfMonth(today), today)
	if err != nil {
		return MonthToDate{}, err
	}
	return MonthToDate{TotalHours: SumHours(records), PresentDays: CountPresent(records)}, nil
}

// PresentBetween counts present employee-days across all employees.
func (s *Service) PresentBetween(ctx context.Context, from, to time.Time) (int, error) {
	return s.Store.CountPresent(ctx, calendar.DateOf(from), calendar.DateOf(to))
}
