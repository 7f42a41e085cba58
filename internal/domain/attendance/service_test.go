package attendance

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrledger/internal/domain/employee"
	"hrledger/internal/platform/db"
)

type fixture struct {
	svc       *Service
	employees *employee.Service
}

func newFixture(t *testing.T, loc *time.Location) *fixture {
	t.Helper()
	bdb, err := db.OpenTestSQLite(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bdb.Close() })

	return &fixture{
		svc:       NewService(NewBunStore(bdb), loc),
		employees: employee.NewService(employee.NewBunStore(bdb), 20, 25),
	}
}

func (f *fixture) employee(t *testing.T, name string, role employee.Role) employee.Employee {
	t.Helper()
	e, err := f.employees.Register(context.Background(), employee.RegisterInput{
		Name:  name,
		Email: name + "@company.com",
		Role:  role,
	}, time.Now())
	require.NoError(t, err)
	return e
}

func at(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func (f *fixture) seed(t *testing.T, employeeID, day string, hours float64, present bool) {
	t.Helper()
	date, err := time.Parse("2006-01-02", day)
	require.NoError(t, err)
	in := date.Add(9 * time.Hour)
	rec := Record{
		ID:          employeeID + day,
		EmployeeID:  employeeID,
		Date:        date,
		CheckIn:     &in,
		HoursWorked: hours,
		IsPresent:   present,
		CreatedAt:   in,
		UpdatedAt:   in,
	}
	if present {
		out := in.Add(time.Duration(hours * float64(time.Hour)))
		rec.CheckOut = &out
	}
	require.NoError(t, f.svc.Store.Insert(context.Background(), rec))
}

func TestCheckInCheckOut(t *testing.T) {
	f := newFixture(t, time.UTC)
	ctx := context.Background()
	emp := f.employee(t, "john", employee.RoleEmployee)

	rec, err := f.svc.CheckIn(ctx, emp.ID, at("2024-02-19T09:00:00Z"), "  office  ")
	require.NoError(t, err)
	assert.True(t, rec.CheckedIn())
	assert.False(t, rec.CheckedOut())
	assert.False(t, rec.IsPresent)
	assert.Equal(t, "office", rec.Notes)
	assert.Equal(t, "2024-02-19", rec.Date.Format("2006-01-02"))

	_, err = f.svc.CheckIn(ctx, emp.ID, at("2024-02-19T10:00:00Z"), "")
	require.ErrorIs(t, err, ErrAlreadyCheckedIn)

	rec, err = f.svc.CheckOut(ctx, emp.ID, at("2024-02-19T17:00:00Z"), "")
	require.NoError(t, err)
	assert.Equal(t, 8.0, rec.HoursWorked)
	assert.True(t, rec.IsPresent)
	assert.True(t, rec.CheckedOut())
	assert.Equal(t, "office", rec.Notes)

	_, err = f.svc.CheckOut(ctx, emp.ID, at("2024-02-19T18:00:00Z"), "")
	require.ErrorIs(t, err, ErrAlreadyCheckedOut)

	_, err = f.svc.CheckIn(ctx, emp.ID, at("2024-02-19T19:00:00Z"), "")
	require.ErrorIs(t, err, ErrAlreadyCheckedIn)

	// A new day starts a new record.
	_, err = f.svc.CheckIn(ctx, emp.ID, at("2024-02-20T09:00:00Z"), "")
	require.NoError(t, err)
}

func TestCheckOutWithoutCheckIn(t *testing.T) {
	f := newFixture(t, time.UTC)
	emp := f.employee(t, "jane", employee.RoleEmployee)

	_, err := f.svc.CheckOut(context.Background(), emp.ID, at("2024-02-19T17:00:00Z"), "")
	require.ErrorIs(t, err, ErrNotCheckedIn)
}

func TestCheckInFollowsConfiguredZone(t *testing.T) {
	f := newFixture(t, time.FixedZone("AEST", 10*60*60))
	emp := f.employee(t, "mike", employee.RoleEmployee)

	rec, err := f.svc.CheckIn(context.Background(), emp.ID, at("2024-02-19T20:00:00Z"), "")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-20", rec.Date.Format("2006-01-02"))
}

func TestConcurrentCheckInCreatesOneRecord(t *testing.T) {
	f := newFixture(t, time.UTC)
	emp := f.employee(t, "sarah", employee.RoleEmployee)
	now := at("2024-02-19T09:00:00Z")

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, rejected := 0, 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CheckIn(context.Background(), emp.ID, now, "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, ErrAlreadyCheckedIn):
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 4, rejected)
}

func TestToday(t *testing.T) {
	f := newFixture(t, time.UTC)
	ctx := context.Background()
	emp := f.employee(t, "david", employee.RoleEmployee)
	now := at("2024-02-19T12:00:00Z")

	today, err := f.svc.Today(ctx, emp.ID, now)
	require.NoError(t, err)
	assert.Nil(t, today.Record)
	assert.False(t, today.IsCheckedIn)

	_, err = f.svc.CheckIn(ctx, emp.ID, now, "")
	require.NoError(t, err)

	today, err = f.svc.Today(ctx, emp.ID, now)
	require.NoError(t, err)
	require.NotNil(t, today.Record)
	assert.True(t, today.IsCheckedIn)
	assert.False(t, today.IsCheckedOut)
}

func TestHistoryDefaultsToPreviousMonth(t *testing.T) {
	f := newFixture(t, time.UTC)
	ctx := context.Background()
	emp := f.employee(t, "john", employee.RoleEmployee)

	f.seed(t, emp.ID, "2024-01-02", 8, true)
	f.seed(t, emp.ID, "2024-01-15", 7.5, true)
	f.seed(t, emp.ID, "2024-01-31", 0.25, true)
	f.seed(t, emp.ID, "2024-02-01", 8, true)
	f.seed(t, emp.ID, "2023-12-29", 8, true)

	h, err := f.svc.History(ctx, emp.ID, 0, 0, at("2024-02-10T12:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, 2024, h.Year)
	assert.Equal(t, 1, h.Month)
	require.Len(t, h.Records, 3)
	assert.Equal(t, "2024-01-31", h.Records[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2024-01-02", h.Records[2].Date.Format("2006-01-02"))
	assert.Equal(t, 15.75, h.TotalHours)
	assert.Equal(t, 3, h.TotalDays)

	h, err = f.svc.History(ctx, emp.ID, 2023, 12, at("2024-02-10T12:00:00Z"))
	require.NoError(t, err)
	assert.Len(t, h.Records, 1)

	h, err = f.svc.History(ctx, emp.ID, 0, 0, at("2024-01-10T12:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, 2023, h.Year)
	assert.Equal(t, 12, h.Month)

	_, err = f.svc.History(ctx, emp.ID, 2024, 13, at("2024-02-10T12:00:00Z"))
	require.ErrorIs(t, err, ErrInvalidMonth)
}

func TestMonthToDateAndPresentCount(t *testing.T) {
	f := newFixture(t, time.UTC)
	ctx := context.Background()
	emp := f.employee(t, "jane", employee.RoleEmployee)
	admin := f.employee(t, "boss", employee.RoleAdmin)

	f.seed(t, emp.ID, "2024-01-31", 8, true)
	f.seed(t, emp.ID, "2024-02-01", 8, true)
	f.seed(t, emp.ID, "2024-02-02", 4.5, true)
	f.seed(t, emp.ID, "2024-02-05", 0, false)
	f.seed(t, admin.ID, "2024-02-01", 8, true)

	mtd, err := f.svc.MonthToDate(ctx, emp.ID, at("2024-02-05T12:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, 12.5, mtd.TotalHours)
	assert.Equal(t, 2, mtd.PresentDays)

	present, err := f.svc.PresentBetween(ctx, at("2024-02-01T00:00:00Z"), at("2024-02-05T00:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, 2, present)
}

func TestExports(t *testing.T) {
	in := at("2024-01-15T09:00:00Z")
	out := at("2024-01-15T17:30:00Z")
	h := History{
		Year:  2024,
		Month: 1,
		Records: []Record{
			{Date: at("2024-01-15T00:00:00Z"), CheckIn: &in, CheckOut: &out, HoursWorked: 8.5, IsPresent: true, Notes: "on site"},
		},
		TotalHours: 8.5,
		TotalDays:  1,
	}

	var csvBuf bytes.Buffer
	require.NoError(t, WriteCSV(&csvBuf, h, time.UTC))
	lines := strings.Split(strings.TrimSpace(csvBuf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,check_in,check_out,hours_worked,present,notes", lines[0])
	assert.Equal(t, "2024-01-15,09:00,17:30,8.50,true,on site", lines[1])
	assert.Equal(t, "total,,,8.50,1,", lines[2])

	var pdfBuf bytes.Buffer
	require.NoError(t, WritePDF(&pdfBuf, "John Doe", h, time.UTC))
	assert.True(t, bytes.HasPrefix(pdfBuf.Bytes(), []byte("%PDF")))
}
