package attendance

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"hrledger/internal/domain/calendar"
	"hrledger/internal/platform/sqlerr"
)

type recordModel struct {
	bun.BaseModel `bun:"table:attendance_records,alias:ar"`

	ID          string     `bun:"id,pk"`
	EmployeeID  string     `bun:"employee_id"`
	Date        string     `bun:"date"`
	CheckIn     *time.Time `bun:"check_in"`
	CheckOut    *time.Time `bun:"check_out"`
	HoursWorked float64    `bun:"hours_worked"`
	IsPresent   bool       `bun:"is_present"`
	Notes       string     `bun:"notes"`
	CreatedAt   time.Time  `bun:"created_at"`
	UpdatedAt   time.Time  `bun:"updated_at"`
}

func toModel(r Record) recordModel {
	return recordModel{
		ID:          r.ID,
		EmployeeID:  r.EmployeeID,
		Date:        calendar.FormatDate(r.Date),
		CheckIn:     r.CheckIn,
		CheckOut:    r.CheckOut,
		HoursWorked: r.HoursWorked,
		IsPresent:   r.IsPresent,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (m recordModel) toRecord() (Record, error) {
	date, err := calendar.ParseDate(m.Date)
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:          m.ID,
		EmployeeID:  m.EmployeeID,
		Date:        date,
		CheckIn:     utcPtr(m.CheckIn),
		CheckOut:    utcPtr(m.CheckOut),
		HoursWorked: m.HoursWorked,
		IsPresent:   m.IsPresent,
		Notes:       m.Notes,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}

// BunStore keeps attendance in the embedded SQLite database.
type BunStore struct {
	DB bun.IDB
}

func NewBunStore(db bun.IDB) *BunStore {
	return &BunStore{DB: db}
}

func (s *BunStore) CheckIn(ctx context.Context, rec Record) error {
	res, err := s.DB.ExecContext(ctx, `
    INSERT INTO attendance_records (id, employee_id, date, check_in, notes, created_at, updated_at)
    VALUES (?, ?, ?, ?, ?, ?, ?)
    ON CONFLICT (employee_id, date) DO UPDATE
    SET check_in = excluded.check_in, notes = excluded.notes, updated_at = excluded.updated_at
    WHERE attendance_records.check_in IS NULL
  `, rec.ID, rec.EmployeeID, calendar.FormatDate(rec.Date), rec.CheckIn, rec.Notes, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyCheckedIn
	}
	return nil
}

func (s *BunStore) GetByDate(ctx context.Context, employeeID string, date time.Time) (Record, error) {
	var m recordModel
	err := s.DB.NewSelect().
		Model(&m).
		Where("ar.employee_id = ?", employeeID).
		Where("ar.date = ?", calendar.FormatDate(date)).
		Limit(1).
		Scan(ctx)
	if sqlerr.IsNoRows(err) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return m.toRecord()
}

func (s *BunStore) SetCheckOut(ctx context.Context, id string, at time.Time, hours float64, notes string) (bool, error) {
	res, err := s.DB.NewUpdate().
		Model((*recordModel)(nil)).
		Set("check_out = ?", at).
		Set("hours_worked = ?", hours).
		Set("is_present = ?", true).
		Set("notes = ?", notes).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Where("check_in IS NOT NULL").
		Where("check_out IS NULL").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (s *BunStore) ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error) {
	var models []recordModel
	err := s.DB.NewSelect().
		Model(&models).
		Where("ar.employee_id = ?", employeeID).
		Where("ar.date >= ?", calendar.FormatDate(from)).
		Where("ar.date <= ?", calendar.FormatDate(to)).
		OrderExpr("ar.date DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(models))
	for _, m := range models {
		r, err := m.toRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *BunStore) CountPresent(ctx context.Context, from, to time.Time) (int, error) {
	return s.DB.NewSelect().
		Model((*recordModel)(nil)).
		Join("JOIN employees AS e ON e.id = ar.employee_id").
		Where("e.role = ?", "employee").
		Where("ar.is_present = ?", true).
		Where("ar.date >= ?", calendar.FormatDate(from)).
		Where("ar.date <= ?", calendar.FormatDate(to)).
		Count(ctx)
}

func (s *BunStore) Insert(ctx context.Context, rec Record) error {
	m := toModel(rec)
	_, err := s.DB.NewInsert().Model(&m).On("CONFLICT (employee_id, date) DO NOTHING").Exec(ctx)
	return err
}
