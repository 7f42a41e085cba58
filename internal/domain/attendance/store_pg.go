package attendance

import (
	"context"
	"time"

	"hrledger/internal/platform/querier"
	"hrledger/internal/platform/sqlerr"
)

type PGStore struct {
	DB querier.Querier
}

func NewPGStore(db querier.Querier) *PGStore {
	return &PGStore{DB: db}
}

const recordColumns = "id, employee_id, date, check_in, check_out, hours_worked, is_present, notes, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var r Record
	if err := row.Scan(&r.ID, &r.EmployeeID, &r.Date, &r.CheckIn, &r.CheckOut, &r.HoursWorked, &r.IsPresent, &r.Notes, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return Record{}, err
	}
	return r, nil
}

func (s *PGStore) CheckIn(ctx context.Context, rec Record) error {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO attendance_records (id, employee_id, date, check_in, notes, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    ON CONFLICT (employee_id, date) DO UPDATE
    SET check_in = EXCLUDED.check_in, notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at
    WHERE attendance_records.check_in IS NULL
  `, rec.ID, rec.EmployeeID, rec.Date, rec.CheckIn, rec.Notes, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyCheckedIn
	}
	return nil
}

func (s *PGStore) GetByDate(ctx context.Context, employeeID string, date time.Time) (Record, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+recordColumns+" FROM attendance_records WHERE employee_id = $1 AND date = $2", employeeID, date)
	r, err := scanRecord(row)
	if sqlerr.IsNoRows(err) {
		return Record{}, ErrNotFound
	}
	return r, err
}

func (s *PGStore) SetCheckOut(ctx context.Context, id string, at time.Time, hours float64, notes string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE attendance_records
    SET check_out = $2, hours_worked = $3, is_present = true, notes = $4, updated_at = $2
    WHERE id = $1 AND check_in IS NOT NULL AND check_out IS NULL
  `, id, at, hours, notes)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM attendance_records
    WHERE employee_id = $1 AND date >= $2 AND date <= $3
    ORDER BY date DESC
  `, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PGStore) CountPresent(ctx context.Context, from, to time.Time) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM attendance_records ar
    JOIN employees e ON e.id = ar.employee_id
    WHERE e.role = 'employee' AND ar.is_present AND ar.date >= $1 AND ar.date <= $2
  `, from, to).Scan(&count)
	return count, err
}

func (s *PGStore) Insert(ctx context.Context, rec Record) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO attendance_records (`+recordColumns+`)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    ON CONFLICT (employee_id, date) DO NOTHING
  `, rec.ID, rec.EmployeeID, rec.Date, rec.CheckIn, rec.CheckOut, rec.HoursWorked, rec.IsPresent, rec.Notes, rec.CreatedAt, rec.UpdatedAt)
	return err
}
