package employee

import (
	"context"

	"hrledger/internal/platform/querier"
	"hrledger/internal/platform/sqlerr"
)

type PGStore struct {
	DB querier.Querier
}

func NewPGStore(db querier.Querier) *PGStore {
	return &PGStore{DB: db}
}

const employeeColumns = "id, name, email, role, leave_balance, created_at, updated_at"

func (s *PGStore) Create(ctx context.Context, e Employee) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO employees (id, name, email, role, leave_balance, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, e.ID, e.Name, e.Email, string(e.Role), e.LeaveBalance, e.CreatedAt, e.UpdatedAt)
	if sqlerr.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (s *PGStore) Get(ctx context.Context, id string) (Employee, error) {
	return s.scanOne(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = $1", id)
}

func (s *PGStore) GetByEmail(ctx context.Context, email string) (Employee, error) {
	return s.scanOne(ctx, "SELECT "+employeeColumns+" FROM employees WHERE lower(email) = lower($1)", email)
}

func (s *PGStore) scanOne(ctx context.Context, query string, arg string) (Employee, error) {
	var e Employee
	var role string
	err := s.DB.QueryRow(ctx, query, arg).Scan(&e.ID, &e.Name, &e.Email, &role, &e.LeaveBalance, &e.CreatedAt, &e.UpdatedAt)
	if sqlerr.IsNoRows(err) {
		return Employee{}, ErrNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	e.Role = Role(role)
	return e, nil
}

func (s *PGStore) List(ctx context.Context, role Role) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE ($1 = '' OR role = $1)
    ORDER BY name, email
  `, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var e Employee
		var r string
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &r, &e.LeaveBalance, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Role = Role(r)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PGStore) Count(ctx context.Context, role Role) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE ($1 = '' OR role = $1)", string(role)).Scan(&count)
	return count, err
}
