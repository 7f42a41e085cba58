package employee

import (
	"context"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"hrledger/internal/platform/sqlerr"
)

type employeeModel struct {
	bun.BaseModel `bun:"table:employees"`

	ID           string    `bun:"id,pk"`
	Name         string    `bun:"name"`
	Email        string    `bun:"email"`
	Role         string    `bun:"role"`
	LeaveBalance int       `bun:"leave_balance"`
	CreatedAt    time.Time `bun:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at"`
}

func (m employeeModel) toEmployee() Employee {
	return Employee{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		Role:         Role(m.Role),
		LeaveBalance: m.LeaveBalance,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

// BunStore keeps employees in the embedded SQLite database.
type BunStore struct {
	DB bun.IDB
}

func NewBunStore(db bun.IDB) *BunStore {
	return &BunStore{DB: db}
}

func (s *BunStore) Create(ctx context.Context, e Employee) error {
	m := &employeeModel{
		ID:           e.ID,
		Name:         e.Name,
		Email:        e.Email,
		Role:         string(e.Role),
		LeaveBalance: e.LeaveBalance,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
	_, err := s.DB.NewInsert().Model(m).Exec(ctx)
	if sqlerr.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (s *BunStore) Get(ctx context.Context, id string) (Employee, error) {
	var m employeeModel
	err := s.DB.NewSelect().Model(&m).Where("id = ?", id).Limit(1).Scan(ctx)
	if sqlerr.IsNoRows(err) {
		return Employee{}, ErrNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	return m.toEmployee(), nil
}

func (s *BunStore) GetByEmail(ctx context.Context, email string) (Employee, error) {
	var m employeeModel
	err := s.DB.NewSelect().Model(&m).Where("lower(email) = ?", strings.ToLower(email)).Limit(1).Scan(ctx)
	if sqlerr.IsNoRows(err) {
		return Employee{}, ErrNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	return m.toEmployee(), nil
}

func (s *BunStore) List(ctx context.Context, role Role) ([]Employee, error) {
	var models []employeeModel
	q := s.DB.NewSelect().Model(&models).OrderExpr("name, email")
	if role != "" {
		q = q.Where("role = ?", string(role))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]Employee, 0, len(models))
	for _, m := range models {
		out = append(out, m.toEmployee())
	}
	return out, nil
}

func (s *BunStore) Count(ctx context.Context, role Role) (int, error) {
	q := s.DB.NewSelect().Model((*employeeModel)(nil))
	if role != "" {
		q = q.Where("role = ?", string(role))
	}
	return q.Count(ctx)
}
