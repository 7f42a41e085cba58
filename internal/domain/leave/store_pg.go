package leave

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"hrledger/internal/domain/employee"
	"hrledger/internal/platform/querier"
	"hrledger/internal/platform/sqlerr"
)

type PGStore struct {
	DB querier.TxBeginner
}

func NewPGStore(db querier.TxBeginner) *PGStore {
	return &PGStore{DB: db}
}

const requestColumns = `lr.id, lr.employee_id, e.name, e.email, lr.start_date, lr.end_date, lr.days, lr.leave_type,
    lr.reason, lr.status, lr.approved_by, lr.approved_at, lr.rejected_at, lr.rejection_reason, lr.created_at, lr.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner, expand bool) (Request, error) {
	var r Request
	var employeeID, name, email, leaveType, status string
	if err := row.Scan(&r.ID, &employeeID, &name, &email, &r.StartDate, &r.EndDate, &r.Days, &leaveType,
		&r.Reason, &status, &r.ApprovedBy, &r.ApprovedAt, &r.RejectedAt, &r.RejectionReason, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return Request{}, err
	}
	r.LeaveType = Type(leaveType)
	r.Status = Status(status)
	if expand {
		r.Employee = employee.Expanded(employee.Summary{ID: employeeID, Name: name, Email: email})
	} else {
		r.Employee = employee.RefID(employeeID)
	}
	return r, nil
}

func (s *PGStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	if err := fn(ctx, &pgTx{q: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			slog.Warn("leave tx rollback failed", "err", rbErr)
		}
		return err
	}
	return tx.Commit(ctx)
}

func (s *PGStore) Get(ctx context.Context, id string) (Request, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests lr
    JOIN employees e ON e.id = lr.employee_id
    WHERE lr.id = $1
  `, id)
	r, err := scanRequest(row, true)
	if sqlerr.IsNoRows(err) {
		return Request{}, ErrNotFound
	}
	return r, err
}

func pgFilter(filter ListFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		conds = append(conds, fmt.Sprintf("lr.employee_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("lr.status = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (s *PGStore) List(ctx context.Context, filter ListFilter) ([]Request, error) {
	where, args := pgFilter(filter)
	query := `
    SELECT ` + requestColumns + `
    FROM leave_requests lr
    JOIN employees e ON e.id = lr.employee_id
    ` + where + `
    ORDER BY lr.created_at DESC, lr.id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Request{}
	for rows.Next() {
		r, err := scanRequest(rows, filter.Expand)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PGStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := pgFilter(filter)
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests lr "+where, args...).Scan(&count)
	return count, err
}

func (s *PGStore) UsedDays(ctx context.Context, employeeID string, since time.Time) (int, error) {
	var days int
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(days), 0)
    FROM leave_requests
    WHERE employee_id = $1 AND status = 'approved' AND start_date >= $2
  `, employeeID, since).Scan(&days)
	return days, err
}

func (s *PGStore) Balance(ctx context.Context, employeeID string) (int, error) {
	var balance int
	err := s.DB.QueryRow(ctx, "SELECT leave_balance FROM employees WHERE id = $1", employeeID).Scan(&balance)
	if sqlerr.IsNoRows(err) {
		return 0, ErrEmployeeNotFound
	}
	return balance, err
}

type pgTx struct {
	q querier.Querier
}

func (t *pgTx) LockBalance(ctx context.Context, employeeID string) (int, error) {
	var balance int
	err := t.q.QueryRow(ctx, "SELECT leave_balance FROM employees WHERE id = $1 FOR UPDATE", employeeID).Scan(&balance)
	if sqlerr.IsNoRows(err) {
		return 0, ErrEmployeeNotFound
	}
	return balance, err
}

func (t *pgTx) PendingDays(ctx context.Context, employeeID string) (int, error) {
	var days int
	err := t.q.QueryRow(ctx, `
    SELECT COALESCE(SUM(days), 0)
    FROM leave_requests
    WHERE employee_id = $1 AND status = 'pending'
  `, employeeID).Scan(&days)
	return days, err
}

func (t *pgTx) HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	var exists bool
	err := t.q.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM leave_requests
      WHERE employee_id = $1
        AND status IN ('pending', 'approved')
        AND start_date <= $3
        AND end_date >= $2
    )
  `, employeeID, start, end).Scan(&exists)
	return exists, err
}

func (t *pgTx) Insert(ctx context.Context, req Request) error {
	_, err := t.q.Exec(ctx, `
    INSERT INTO leave_requests (id, employee_id, start_date, end_date, days, leave_type, reason, status, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
  `, req.ID, req.Employee.ID, req.StartDate, req.EndDate, req.Days, string(req.LeaveType), req.Reason, string(req.Status), req.CreatedAt, req.UpdatedAt)
	return err
}

func (t *pgTx) GetForUpdate(ctx context.Context, id string) (Request, error) {
	row := t.q.QueryRow(ctx, `
    SELECT `+requestColumns+`
    FROM leave_requests lr
    JOIN employees e ON e.id = lr.employee_id
    WHERE lr.id = $1
    FOR UPDATE OF lr
  `, id)
	r, err := scanRequest(row, false)
	if sqlerr.IsNoRows(err) {
		return Request{}, ErrNotFound
	}
	return r, err
}

func (t *pgTx) MarkApproved(ctx context.Context, id, approverID string, at time.Time) (bool, error) {
	tag, err := t.q.Exec(ctx, `
    UPDATE leave_requests
    SET status = 'approved', approved_by = $2, approved_at = $3, updated_at = $3
    WHERE id = $1 AND status = 'pending'
  `, id, approverID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (t *pgTx) MarkRejected(ctx context.Context, id, approverID, reason string, at time.Time) (bool, error) {
	tag, err := t.q.Exec(ctx, `
    UPDATE leave_requests
    SET status = 'rejected', approved_by = $2, rejected_at = $3, rejection_reason = NULLIF($4, ''), updated_at = $3
    WHERE id = $1 AND status = 'pending'
  `, id, approverID, at, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (t *pgTx) Debit(ctx context.Context, employeeID string, days int) (bool, error) {
	tag, err := t.q.Exec(ctx, `
    UPDATE employees
    SET leave_balance = leave_balance - $2, updated_at = now()
    WHERE id = $1 AND leave_balance >= $2
  `, employeeID, days)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
