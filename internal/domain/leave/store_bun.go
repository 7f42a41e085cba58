package leave

import (
	"context"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"hrledger/internal/domain/calendar"
	"hrledger/internal/domain/employee"
	"hrledger/internal/platform/sqlerr"
)

// requestModel maps leave_requests in SQLite, where dates are stored as
// YYYY-MM-DD text so range predicates compare lexically.
type requestModel struct {
	bun.BaseModel `bun:"table:leave_requests,alias:lr"`

	ID              string     `bun:"id,pk"`
	EmployeeID      string     `bun:"employee_id"`
	StartDate       string     `bun:"start_date"`
	EndDate         string     `bun:"end_date"`
	Days            int        `bun:"days"`
	LeaveType       string     `bun:"leave_type"`
	Reason          string     `bun:"reason"`
	Status          string     `bun:"status"`
	ApprovedBy      *string    `bun:"approved_by"`
	ApprovedAt      *time.Time `bun:"approved_at"`
	RejectedAt      *time.Time `bun:"rejected_at"`
	RejectionReason *string    `bun:"rejection_reason"`
	CreatedAt       time.Time  `bun:"created_at"`
	UpdatedAt       time.Time  `bun:"updated_at"`
}

// requestRow is a leave_requests row joined with its employee's display fields.
type requestRow struct {
	ID              string     `bun:"id"`
	EmployeeID      string     `bun:"employee_id"`
	StartDate       string     `bun:"start_date"`
	EndDate         string     `bun:"end_date"`
	Days            int        `bun:"days"`
	LeaveType       string     `bun:"leave_type"`
	Reason          string     `bun:"reason"`
	Status          string     `bun:"status"`
	ApprovedBy      *string    `bun:"approved_by"`
	ApprovedAt      *time.Time `bun:"approved_at"`
	RejectedAt      *time.Time `bun:"rejected_at"`
	RejectionReason *string    `bun:"rejection_reason"`
	CreatedAt       time.Time  `bun:"created_at"`
	UpdatedAt       time.Time  `bun:"updated_at"`
	EmployeeName    string     `bun:"employee_name"`
	EmployeeEmail   string     `bun:"employee_email"`
}

func toModel(r Request) requestModel {
	return requestModel{
		ID:              r.ID,
		EmployeeID:      r.Employee.ID,
		StartDate:       calendar.FormatDate(r.StartDate),
		EndDate:         calendar.FormatDate(r.EndDate),
		Days:            r.Days,
		LeaveType:       string(r.LeaveType),
		Reason:          r.Reason,
		Status:          string(r.Status),
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		RejectedAt:      r.RejectedAt,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (m requestModel) toRequest(ref employee.Ref) (Request, error) {
	start, err := calendar.ParseDate(m.StartDate)
	if err != nil {
		return Request{}, err
	}
	end, err := calendar.ParseDate(m.EndDate)
	if err != nil {
		return Request{}, err
	}
	return Request{
		ID:              m.ID,
		Employee:        ref,
		StartDate:       start,
		EndDate:         end,
		Days:            m.Days,
		LeaveType:       Type(m.LeaveType),
		Reason:          m.Reason,
		Status:          Status(m.Status),
		ApprovedBy:      m.ApprovedBy,
		ApprovedAt:      utcPtr(m.ApprovedAt),
		RejectedAt:      utcPtr(m.RejectedAt),
		RejectionReason: m.RejectionReason,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}, nil
}

func (r requestRow) toRequest(expand bool) (Request, error) {
	ref := employee.RefID(r.EmployeeID)
	if expand {
		ref = employee.Expanded(employee.Summary{ID: r.EmployeeID, Name: r.EmployeeName, Email: r.EmployeeEmail})
	}
	m := requestModel{
		ID:              r.ID,
		EmployeeID:      r.EmployeeID,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		Days:            r.Days,
		LeaveType:       r.LeaveType,
		Reason:          r.Reason,
		Status:          r.Status,
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		RejectedAt:      r.RejectedAt,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	return m.toRequest(ref)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}

// BunStore keeps leave requests in the embedded SQLite database. Its handle
// is pinned to one connection, so transactions run strictly one at a time.
type BunStore struct {
	DB *bun.DB
}

func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{DB: db}
}

func (s *BunStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error {
	return s.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &bunTx{db: tx})
	})
}

const selectRequestRows = `
SELECT lr.*, e.name AS employee_name, e.email AS employee_email
FROM leave_requests AS lr
JOIN employees AS e ON e.id = lr.employee_id`

func bunFilter(filter ListFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.EmployeeID != "" {
		conds = append(conds, "lr.employee_id = ?")
		args = append(args, filter.EmployeeID)
	}
	if filter.Status != "" {
		conds = append(conds, "lr.status = ?")
		args = append(args, string(filter.Status))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *BunStore) Get(ctx context.Context, id string) (Request, error) {
	var rows []requestRow
	if err := s.DB.NewRaw(selectRequestRows+" WHERE lr.id = ?", id).Scan(ctx, &rows); err != nil {
		return Request{}, err
	}
	if len(rows) == 0 {
		return Request{}, ErrNotFound
	}
	return rows[0].toRequest(true)
}

func (s *BunStore) List(ctx context.Context, filter ListFilter) ([]Request, error) {
	where, args := bunFilter(filter)
	query := selectRequestRows + where + " ORDER BY lr.created_at DESC, lr.id"
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, filter.Offset)
	}

	var rows []requestRow
	if err := s.DB.NewRaw(query, args...).Scan(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]Request, 0, len(rows))
	for _, row := range rows {
		r, err := row.toRequest(filter.Expand)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *BunStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := bunFilter(filter)
	var count int
	err := s.DB.NewRaw("SELECT COUNT(1) FROM leave_requests AS lr"+where, args...).Scan(ctx, &count)
	return count, err
}

func (s *BunStore) UsedDays(ctx context.Context, employeeID string, since time.Time) (int, error) {
	var days int
	err := s.DB.NewRaw(`
    SELECT COALESCE(SUM(days), 0)
    FROM leave_requests
    WHERE employee_id = ? AND status = 'approved' AND start_date >= ?
  `, employeeID, calendar.FormatDate(since)).Scan(ctx, &days)
	return days, err
}

func (s *BunStore) Balance(ctx context.Context, employeeID string) (int, error) {
	var balance int
	err := s.DB.NewRaw("SELECT leave_balance FROM employees WHERE id = ?", employeeID).Scan(ctx, &balance)
	if sqlerr.IsNoRows(err) {
		return 0, ErrEmployeeNotFound
	}
	return balance, err
}

type bunTx struct {
	db bun.IDB
}

func (t *bunTx) LockBalance(ctx context.Context, employeeID string) (int, error) {
	var balance int
	err := t.db.NewRaw("SELECT leave_balance FROM employees WHERE id = ?", employeeID).Scan(ctx, &balance)
	if sqlerr.IsNoRows(err) {
		return 0, ErrEmployeeNotFound
	}
	return balance, err
}

func (t *bunTx) PendingDays(ctx context.Context, employeeID string) (int, error) {
	var days int
	err := t.db.NewRaw(`
    SELECT COALESCE(SUM(days), 0)
    FROM leave_requests
    WHERE employee_id = ? AND status = 'pending'
  `, employeeID).Scan(ctx, &days)
	return days, err
}

func (t *bunTx) HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	return t.db.NewSelect().
		Model((*requestModel)(nil)).
		Where("lr.employee_id = ?", employeeID).
		Where("lr.status IN (?)", bun.In([]string{string(StatusPending), string(StatusApproved)})).
		Where("lr.start_date <= ?", calendar.FormatDate(end)).
		Where("lr.end_date >= ?", calendar.FormatDate(start)).
		Exists(ctx)
}

func (t *bunTx) Insert(ctx context.Context, req Request) error {
	m := toModel(req)
	_, err := t.db.NewInsert().Model(&m).Exec(ctx)
	return err
}

func (t *bunTx) GetForUpdate(ctx context.Context, id string) (Request, error) {
	var m requestModel
	err := t.db.NewSelect().Model(&m).Where("lr.id = ?", id).Limit(1).Scan(ctx)
	if sqlerr.IsNoRows(err) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, err
	}
	return m.toRequest(employee.RefID(m.EmployeeID))
}

func (t *bunTx) MarkApproved(ctx context.Context, id, approverID string, at time.Time) (bool, error) {
	res, err := t.db.ExecContext(ctx, `
    UPDATE leave_requests
    SET status = 'approved', approved_by = ?, approved_at = ?, updated_at = ?
    WHERE id = ? AND status = 'pending'
  `, approverID, at, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (t *bunTx) MarkRejected(ctx context.Context, id, approverID, reason string, at time.Time) (bool, error) {
	var rejection *string
	if reason != "" {
		rejection = &reason
	}
	res, err := t.db.ExecContext(ctx, `
    UPDATE leave_requests
    SET status = 'rejected', approved_by = ?, rejected_at = ?, rejection_reason = ?, updated_at = ?
    WHERE id = ? AND status = 'pending'
  `, approverID, at, rejection, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (t *bunTx) Debit(ctx context.Context, employeeID string, days int) (bool, error) {
	res, err := t.db.ExecContext(ctx, `
    UPDATE employees
    SET leave_balance = leave_balance - ?, updated_at = ?
    WHERE id = ? AND leave_balance >= ?
  `, days, time.Now().UTC(), employeeID, days)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
