package leave

import (
	"context"
	"time"
)

type Store interface {
	// RunInTx runs fn in one database transaction; any error rolls it back.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error
	Get(ctx context.Context, id string) (Request, error)
	List(ctx context.Context, filter ListFilter) ([]Request, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	UsedDays(ctx context.Context, employeeID string, since time.Time) (int, error)
	// Balance reads the current balance without locking the employee row.
	Balance(ctx context.Context, employeeID string) (int, error)
}

// TxStore holds the primitives that must share a transaction.
type TxStore interface {
	// LockBalance reads the balance and holds the employee row until commit.
	LockBalance(ctx context.Context, employeeID string) (int, error)
	PendingDays(ctx context.Context, employeeID string) (int, error)
	HasOverlap(ctx context.Context, employeeID string, start, end time.Time) (bool, error)
	Insert(ctx context.Context, req Request) error
	GetForUpdate(ctx context.Context, id string) (Request, error)
	// MarkApproved and MarkRejected only touch pending rows and report whether one changed.
	MarkApproved(ctx context.Context, id, approverID string, at time.Time) (bool, error)
	MarkRejected(ctx context.Context, id, approverID, reason string, at time.Time) (bool, error)
	// Debit subtracts days only while the balance covers them.
	Debit(ctx context.Context, employeeID string, days int) (bool, error)
}
