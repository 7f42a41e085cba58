package leave

import (
	"context"
	"time"

	"hrledger/internal/domain/calendar"
)

// commitApproval spends the working-day cost of req against the employee's
// balance inside the caller's transaction. The status flip and the debit are
// both guarded updates, so a concurrent decision or a drained balance makes
// the whole transaction fail instead of leaving half of it applied.
func commitApproval(ctx context.Context, tx TxStore, req Request, approverID string, at time.Time) (int, error) {
	if req.Status != StatusPending {
		return 0, ErrAlreadyProcessed
	}
	cost, err := calendar.WorkingDays(req.StartDate, req.EndDate)
	if err != nil {
		return 0, err
	}

	balance, err := tx.LockBalance(ctx, req.Employee.ID)
	if err != nil {
		return 0, err
	}
	if balance < cost {
		return 0, &InsufficientBalanceError{Required: cost, Available: balance}
	}

	changed, err := tx.MarkApproved(ctx, req.ID, approverID, at)
	if err != nil {
		return 0, err
	}
	if !changed {
		return 0, ErrAlreadyProcessed
	}

	debited, err := tx.Debit(ctx, req.Employee.ID, cost)
	if err != nil {
		return 0, err
	}
	if !debited {
		return 0, &InsufficientBalanceError{Required: cost, Available: balance}
	}
	return balance - cost, nil
}

// availableBalance is what Apply measures a new request against. With
// reservation enabled, days already claimed by pending requests are held back.
func availableBalance(ctx context.Context, tx TxStore, employeeID string, reservePending bool) (int, error) {
	balance, err := tx.LockBalance(ctx, employeeID)
	if err != nil {
		return 0, err
	}
	if !reservePending {
		return balance, nil
	}
	pending, err := tx.PendingDays(ctx, employeeID)
	if err != nil {
		return 0, err
	}
	return max(balance-pending, 0), nil
}
