package attendance

import (
	"context"
	"time"
)

type Store interface {
	// CheckIn creates the record for rec.Date, or stamps an existing one that
	// has no check-in yet. It returns ErrAlreadyCheckedIn when the day is taken.
	CheckIn(ctx context.Context, rec Record) error
	GetByDate(ctx context.Context, employeeID string, date time.Time) (Record, error)
	// SetCheckOut only changes a record that is checked in and not yet out.
	SetCheckOut(ctx context.Context, id string, at time.Time, hours float64, notes string) (bool, error)
	// ListRange returns the employee's records with from <= date <= to, newest first.
	ListRange(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error)
	// CountPresent counts present records of role employee between from and to.
	CountPresent(ctx context.Context, from, to time.Time) (int, error)
	// Insert stores a complete record, skipping days that already have one.
	Insert(ctx context.Context, rec Record) error
}
