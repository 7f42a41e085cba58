package attendance

import "errors"

var (
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrAlreadyCheckedOut = errors.New("already checked out today")
	ErrNotCheckedIn      = errors.New("not checked in today")
	ErrNotFound          = errors.New("attendance record not found")
	ErrInvalidMonth      = errors.New("month must be between 1 and 12")
	ErrInvalidYear       = errors.New("year is out of range")
)
