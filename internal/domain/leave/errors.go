package leave

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrOverlap             = errors.New("leave overlaps an existing request")
	ErrNotFound            = errors.New("leave request not found")
	ErrAlreadyProcessed    = errors.New("leave request already processed")
	ErrEmployeeNotFound    = errors.New("employee not found")
)

// Validation reasons reported on ValidationError.
const (
	ReasonPastDate     = "past_date"
	ReasonInvertedDate = "end_before_start"
	ReasonRequired     = "required"
	ReasonInvalidType  = "invalid_leave_type"
	ReasonInvalidState = "invalid_status"
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// InsufficientBalanceError carries the working days a request costs and the
// days the employee can still spend.
type InsufficientBalanceError struct {
	Required  int
	Available int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient leave balance: required %d, available %d", e.Required, e.Available)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}
