package employee

import "errors"

var (
	ErrNotFound        = errors.New("employee not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrInvalidName     = errors.New("name is required")
	ErrInvalidEmail    = errors.New("email is invalid")
	ErrInvalidRole     = errors.New("role must be admin or employee")
	ErrNegativeBalance = errors.New("leave balance must not be negative")
)
