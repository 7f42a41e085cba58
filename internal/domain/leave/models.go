package leave

import (
	"time"

	"hrledger/internal/domain/employee"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

type Type string

const (
	TypeVacation     Type = "vacation"
	TypeSick         Type = "sick"
	TypeWorkFromHome Type = "work_from_home"
)

var Types = []Type{TypeVacation, TypeSick, TypeWorkFromHome}

func (t Type) Valid() bool {
	for _, candidate := range Types {
		if t == candidate {
			return true
		}
	}
	return false
}

type Request struct {
	ID              string       `json:"id"`
	Employee        employee.Ref `json:"employee"`
	StartDate       time.Time    `json:"startDate"`
	EndDate         time.Time    `json:"endDate"`
	Days            int          `json:"days"`
	LeaveType       Type         `json:"leaveType"`
	Reason          string       `json:"reason"`
	Status          Status       `json:"status"`
	ApprovedBy      *string      `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time   `json:"approvedAt,omitempty"`
	RejectedAt      *time.Time   `json:"rejectedAt,omitempty"`
	RejectionReason *string      `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

type ApplyInput struct {
	StartDate time.Time
	EndDate   time.Time
	LeaveType Type
	Reason    string
}

// Page is a limit/offset window over a listing; zero Limit means all rows.
type Page struct {
	Limit  int
	Offset int
}

// ListFilter narrows listings; zero values mean no restriction.
type ListFilter struct {
	EmployeeID string
	Status     Status
	Limit      int
	Offset     int
	// Expand resolves each request's employee to its summary.
	Expand bool
}

// Decision is what approve and reject hand back to callers.
type Decision struct {
	Request          Request `json:"request"`
	RemainingBalance int     `json:"remainingBalance"`
}
