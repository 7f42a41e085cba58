package employee

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

type Employee struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	LeaveBalance int       `json:"leaveBalance"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (e Employee) Summary() Summary {
	return Summary{ID: e.ID, Name: e.Name, Email: e.Email}
}

// Summary is the display subset of an employee embedded in listings.
type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Ref points at an employee either by id alone or with its display data
// resolved. The id is always set; ledger invariants only ever look at it.
type Ref struct {
	ID      string
	summary *Summary
}

func RefID(id string) Ref {
	return Ref{ID: id}
}

func Expanded(s Summary) Ref {
	return Ref{ID: s.ID, summary: &s}
}

func (r Ref) Expanded() (Summary, bool) {
	if r.summary == nil {
		return Summary{}, false
	}
	return *r.summary, true
}

// MarshalJSON writes the bare id, or the summary object once expanded.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.summary != nil {
		return json.Marshal(r.summary)
	}
	return json.Marshal(r.ID)
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = RefID(id)
		return nil
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = Expanded(s)
	return nil
}

type RegisterInput struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	LeaveBalance *int   `json:"leaveBalance,omitempty"`
}
