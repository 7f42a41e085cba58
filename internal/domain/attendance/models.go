package attendance

import "time"

// Record is one employee-day. It is created by the first check-in of the day
// and closed by the check-out; records are never deleted.
type Record struct {
	ID          string     `json:"id"`
	EmployeeID  string     `json:"employeeId"`
	Date        time.Time  `json:"date"`
	CheckIn     *time.Time `json:"checkIn,omitempty"`
	CheckOut    *time.Time `json:"checkOut,omitempty"`
	HoursWorked float64    `json:"hoursWorked"`
	IsPresent   bool       `json:"isPresent"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (r Record) CheckedIn() bool {
	return r.CheckIn != nil
}

func (r Record) CheckedOut() bool {
	return r.CheckOut != nil
}

type Today struct {
	Record       *Record `json:"attendance"`
	IsCheckedIn  bool    `json:"isCheckedIn"`
	IsCheckedOut bool    `json:"isCheckedOut"`
}

type History struct {
	Year       int      `json:"year"`
	Month      int      `json:"month"`
	Records    []Record `json:"attendance"`
	TotalHours float64  `json:"totalHours"`
	TotalDays  int      `json:"totalDays"`
}

// MonthToDate summarises one employee's records from the first of the month.
type MonthToDate struct {
	TotalHours  float64 `json:"totalHours"`
	PresentDays int     `json:"presentDays"`
}
