package dashboard

import (
	"time"

	"hrledger/internal/domain/leave"
)

type TodayCounts struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Total   int `json:"total"`
}

type AdminMonthly struct {
	AverageAttendance float64 `json:"averageAttendance"`
	TotalWorkingDays  int     `json:"totalWorkingDays"`
}

type AdminSummary struct {
	TotalEmployees  int             `json:"totalEmployees"`
	PendingLeaves   int             `json:"pendingLeaves"`
	TodayAttendance TodayCounts     `json:"todayAttendance"`
	MonthlyStats    AdminMonthly    `json:"monthlyStats"`
	RecentLeaves    []leave.Request `json:"recentLeaves"`
}

type Profile struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	LeaveBalance       int    `json:"leaveBalance"`
	TotalLeaveDaysUsed int    `json:"totalLeaveDaysUsed"`
}

type TodayStatus struct {
	IsCheckedIn  bool       `json:"isCheckedIn"`
	IsCheckedOut bool       `json:"isCheckedOut"`
	CheckIn      *time.Time `json:"checkIn,omitempty"`
	CheckOut     *time.Time `json:"checkOut,omitempty"`
	HoursWorked  float64    `json:"hoursWorked"`
}

type EmployeeMonthly struct {
	TotalHours       float64 `json:"totalHours"`
	PresentDays      int     `json:"presentDays"`
	TotalWorkingDays int     `json:"totalWorkingDays"`
}

type EmployeeSummary struct {
	User            Profile         `json:"user"`
	TodayAttendance TodayStatus     `json:"todayAttendance"`
	MonthlyStats    EmployeeMonthly `json:"monthlyStats"`
	PendingLeaves   int             `json:"pendingLeaves"`
}
