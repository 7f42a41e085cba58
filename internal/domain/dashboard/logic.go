package dashboard

import "github.com/shopspring/decimal"

// RecentPendingLimit caps the pending requests shown on the admin summary.
const RecentPendingLimit = 5

// AverageAttendance is present / (employees * workingDays) as a percentage
// rounded to two decimals. Either factor being zero yields 0.
func AverageAttendance(present, employees, workingDays int) float64 {
	slots := int64(employees) * int64(workingDays)
	if slots <= 0 || present <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(present)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(slots))
	return pct.Round(2).InexactFloat64()
}

func absent(total, present int) int {
	if present >= total {
		return 0
	}
	return total - present
}
