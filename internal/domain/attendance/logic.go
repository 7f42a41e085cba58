package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

var secondsPerHour = decimal.NewFromInt(3600)

// HoursBetween returns the hours from in to out rounded to two decimals.
// A check-out recorded before its check-in counts as zero.
func HoursBetween(in, out time.Time) float64 {
	elapsed := out.Sub(in)
	if elapsed <= 0 {
		return 0
	}
	seconds := decimal.NewFromInt(int64(elapsed / time.Second))
	return seconds.Div(secondsPerHour).Round(2).InexactFloat64()
}

// SumHours totals hoursWorked without accumulating float drift.
func SumHours(records []Record) float64 {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(decimal.NewFromFloat(r.HoursWorked))
	}
	return total.Round(2).InexactFloat64()
}

func CountPresent(records []Record) int {
	n := 0
	for _, r := range records {
		if r.IsPresent {
			n++
		}
	}
	return n
}
