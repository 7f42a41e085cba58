// Package calendar holds the day-granular date arithmetic shared by the
// attendance and leave ledgers. Every function here is pure.
package calendar

import (
	"errors"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

var (
	ErrInvalidRange = errors.New("end date is before start date")
	ErrInvalidDate  = errors.New("invalid date")
)

// DateOf returns the calendar day of t (read in t's own location) as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

// ParseDate accepts YYYY-MM-DD or RFC3339 and drops the time of day.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidDate
	}
	if parsed, err := time.Parse(DateLayout, value); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return DateOf(parsed), nil
}

func FormatDate(t time.Time) string {
	return DateOf(t).Format(DateLayout)
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// WorkingDays counts Monday to Friday days in [start, end], both ends included.
func WorkingDays(start, end time.Time) (int, error) {
	start, end = DateOf(start), DateOf(end)
	if end.Before(start) {
		return 0, ErrInvalidRange
	}
	days := (end.Unix()-start.Unix())/secondsPerDay + 1
	count := days / 7 * 5
	first := start.Weekday()
	for i := int64(0); i < days%7; i++ {
		wd := time.Weekday((int64(first) + i) % 7)
		if wd != time.Saturday && wd != time.Sunday {
			count++
		}
	}
	return int(count), nil
}

// Overlaps reports whether [aStart, aEnd] and [bStart, bEnd] share at least one day.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !DateOf(aStart).After(DateOf(bEnd)) && !DateOf(aEnd).Before(DateOf(bStart))
}

func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func StartOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

// MonthRange returns the first and last day of the month.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

// PreviousMonth returns the calendar month before the one containing now.
func PreviousMonth(now time.Time) (int, time.Month) {
	prev := StartOfMonth(now).AddDate(0, -1, 0)
	return prev.Year(), prev.Month()
}
