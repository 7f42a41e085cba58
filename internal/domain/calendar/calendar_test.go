package calendar

import (
	"errors"
	"testing"
	"time"
)

func day(value string) time.Time {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWorkingDays(t *testing.T) {
	cases := []struct {
		name  string
		start string
		end   string
		want  int
	}{
		{name: "full week", start: "2024-02-19", end: "2024-02-25", want: 5},
		{name: "single saturday", start: "2024-02-24", end: "2024-02-24", want: 0},
		{name: "single monday", start: "2024-02-19", end: "2024-02-19", want: 1},
		{name: "weekend only", start: "2024-02-24", end: "2024-02-25", want: 0},
		{name: "spans month", start: "2024-02-26", end: "2024-03-08", want: 10},
		{name: "leap day", start: "2024-02-28", end: "2024-03-01", want: 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := WorkingDays(day(tc.start), day(tc.end))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %d working days, got %d", tc.want, got)
			}
		})
	}
}

func TestWorkingDaysMatchesDayByDayCount(t *testing.T) {
	base := day("2024-01-01")
	for offset := 0; offset < 7; offset++ {
		start := base.AddDate(0, 0, offset)
		want := 0
		for length := 0; length < 40; length++ {
			end := start.AddDate(0, 0, length)
			if !IsWeekend(end) {
				want++
			}
			got, err := WorkingDays(start, end)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != want {
				t.Fatalf("%s..%s: expected %d working days, got %d", FormatDate(start), FormatDate(end), want, got)
			}
		}
	}
}

func TestWorkingDaysFarFutureRange(t *testing.T) {
	// 2024-01-01 and 9999-12-27 are both Mondays.
	got, err := WorkingDays(day("2024-01-01"), day("9999-12-26"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start, end := day("2024-01-01"), day("9999-12-27")
	weeks := (end.Unix() - start.Unix()) / secondsPerDay / 7
	if int64(got) != weeks*5 {
		t.Fatalf("expected %d working days, got %d", weeks*5, got)
	}
}

func TestWorkingDaysInvertedRange(t *testing.T) {
	if _, err := WorkingDays(day("2024-03-05"), day("2024-03-01")); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestWorkingDaysIgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2024, 2, 19, 23, 59, 0, 0, time.UTC)
	end := time.Date(2024, 2, 19, 0, 1, 0, 0, time.UTC)
	got, err := WorkingDays(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestOverlaps(t *testing.T) {
	if !Overlaps(day("2024-03-01"), day("2024-03-05"), day("2024-03-04"), day("2024-03-06")) {
		t.Fatal("expected overlap")
	}
	if !Overlaps(day("2024-03-01"), day("2024-03-05"), day("2024-03-05"), day("2024-03-05")) {
		t.Fatal("expected inclusive edge overlap")
	}
	if Overlaps(day("2024-03-01"), day("2024-03-05"), day("2024-03-06"), day("2024-03-10")) {
		t.Fatal("adjacent ranges must not overlap")
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-03-01T18:30:00Z")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !got.Equal(day("2024-03-01")) {
		t.Fatalf("expected truncated date, got %v", got)
	}
	if _, err := ParseDate("03/01/2024"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := ParseDate(""); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate for empty input, got %v", err)
	}
}

func TestPreviousMonth(t *testing.T) {
	year, month := PreviousMonth(time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC))
	if year != 2023 || month != time.December {
		t.Fatalf("expected 2023-12, got %d-%d", year, month)
	}
	first, last := MonthRange(2024, time.February)
	if first.Format(DateLayout) != "2024-02-01" || last.Format(DateLayout) != "2024-02-29" {
		t.Fatalf("unexpected february range %s..%s", first.Format(DateLayout), last.Format(DateLayout))
	}
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	now := time.Date(2024, 3, 1, 21, 0, 0, 0, time.UTC)
	if got := Today(now, loc); got.Format(DateLayout) != "2024-03-02" {
		t.Fatalf("expected local day 2024-03-02, got %s", got.Format(DateLayout))
	}
}
