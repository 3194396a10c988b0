package calendar

import (
	"errors"
	"testing"
	"time"
)

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func assertDates(t *testing.T, got []time.Time, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d dates, got %v", len(want), got)
	}
	for i, w := range want {
		if g := got[i].Format(time.DateOnly); g != w {
			t.Fatalf("date %d: expected %s, got %s", i, w, g)
		}
	}
}

func TestWeeklyDates(t *testing.T) {
	monday, err := Recurrence{Kind: Weekly, DayOfWeek: 1, Start: day("2024-01-03"), End: day("2024-01-31")}.Dates()
	if err != nil {
		t.Fatalf("weekly: %v", err)
	}
	assertDates(t, monday, "2024-01-08", "2024-01-15", "2024-01-22", "2024-01-29")

	sunday, err := Recurrence{Kind: Weekly, DayOfWeek: 7, Start: day("2024-01-07"), End: day("2024-01-21")}.Dates()
	if err != nil {
		t.Fatalf("weekly: %v", err)
	}
	assertDates(t, sunday, "2024-01-07", "2024-01-14", "2024-01-21")
}

func TestMonthlyDatesClampToShortMonths(t *testing.T) {
	dates, err := Recurrence{Kind: Monthly, DayOfMonth: 31, Start: day("2024-01-15"), End: day("2024-04-30")}.Dates()
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	assertDates(t, dates, "2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30")

	late, err := Recurrence{Kind: Monthly, DayOfMonth: 10, Start: day("2024-01-15"), End: day("2024-03-09")}.Dates()
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	assertDates(t, late, "2024-02-10")
}

func TestRecurrenceValidation(t *testing.T) {
	cases := []struct {
		name string
		r    Recurrence
	}{
		{"start after end", Recurrence{Kind: Weekly, DayOfWeek: 1, Start: day("2024-02-01"), End: day("2024-01-01")}},
		{"missing end", Recurrence{Kind: Weekly, DayOfWeek: 1, Start: day("2024-01-01")}},
		{"day of week zero", Recurrence{Kind: Weekly, DayOfWeek: 0, Start: day("2024-01-01"), End: day("2024-02-01")}},
		{"day of week eight", Recurrence{Kind: Weekly, DayOfWeek: 8, Start: day("2024-01-01"), End: day("2024-02-01")}},
		{"day of month 32", Recurrence{Kind: Monthly, DayOfMonth: 32, Start: day("2024-01-01"), End: day("2024-02-01")}},
		{"unknown kind", Recurrence{Kind: "DAILY", Start: day("2024-01-01"), End: day("2024-02-01")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.r.Dates(); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestRecurrenceExpansionIsCapped(t *testing.T) {
	if _, err := (Recurrence{Kind: Weekly, DayOfWeek: 3, Start: day("2024-01-01"), End: day("9999-12-31")}).Dates(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unbounded weekly range, got %v", err)
	}
	if _, err := (Recurrence{Kind: Monthly, DayOfMonth: 1, Start: day("1000-01-01"), End: day("9999-12-31")}).Dates(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unbounded monthly range, got %v", err)
	}

	// 2024-01-01 is a Monday; the 260th Monday from it is 2028-12-18.
	dates, err := Recurrence{Kind: Weekly, DayOfWeek: 1, Start: day("2024-01-01"), End: day("2028-12-18")}.Dates()
	if err != nil {
		t.Fatalf("weekly at cap: %v", err)
	}
	if len(dates) != maxRecurringEvents {
		t.Fatalf("expected %d dates, got %d", maxRecurringEvents, len(dates))
	}
	if _, err := (Recurrence{Kind: Weekly, DayOfWeek: 1, Start: day("2024-01-01"), End: day("2028-12-25")}).Dates(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput one past the cap, got %v", err)
	}
}
