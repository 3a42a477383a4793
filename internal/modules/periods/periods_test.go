package periods

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 15, 30, 0, 0, time.UTC)
}

func TestNumbers(t *testing.T) {
	cases := []struct {
		in   time.Time
		want DateNumbers
	}{
		{date(2024, time.January, 1), DateNumbers{Day: 1, Week: 1, Month: 1, Year: 2024}},
		{date(2024, time.January, 6), DateNumbers{Day: 6, Week: 1, Month: 1, Year: 2024}},
		{date(2024, time.January, 7), DateNumbers{Day: 7, Week: 2, Month: 1, Year: 2024}},
		{date(2024, time.December, 31), DateNumbers{Day: 366, Week: 53, Month: 12, Year: 2024}},
		{date(2023, time.March, 1), DateNumbers{Day: 60, Week: 9, Month: 3, Year: 2023}},
		{date(2022, time.January, 1), DateNumbers{Day: 1, Week: 1, Month: 1, Year: 2022}},
		{date(2022, time.January, 2), DateNumbers{Day: 2, Week: 2, Month: 1, Year: 2022}},
	}
	for _, tc := range cases {
		if got := Numbers(tc.in); got != tc.want {
			t.Fatalf("Numbers(%s) = %+v, want %+v", tc.in.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestWeekBounds(t *testing.T) {
	cases := []struct {
		name      string
		ref       time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"wednesday", date(2024, time.March, 20), date(2024, time.March, 10), date(2024, time.March, 16)},
		{"saturday", date(2024, time.March, 23), date(2024, time.March, 10), date(2024, time.March, 16)},
		{"monday", date(2024, time.March, 18), date(2024, time.March, 10), date(2024, time.March, 16)},
		{"sunday", date(2024, time.March, 17), date(2024, time.March, 3), date(2024, time.March, 9)},
		{"year boundary", date(2024, time.January, 3), date(2023, time.December, 24), date(2023, time.December, 30)},
	}
	for _, tc := range cases {
		r := WeekBounds(tc.ref)
		if !r.Start.Equal(StartOfDay(tc.wantStart)) {
			t.Fatalf("%s: start = %s, want %s", tc.name, r.Start, StartOfDay(tc.wantStart))
		}
		if !r.End.Equal(EndOfDay(tc.wantEnd)) {
			t.Fatalf("%s: end = %s, want %s", tc.name, r.End, EndOfDay(tc.wantEnd))
		}
		if r.Start.Weekday() != time.Sunday || r.End.Weekday() != time.Saturday {
			t.Fatalf("%s: window is not Sunday..Saturday: %s..%s", tc.name, r.Start.Weekday(), r.End.Weekday())
		}
	}
}

func TestWeekBoundsSundayIsNotEmpty(t *testing.T) {
	ref := date(2025, time.June, 1)
	if ref.Weekday() != time.Sunday {
		t.Fatalf("fixture must be a Sunday")
	}
	r := WeekBounds(ref)
	if got := ref.Sub(r.Start).Hours() / 24; int(got) != 14 {
		t.Fatalf("expected start 14 days before ref, got %.2f days", got)
	}
	if !r.End.After(r.Start) {
		t.Fatalf("zero-length window: %s..%s", r.Start, r.End)
	}
}

func TestWeekBoundsMondayIsTheWeekJustEnded(t *testing.T) {
	monday := date(2026, time.October, 12)
	r := WeekBounds(monday)
	if got := r.Start.Format("2006-01-02"); got != "2026-10-04" {
		t.Fatalf("start: got=%s", got)
	}
	if got := r.End.Format("2006-01-02"); got != "2026-10-10" {
		t.Fatalf("end: got=%s", got)
	}
	// The Sunday in between still points one week further back.
	if got := WeekBounds(date(2026, time.October, 11)).Start.Format("2006-01-02"); got != "2026-09-27" {
		t.Fatalf("sunday start: got=%s", got)
	}
}

func TestMonthBounds(t *testing.T) {
	r := MonthBounds(date(2024, time.March, 15))
	if !r.Start.Equal(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %s", r.Start)
	}
	if !r.End.Equal(EndOfDay(date(2024, time.February, 29))) {
		t.Fatalf("end = %s", r.End)
	}

	jan := MonthBounds(date(2025, time.January, 2))
	if jan.Start.Year() != 2024 || jan.Start.Month() != time.December || jan.Start.Day() != 1 {
		t.Fatalf("january wrap start = %s", jan.Start)
	}
	if jan.End.Year() != 2024 || jan.End.Month() != time.December || jan.End.Day() != 31 {
		t.Fatalf("january wrap end = %s", jan.End)
	}
	if k := MonthKeyOf(jan); k != (MonthKey{Month: 12, Year: 2024}) {
		t.Fatalf("month key = %+v", k)
	}
}

func TestDayBoundsHalfOpen(t *testing.T) {
	r := DayBounds(date(2024, time.May, 5))
	if r.End.Sub(r.Start) != 24*time.Hour {
		t.Fatalf("unexpected day length %s", r.End.Sub(r.Start))
	}
	if r.Start.Hour() != 0 {
		t.Fatalf("start not midnight: %s", r.Start)
	}
}

func TestWeekKeyOfUsesStartDate(t *testing.T) {
	r := WeekBounds(date(2024, time.January, 3))
	k := WeekKeyOf(r)
	if k.Year != 2023 || k.Month != 12 {
		t.Fatalf("expected key from 2023-12-24, got %+v", k)
	}
}
