// Package periods maps calendar dates to the day/week/month numbers and windows used
// as rollup keys. All functions are pure and work in the location of their argument.
package periods

import "time"

type Kind string

const (
	Day   Kind = "daily"
	Week  Kind = "weekly"
	Month Kind = "monthly"
)

func (k Kind) Valid() bool {
	return k == Day || k == Week || k == Month
}

// DateNumbers locates a date inside its year.
type DateNumbers struct {
	Day   int // 1-based day of year
	Week  int // 1-based week of year, weeks start on Sunday
	Month int // 1..12
	Year  int
}

// Numbers computes the day-of-year and the Sunday-based week number
// ceil((daysSinceJan1 + weekday(Jan1) + 1) / 7).
func Numbers(t time.Time) DateNumbers {
	t = StartOfDay(t)
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	sinceJan1 := t.YearDay() - 1
	week := (sinceJan1 + int(jan1.Weekday()) + 1 + 6) / 7
	return DateNumbers{
		Day:   t.YearDay(),
		Week:  week,
		Month: int(t.Month()),
		Year:  t.Year(),
	}
}

// Range is a calendar window. Day ranges are half-open [Start, End); week and month
// ranges are inclusive with End at 23:59:59.999 of the last day.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside an inclusive range.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay is millisecond precision so it survives a round trip through timestamp columns.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// DayBounds returns [midnight, next midnight).
func DayBounds(t time.Time) Range {
	start := StartOfDay(t)
	return Range{Start: start, End: start.AddDate(0, 0, 1)}
}

// WeekBounds returns the previous completed Sunday..Saturday week relative to ref.
// When ref is itself a Sunday the window is ref-14 .. ref-8.
func WeekBounds(ref time.Time) Range {
	day := StartOfDay(ref)
	back := int(day.Weekday()) + 7
	if day.Weekday() == time.Sunday {
		back = 14
	}
	start := day.AddDate(0, 0, -back)
	return Range{Start: start, End: EndOfDay(start.AddDate(0, 0, 6))}
}

// MonthBounds returns the first..last day of the month before ref's month,
// wrapping January to December of the previous year.
func MonthBounds(ref time.Time) Range {
	y, m, _ := ref.Date()
	loc := ref.Location()
	start := time.Date(y, m-1, 1, 0, 0, 0, 0, loc)
	last := time.Date(y, m, 0, 0, 0, 0, 0, loc)
	return Range{Start: start, End: EndOfDay(last)}
}

// DayKey, WeekKey and MonthKey are the per-user idempotency keys of each rollup.
type DayKey struct {
	Day  int
	Year int
}

type WeekKey struct {
	Week  int
	Month int
	Year  int
}

type MonthKey struct {
	Month int
	Year  int
}

func DayKeyOf(t time.Time) DayKey {
	n := Numbers(t)
	return DayKey{Day: n.Day, Year: n.Year}
}

// WeekKeyOf keys a week by the numbers of its first day.
func WeekKeyOf(r Range) WeekKey {
	n := Numbers(r.Start)
	return WeekKey{Week: n.Week, Month: n.Month, Year: n.Year}
}

func MonthKeyOf(r Range) MonthKey {
	return MonthKey{Month: int(r.Start.Month()), Year: r.Start.Year()}
}
