package service

import (
	"regexp"
	"time"
)

// Clock supplies wall-clock time. Domain operations take the current
// time as input so tests can pin any date; handlers get it from here.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }

// FixedClock always reports the same instant. Test helper.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }

var bareDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseCalendarDay normalizes a date input to a calendar day at local
// midnight. A bare YYYY-MM-DD string is taken as that literal local
// day, never shifted through another zone. Any other input must parse
// as RFC 3339 and is truncated to its local day. Reports false for
// anything unparseable; callers treat that as a validation failure.
func ParseCalendarDay(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if bareDatePattern.MatchString(value) {
		t, err := time.ParseInLocation("2006-01-02", value, time.Local)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return DayOf(t.In(time.Local)), true
	}
	return time.Time{}, false
}

// DayOf truncates a time to its calendar day, keeping the location.
func DayOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// LocalDay rebuilds t's calendar date at local midnight. Stored dates
// can decode in another zone (a postgres DATE column comes back as
// UTC midnight); instant comparison against a local day would then
// shift the date, so guards compare through this.
func LocalDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}

func NextDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1)
}

func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

func FirstOfNextMonth(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month()+1, 1, 0, 0, 0, 0, day.Location())
}

// WeekStart returns the Monday of the ISO week containing day.
// Sunday maps to the previous Monday.
func WeekStart(day time.Time) time.Time {
	dow := int(day.Weekday())
	diff := dow - 1
	if dow == 0 {
		diff = 6
	}
	return DayOf(day.AddDate(0, 0, -diff))
}

func FormatDay(t time.Time) string {
	return t.Format("2006-01-02")
}
