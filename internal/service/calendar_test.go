package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseCalendarDay_BareDate(t *testing.T) {
	day, ok := ParseCalendarDay("2024-03-01")
	assert.True(t, ok)
	assert.Equal(t, 2024, day.Year())
	assert.Equal(t, time.March, day.Month())
	assert.Equal(t, 1, day.Day())
	assert.Equal(t, 0, day.Hour())
	// A bare date is the literal local day, never shifted by zones.
	assert.Equal(t, time.Local, day.Location())
}

func TestParseCalendarDay_RFC3339Truncates(t *testing.T) {
	day, ok := ParseCalendarDay("2024-03-01T23:45:00Z")
	assert.True(t, ok)
	want := DayOf(time.Date(2024, 3, 1, 23, 45, 0, 0, time.UTC).In(time.Local))
	assert.Equal(t, want, day)
	assert.Equal(t, 0, day.Hour())
}

func TestParseCalendarDay_Invalid(t *testing.T) {
	for _, raw := range []string{"", "yesterday", "03/01/2024", "2024-3-1"} {
		_, ok := ParseCalendarDay(raw)
		assert.False(t, ok, raw)
	}
}

func TestNextDayAndFirstOfNextMonth(t *testing.T) {
	day := time.Date(2024, 1, 31, 0, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local), NextDay(day))
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local), FirstOfNextMonth(day))

	dec := time.Date(2023, 12, 15, 0, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local), FirstOfNextMonth(dec))
}

func TestWeekStart_MondayBased(t *testing.T) {
	// 2024-03-04 is a Monday.
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.Local)
	assert.Equal(t, monday, WeekStart(monday))
	// Wednesday of the same week.
	assert.Equal(t, monday, WeekStart(time.Date(2024, 3, 6, 0, 0, 0, 0, time.Local)))
	// Sunday belongs to the week that started the previous Monday.
	assert.Equal(t, monday, WeekStart(time.Date(2024, 3, 10, 0, 0, 0, 0, time.Local)))
}

func TestLocalDay_KeepsCivilDate(t *testing.T) {
	utc := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	local := LocalDay(utc)
	assert.Equal(t, time.Date(2024, 3, 20, 0, 0, 0, 0, time.Local), local)
	// The same civil day never compares as "after" itself.
	assert.False(t, time.Date(2024, 3, 20, 0, 0, 0, 0, time.Local).After(local))
}

func TestFormatDay(t *testing.T) {
	day := time.Date(2024, 3, 4, 18, 30, 0, 0, time.Local)
	assert.Equal(t, "2024-03-04", FormatDay(day))
}
