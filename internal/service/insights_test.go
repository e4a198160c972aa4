package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourname/habitcoach/internal"
)

func TestBuildInsights(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)
	habits := []internal.Habit{
		makeHabit("h1", "Read", start),
		makeHabit("h2", "Run", start),
	}
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.Local) }
	logs := []internal.HabitLog{
		{HabitID: "h1", Date: day(1), Status: internal.StatusDone},
		{HabitID: "h1", Date: day(2), Status: internal.StatusDone},
		{HabitID: "h1", Date: day(3), Status: internal.StatusDone},
		{HabitID: "h1", Date: day(4), Status: internal.StatusDone},
		{HabitID: "h2", Date: day(1), Status: internal.StatusDone},
		{HabitID: "h2", Date: day(2), Status: internal.StatusDone},
		{HabitID: "h2", Date: day(3), Status: internal.StatusDone},
		{HabitID: "h1", Date: day(5), Status: internal.StatusSkipped},
		{HabitID: "h2", Date: day(5), Status: internal.StatusSkipped},
		{HabitID: "h2", Date: day(6), Status: internal.StatusSkipped},
	}

	insights := BuildInsights(habits, logs, 30, start)
	assert.Equal(t, 30, insights.Period.Days)
	assert.Equal(t, "2024-03-01", insights.Period.StartDate)
	// 7 done out of 10 logs, rounded percentage.
	assert.Equal(t, 70, insights.CompletionRate)
	assert.Equal(t, 6, insights.ActiveDays)
	assert.Equal(t, "Read", insights.TopHabitName)
	assert.Equal(t, InsightsTotals{Total: 10, Done: 7, Skipped: 3}, insights.Totals)
}

func TestBuildInsights_Empty(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)
	insights := BuildInsights(nil, nil, 30, start)
	assert.Equal(t, 0, insights.CompletionRate)
	assert.Equal(t, 0, insights.ActiveDays)
	assert.Equal(t, NoTopHabit, insights.TopHabitName)
	assert.Equal(t, InsightsTotals{}, insights.Totals)
}

func TestBuildInsights_TieGoesToFirstSeen(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)
	habits := []internal.Habit{
		makeHabit("h1", "Read", start),
		makeHabit("h2", "Run", start),
	}
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.Local) }
	logs := []internal.HabitLog{
		{HabitID: "h2", Date: day(1), Status: internal.StatusDone},
		{HabitID: "h1", Date: day(2), Status: internal.StatusDone},
	}

	insights := BuildInsights(habits, logs, 30, start)
	assert.Equal(t, "Run", insights.TopHabitName)
}
