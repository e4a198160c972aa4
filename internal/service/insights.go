package service

import (
	"math"
	"time"

	"github.com/yourname/habitcoach/internal"
)

// NoTopHabit is reported when the window holds no done logs.
const NoTopHabit = "none"

type InsightsPeriod struct {
	Days      int    `json:"days"`
	StartDate string `json:"startDate"`
}

type InsightsTotals struct {
	Total   int `json:"total"`
	Done    int `json:"done"`
	Skipped int `json:"skipped"`
}

type Insights struct {
	Period         InsightsPeriod `json:"period"`
	CompletionRate int            `json:"completionRate"`
	ActiveDays     int            `json:"activeDays"`
	TopHabitName   string         `json:"topHabitName"`
	Totals         InsightsTotals `json:"totals"`
}

// BuildInsights aggregates the user's logs over the trailing window.
// Pure read-side computation: completion percentage, distinct active
// days, and the habit with the most done logs (ties go to the name
// encountered first).
func BuildInsights(habits []internal.Habit, logs []internal.HabitLog, days int, startDate time.Time) Insights {
	names := make(map[string]string, len(habits))
	for _, h := range habits {
		names[h.ID] = h.HabitName
	}

	totals := InsightsTotals{Total: len(logs)}
	daySet := make(map[string]struct{})
	doneByName := make(map[string]int)
	nameOrder := []string{}

	for _, l := range logs {
		daySet[FormatDay(l.Date)] = struct{}{}
		switch l.Status {
		case internal.StatusDone:
			totals.Done++
		case internal.StatusSkipped:
			totals.Skipped++
		}
		if l.Status != internal.StatusDone {
			continue
		}
		name, ok := names[l.HabitID]
		if !ok {
			continue
		}
		if _, seen := doneByName[name]; !seen {
			nameOrder = append(nameOrder, name)
		}
		doneByName[name]++
	}

	rate := 0
	if totals.Total > 0 {
		rate = int(math.Round(float64(totals.Done) / float64(totals.Total) * 100))
	}

	topHabit := NoTopHabit
	best := 0
	for _, name := range nameOrder {
		if doneByName[name] > best {
			best = doneByName[name]
			topHabit = name
		}
	}

	return Insights{
		Period:         InsightsPeriod{Days: days, StartDate: FormatDay(startDate)},
		CompletionRate: rate,
		ActiveDays:     len(daySet),
		TopHabitName:   topHabit,
		Totals:         totals,
	}
}
