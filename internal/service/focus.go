package service

import (
	"sort"

	"github.com/yourname/habitcoach/internal"
)

// HabitStats summarizes one habit's trailing 7-day activity.
type HabitStats struct {
	Habit          internal.Habit
	Done           int
	Skipped        int
	Total          int
	CompletionRate float64
	RecentNotes    []string
}

// BuildHabitStats computes counts and notes for one habit from the
// user's recent logs (expected newest first). Up to three non-empty
// notes are kept in log order.
func BuildHabitStats(habit internal.Habit, logs []internal.HabitLog) HabitStats {
	stats := HabitStats{Habit: habit, RecentNotes: []string{}}
	for _, l := range logs {
		if l.HabitID != habit.ID {
			continue
		}
		stats.Total++
		switch l.Status {
		case internal.StatusDone:
			stats.Done++
		case internal.StatusSkipped:
			stats.Skipped++
		}
		if l.Note != "" && len(stats.RecentNotes) < 3 {
			stats.RecentNotes = append(stats.RecentNotes, l.Note)
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Done) / float64(stats.Total)
	}
	return stats
}

// PickFocusHabit selects the habit most in need of attention: lowest
// completion rate, ties broken by more skips, then by most recently
// created. With no recent activity anywhere, the newest habit wins.
func PickFocusHabit(stats []HabitStats) *HabitStats {
	if len(stats) == 0 {
		return nil
	}

	allNoLogs := true
	for _, s := range stats {
		if s.Total > 0 {
			allNoLogs = false
			break
		}
	}

	ranked := make([]HabitStats, len(stats))
	copy(ranked, stats)

	if allNoLogs {
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Habit.CreatedAt.After(ranked[j].Habit.CreatedAt)
		})
		return &ranked[0]
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.CompletionRate != b.CompletionRate {
			return a.CompletionRate < b.CompletionRate
		}
		if a.Skipped != b.Skipped {
			return a.Skipped > b.Skipped
		}
		return a.Habit.CreatedAt.After(b.Habit.CreatedAt)
	})
	return &ranked[0]
}
