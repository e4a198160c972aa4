package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/yourname/habitcoach/internal"
	"github.com/yourname/habitcoach/internal/storage"
)

var validate = validator.New()

type CreateHabitRequest struct {
	HabitName  string `json:"habitName"`
	Goal       string `json:"goal"`
	Frequency  string `json:"frequency" validate:"omitempty,oneof=daily weekly"`
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	EndDate    string `json:"endDate"`
}

// CreateHabit validates the request against the current day and
// persists a habit with insurance unused.
func CreateHabit(ctx context.Context, habits storage.HabitRepository, userID string, req *CreateHabitRequest, now time.Time) (*internal.Habit, error) {
	if strings.TrimSpace(req.HabitName) == "" || strings.TrimSpace(req.Goal) == "" {
		return nil, internal.NewValidationError("habitName and goal are required")
	}
	if err := validate.Struct(req); err != nil {
		return nil, internal.NewValidationError("frequency must be daily or weekly and difficulty easy, medium or hard")
	}
	if req.EndDate == "" {
		return nil, internal.NewValidationError("endDate is required")
	}
	end, ok := ParseCalendarDay(req.EndDate)
	if !ok {
		return nil, internal.NewValidationError("Invalid endDate")
	}
	today := DayOf(now)
	if end.Before(today) {
		return nil, internal.NewValidationError("endDate must be today or later")
	}

	frequency := internal.Frequency(req.Frequency)
	if frequency == "" {
		frequency = internal.FrequencyDaily
	}
	difficulty := internal.Difficulty(req.Difficulty)
	if difficulty == "" {
		difficulty = internal.DifficultyMedium
	}

	habit := &internal.Habit{
		ID:         uuid.NewString(),
		UserID:     userID,
		HabitName:  strings.TrimSpace(req.HabitName),
		Goal:       req.Goal,
		Frequency:  frequency,
		Difficulty: difficulty,
		EndDate:    end,
		CreatedAt:  now,
	}
	if err := habits.CreateHabit(ctx, habit); err != nil {
		return nil, internal.NewInternalError("Server error creating habit")
	}
	return habit, nil
}

func ListHabits(ctx context.Context, habits storage.HabitRepository, userID string) ([]internal.Habit, error) {
	list, err := habits.ListHabits(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("Server error fetching habits")
	}
	return list, nil
}

// DeleteHabit removes the habit's logs before the habit itself. A log
// deletion failure aborts the operation so the habit is never left
// without its history silently.
func DeleteHabit(ctx context.Context, habits storage.HabitRepository, logs storage.HabitLogRepository, userID, habitID string) error {
	if _, err := habits.GetHabit(ctx, userID, habitID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return internal.NewNotFoundError("Habit not found")
		}
		return internal.NewInternalError("Server error deleting habit")
	}
	if err := logs.DeleteLogsForHabit(ctx, userID, habitID); err != nil {
		return internal.NewInternalError("Server error deleting habit")
	}
	if err := habits.DeleteHabit(ctx, userID, habitID); err != nil {
		return internal.NewInternalError("Server error deleting habit")
	}
	return nil
}

// HabitSummary is the slice of habit fields history entries carry.
type HabitSummary struct {
	HabitName  string              `json:"habitName"`
	Goal       string              `json:"goal"`
	Frequency  internal.Frequency  `json:"frequency"`
	Difficulty internal.Difficulty `json:"difficulty"`
}

type HistoryEntry struct {
	internal.HabitLog
	Habit HabitSummary `json:"habit"`
}

// History returns the user's logs over the trailing window, newest
// first, each annotated with its habit's summary.
func History(ctx context.Context, habits storage.HabitRepository, logs storage.HabitLogRepository, userID, habitID string, days int, now time.Time) ([]HistoryEntry, error) {
	if days <= 0 {
		days = 30
	}
	since := DayOf(now).AddDate(0, 0, -days)

	list, err := logs.ListLogs(ctx, userID, storage.LogFilter{HabitID: habitID, Since: since})
	if err != nil {
		return nil, internal.NewInternalError("Server error fetching history")
	}
	habitList, err := habits.ListHabits(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("Server error fetching history")
	}

	summaries := make(map[string]HabitSummary, len(habitList))
	for _, h := range habitList {
		summaries[h.ID] = HabitSummary{
			HabitName:  h.HabitName,
			Goal:       h.Goal,
			Frequency:  h.Frequency,
			Difficulty: h.Difficulty,
		}
	}

	entries := make([]HistoryEntry, 0, len(list))
	for _, l := range list {
		entries = append(entries, HistoryEntry{HabitLog: l, Habit: summaries[l.HabitID]})
	}
	return entries, nil
}
