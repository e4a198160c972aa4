package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/yourname/habitcoach/internal"
	"github.com/yourname/habitcoach/internal/storage"
)

type LogCompletionRequest struct {
	HabitID string `json:"habitId"`
	Date    string `json:"date"`
	Status  string `json:"status"`
	Note    string `json:"note"`
}

func alreadyLoggedError(logDate time.Time) *internal.AppError {
	return internal.NewConflictError("already-logged", "Already logged for today").
		With("nextAvailableDate", FormatDay(NextDay(logDate)))
}

// LogCompletion records done/skipped for one habit on one calendar
// day. The storage unique key on (user, habit, day) is the source of
// truth for duplicates: a race past the existence check surfaces as
// the same conflict.
func LogCompletion(ctx context.Context, habits storage.HabitRepository, logs storage.HabitLogRepository, userID string, req *LogCompletionRequest) (*internal.HabitLog, error) {
	if req.HabitID == "" || req.Date == "" || req.Status == "" {
		return nil, internal.NewValidationError("habitId, date, and status are required")
	}
	status := internal.LogStatus(req.Status)
	if status != internal.StatusDone && status != internal.StatusSkipped {
		return nil, internal.NewValidationError("status must be done or skipped")
	}

	habit, err := habits.GetHabit(ctx, userID, req.HabitID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, internal.NewNotFoundError("Habit not found")
		}
		return nil, internal.NewInternalError("Server error logging habit")
	}

	logDate, ok := ParseCalendarDay(req.Date)
	if !ok {
		return nil, internal.NewValidationError("Invalid date")
	}

	if _, err := logs.FindLog(ctx, userID, habit.ID, logDate); err == nil {
		return nil, alreadyLoggedError(logDate)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, internal.NewInternalError("Server error logging habit")
	}

	if logDate.After(LocalDay(habit.EndDate)) {
		return nil, internal.NewForbiddenError("This habit ended on " + FormatDay(habit.EndDate))
	}

	log := &internal.HabitLog{
		ID:      uuid.NewString(),
		UserID:  userID,
		HabitID: habit.ID,
		Date:    logDate,
		Status:  status,
		Note:    req.Note,
	}
	if err := logs.InsertLog(ctx, log); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, alreadyLoggedError(logDate)
		}
		return nil, internal.NewInternalError("Server error logging habit")
	}
	return log, nil
}
