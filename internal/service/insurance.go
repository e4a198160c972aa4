package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/yourname/habitcoach/internal"
	"github.com/yourname/habitcoach/internal/storage"
)

// InsuranceState is derived on every read from the two stored
// timestamps and today's month; it is never persisted as an enum, so
// month rollover needs no background job.
type InsuranceState int

const (
	InsuranceUnused InsuranceState = iota
	InsuranceUsedThisMonth
	InsuranceRenewedThisMonth
)

const (
	insuranceNote      = "Streak insurance"
	insuranceRenewNote = "Streak insurance (renewed)"
)

// DeriveInsuranceState reports where the habit stands in the current
// month. A renewedAt outside lastUsedAt's current month is ignored.
func DeriveInsuranceState(lastUsedAt, renewedAt *time.Time, today time.Time) InsuranceState {
	if lastUsedAt == nil || !SameMonth(*lastUsedAt, today) {
		return InsuranceUnused
	}
	if renewedAt != nil && SameMonth(*renewedAt, today) {
		return InsuranceRenewedThisMonth
	}
	return InsuranceUsedThisMonth
}

// InsuranceResult carries the upserted log and the updated habit.
type InsuranceResult struct {
	Log   *internal.HabitLog `json:"log"`
	Habit *internal.Habit    `json:"habit"`
}

func habitEndedGuard(habit *internal.Habit, today time.Time) error {
	if today.After(LocalDay(habit.EndDate)) {
		return internal.NewForbiddenError("This habit ended on " + FormatDay(habit.EndDate))
	}
	return nil
}

// weeklyCompletionGuard blocks insurance for weekly habits that
// already have a done log in the current ISO week (Monday start).
func weeklyCompletionGuard(ctx context.Context, logs storage.HabitLogRepository, habit *internal.Habit, today time.Time) error {
	if habit.Frequency != internal.FrequencyWeekly {
		return nil
	}
	_, err := logs.FindDoneLogSince(ctx, habit.UserID, habit.ID, WeekStart(today))
	if err == nil {
		return internal.NewConflictError("", "Habit already completed this week")
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return internal.NewInternalError("Server error applying streak insurance")
	}
	return nil
}

func grantInsuranceLog(ctx context.Context, logs storage.HabitLogRepository, habit *internal.Habit, today time.Time, note string) (*internal.HabitLog, error) {
	log, err := logs.UpsertLog(ctx, &internal.HabitLog{
		ID:      uuid.NewString(),
		UserID:  habit.UserID,
		HabitID: habit.ID,
		Date:    today,
		Status:  internal.StatusDone,
		Note:    note,
	})
	if err != nil {
		return nil, internal.NewInternalError("Server error applying streak insurance")
	}
	return log, nil
}

// UseInsurance grants this month's free-pass completion for today.
func UseInsurance(ctx context.Context, habits storage.HabitRepository, logs storage.HabitLogRepository, userID, habitID string, now time.Time) (*InsuranceResult, error) {
	habit, err := habits.GetHabit(ctx, userID, habitID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, internal.NewNotFoundError("Habit not found")
		}
		return nil, internal.NewInternalError("Server error applying streak insurance")
	}

	today := DayOf(now)
	if err := habitEndedGuard(habit, today); err != nil {
		return nil, err
	}

	state := DeriveInsuranceState(habit.InsuranceLastUsedAt, habit.InsuranceRenewedAt, today)
	if state != InsuranceUnused {
		return nil, internal.NewConflictError("INSURANCE_USED", "Streak insurance already used this month for this habit").
			With("nextRenewDate", FormatDay(FirstOfNextMonth(today))).
			With("canRenewNow", state == InsuranceUsedThisMonth)
	}

	if err := weeklyCompletionGuard(ctx, logs, habit, today); err != nil {
		return nil, err
	}

	log, err := grantInsuranceLog(ctx, logs, habit, today, insuranceNote)
	if err != nil {
		return nil, err
	}

	habit.InsuranceLastUsedAt = &today
	if err := habits.UpdateHabit(ctx, habit); err != nil {
		return nil, internal.NewInternalError("Server error applying streak insurance")
	}
	return &InsuranceResult{Log: log, Habit: habit}, nil
}

// RenewInsurance grants the once-per-month second pass. It requires
// insurance to have been used this month and not yet renewed. The
// weekly guard runs again here; for a weekly habit renewed the same
// day insurance was used, the insurance log itself trips it.
func RenewInsurance(ctx context.Context, habits storage.HabitRepository, logs storage.HabitLogRepository, userID, habitID string, now time.Time) (*InsuranceResult, error) {
	habit, err := habits.GetHabit(ctx, userID, habitID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, internal.NewNotFoundError("Habit not found")
		}
		return nil, internal.NewInternalError("Server error renewing streak insurance")
	}

	today := DayOf(now)
	if err := habitEndedGuard(habit, today); err != nil {
		return nil, err
	}

	switch DeriveInsuranceState(habit.InsuranceLastUsedAt, habit.InsuranceRenewedAt, today) {
	case InsuranceUnused:
		return nil, internal.NewValidationError("Streak insurance has not been used this month yet")
	case InsuranceRenewedThisMonth:
		return nil, internal.NewConflictError("INSURANCE_RENEWED", "Streak insurance already renewed this month for this habit").
			With("nextRenewDate", FormatDay(FirstOfNextMonth(today)))
	}

	if err := weeklyCompletionGuard(ctx, logs, habit, today); err != nil {
		return nil, err
	}

	log, err := grantInsuranceLog(ctx, logs, habit, today, insuranceRenewNote)
	if err != nil {
		return nil, err
	}

	habit.InsuranceLastUsedAt = &today
	habit.InsuranceRenewedAt = &today
	if err := habits.UpdateHabit(ctx, habit); err != nil {
		return nil, internal.NewInternalError("Server error renewing streak insurance")
	}
	return &InsuranceResult{Log: log, Habit: habit}, nil
}
