package storage

import (
	"context"
	"errors"
	"time"

	"github.com/yourname/habitcoach/internal"
)

// Sentinel errors every backend maps its failures onto. Callers
// distinguish duplicate-key violations from other failures through
// ErrDuplicate; it is the single source of truth for "already exists".
var (
	ErrNotFound  = errors.New("storage: not found")
	ErrDuplicate = errors.New("storage: duplicate key")
)

type UserRepository interface {
	// CreateUser fails with ErrDuplicate when the email is taken.
	CreateUser(ctx context.Context, user *internal.User) error
	GetUserByID(ctx context.Context, id string) (*internal.User, error)
	GetUserByEmail(ctx context.Context, email string) (*internal.User, error)
	UpdateUser(ctx context.Context, user *internal.User) error
	DeleteUser(ctx context.Context, id string) error
}

type HabitRepository interface {
	CreateHabit(ctx context.Context, habit *internal.Habit) error
	// ListHabits returns the user's habits newest first.
	ListHabits(ctx context.Context, userID string) ([]internal.Habit, error)
	GetHabit(ctx context.Context, userID, habitID string) (*internal.Habit, error)
	UpdateHabit(ctx context.Context, habit *internal.Habit) error
	DeleteHabit(ctx context.Context, userID, habitID string) error
	DeleteHabitsForUser(ctx context.Context, userID string) error
}

// LogFilter narrows ListLogs. HabitID is optional; Since, when set,
// keeps only logs dated on or after that calendar day.
type LogFilter struct {
	HabitID string
	Since   time.Time
}

type HabitLogRepository interface {
	// InsertLog fails with ErrDuplicate when a log already exists for
	// the same (userID, habitID, date) triple.
	InsertLog(ctx context.Context, log *internal.HabitLog) error
	// UpsertLog creates or overwrites the log for the triple atomically.
	UpsertLog(ctx context.Context, log *internal.HabitLog) (*internal.HabitLog, error)
	FindLog(ctx context.Context, userID, habitID string, date time.Time) (*internal.HabitLog, error)
	// FindDoneLogSince returns any done log for the habit dated on or
	// after since, or ErrNotFound.
	FindDoneLogSince(ctx context.Context, userID, habitID string, since time.Time) (*internal.HabitLog, error)
	// ListLogs returns the user's logs newest first.
	ListLogs(ctx context.Context, userID string, filter LogFilter) ([]internal.HabitLog, error)
	DeleteLogsForHabit(ctx context.Context, userID, habitID string) error
	DeleteLogsForUser(ctx context.Context, userID string) error
}

// Backend bundles the three repositories a single storage engine
// serves, plus graceful shutdown.
type Backend interface {
	UserRepository
	HabitRepository
	HabitLogRepository
	Close() error
}
