package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourname/habitcoach/internal"
)

func newFileStorage(t *testing.T) (*FileStorage, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFileStorage(
		filepath.Join(dir, "users.json"),
		filepath.Join(dir, "habits.json"),
		filepath.Join(dir, "logs.json"),
		internal.NopLogger(),
	)
	require.NoError(t, err)
	return fs, dir
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.Local)
}

func TestFileStorage_UserCRUD(t *testing.T) {
	fs, _ := newFileStorage(t)
	defer fs.Close()
	ctx := context.Background()

	user := &internal.User{ID: "u1", Email: "a@b.c", Name: "Anna", PasswordHash: "hash", CreatedAt: time.Now()}
	require.NoError(t, fs.CreateUser(ctx, user))

	// Duplicate email is rejected regardless of ID.
	err := fs.CreateUser(ctx, &internal.User{ID: "u2", Email: "a@b.c"})
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := fs.GetUserByEmail(ctx, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	got.Name = "Anne"
	require.NoError(t, fs.UpdateUser(ctx, got))
	again, err := fs.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Anne", again.Name)

	require.NoError(t, fs.DeleteUser(ctx, "u1"))
	_, err = fs.GetUserByID(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
	// Email index is released with the user.
	assert.NoError(t, fs.CreateUser(ctx, &internal.User{ID: "u3", Email: "a@b.c"}))
}

func TestFileStorage_InsertLogDuplicateDay(t *testing.T) {
	fs, _ := newFileStorage(t)
	defer fs.Close()
	ctx := context.Background()

	log := &internal.HabitLog{ID: "l1", UserID: "u1", HabitID: "h1", Date: day(10), Status: internal.StatusDone}
	require.NoError(t, fs.InsertLog(ctx, log))

	// Same day at a different hour still collides on the calendar key.
	dup := &internal.HabitLog{ID: "l2", UserID: "u1", HabitID: "h1", Date: day(10).Add(5 * time.Hour), Status: internal.StatusSkipped}
	assert.ErrorIs(t, fs.InsertLog(ctx, dup), ErrDuplicate)

	// Different habit or user is fine.
	assert.NoError(t, fs.InsertLog(ctx, &internal.HabitLog{ID: "l3", UserID: "u1", HabitID: "h2", Date: day(10)}))
	assert.NoError(t, fs.InsertLog(ctx, &internal.HabitLog{ID: "l4", UserID: "u2", HabitID: "h1", Date: day(10)}))
}

func TestFileStorage_UpsertLogOverwrites(t *testing.T) {
	fs, _ := newFileStorage(t)
	defer fs.Close()
	ctx := context.Background()

	require.NoError(t, fs.InsertLog(ctx, &internal.HabitLog{
		ID: "l1", UserID: "u1", HabitID: "h1", Date: day(10), Status: internal.StatusSkipped, Note: "tired",
	}))

	got, err := fs.UpsertLog(ctx, &internal.HabitLog{
		ID: "l2", UserID: "u1", HabitID: "h1", Date: day(10), Status: internal.StatusDone, Note: "insurance",
	})
	require.NoError(t, err)
	// The existing row keeps its identity; status and note change.
	assert.Equal(t, "l1", got.ID)
	assert.Equal(t, internal.StatusDone, got.Status)
	assert.Equal(t, "insurance", got.Note)

	listed, err := fs.ListLogs(ctx, "u1", LogFilter{})
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestFileStorage_ListLogsFilterAndOrder(t *testing.T) {
	fs, _ := newFileStorage(t)
	defer fs.Close()
	ctx := context.Background()

	for i, d := range []int{12, 10, 14} {
		require.NoError(t, fs.InsertLog(ctx, &internal.HabitLog{
			ID: string(rune('a' + i)), UserID: "u1", HabitID: "h1", Date: day(d), Status: internal.StatusDone,
		}))
	}
	require.NoError(t, fs.InsertLog(ctx, &internal.HabitLog{ID: "x", UserID: "u1", HabitID: "h2", Date: day(13), Status: internal.StatusDone}))

	all, err := fs.ListLogs(ctx, "u1", LogFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, day(14), all[0].Date)
	assert.Equal(t, day(10), all[3].Date)

	onlyH1, err := fs.ListLogs(ctx, "u1", LogFilter{HabitID: "h1"})
	require.NoError(t, err)
	assert.Len(t, onlyH1, 3)

	recent, err := fs.ListLogs(ctx, "u1", LogFilter{Since: day(13)})
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestFileStorage_FindDoneLogSince(t *testing.T) {
	fs, _ := newFileStorage(t)
	defer fs.Close()
	ctx := context.Background()

	require.NoError(t, fs.InsertLog(ctx, &internal.HabitLog{ID: "l1", UserID: "u1", HabitID: "h1", Date: day(5), Status: internal.StatusDone}))
	require.NoError(t, fs.InsertLog(ctx, &internal.HabitLog{ID: "l2", UserID: "u1", HabitID: "h1", Date: day(8), Status: internal.StatusSkipped}))

	_, err := fs.FindDoneLogSince(ctx, "u1", "h1", day(6))
	assert.ErrorIs(t, err, ErrNotFound)

	found, err := fs.FindDoneLogSince(ctx, "u1", "h1", day(5))
	require.NoError(t, err)
	assert.Equal(t, "l1", found.ID)
}

func TestFileStorage_PersistsAcrossReopen(t *testing.T) {
	fs, dir := newFileStorage(t)
	ctx := context.Background()

	require.NoError(t, fs.CreateUser(ctx, &internal.User{ID: "u1", Email: "a@b.c", PasswordHash: "hash"}))
	require.NoError(t, fs.CreateHabit(ctx, &internal.Habit{
		ID: "h1", UserID: "u1", HabitName: "Read", Goal: "g",
		Frequency: internal.FrequencyDaily, Difficulty: internal.DifficultyMedium,
		EndDate: day(31), CreatedAt: time.Now(),
	}))
	require.NoError(t, fs.InsertLog(ctx, &internal.HabitLog{ID: "l1", UserID: "u1", HabitID: "h1", Date: day(10), Status: internal.StatusDone}))
	require.NoError(t, fs.Close())

	reopened, err := NewFileStorage(
		filepath.Join(dir, "users.json"),
		filepath.Join(dir, "habits.json"),
		filepath.Join(dir, "logs.json"),
		internal.NopLogger(),
	)
	require.NoError(t, err)
	defer reopened.Close()

	user, err := reopened.GetUserByEmail(ctx, "a@b.c")
	require.NoError(t, err)
	// Secrets survive the round trip even though the API never
	// serializes them.
	assert.Equal(t, "hash", user.PasswordHash)

	habits, err := reopened.ListHabits(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, habits, 1)

	// The calendar unique key is rebuilt from disk.
	err = reopened.InsertLog(ctx, &internal.HabitLog{ID: "l2", UserID: "u1", HabitID: "h1", Date: day(10)})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestFileStorage_ListHabitsNewestFirst(t *testing.T) {
	fs, _ := newFileStorage(t)
	defer fs.Close()
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)
	for i, id := range []string{"h1", "h2", "h3"} {
		require.NoError(t, fs.CreateHabit(ctx, &internal.Habit{
			ID: id, UserID: "u1", HabitName: id, Goal: "g",
			Frequency: internal.FrequencyDaily, Difficulty: internal.DifficultyMedium,
			EndDate: day(31), CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	habits, err := fs.ListHabits(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, habits, 3)
	assert.Equal(t, "h3", habits[0].ID)
	assert.Equal(t, "h1", habits[2].ID)
}
