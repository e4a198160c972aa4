package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yourname/habitcoach/internal"
)

// PostgresStorage expects this schema:
//
//	CREATE TABLE users (
//	    id TEXT PRIMARY KEY,
//	    email TEXT NOT NULL UNIQUE,
//	    name TEXT NOT NULL DEFAULT '',
//	    password_hash TEXT NOT NULL,
//	    coach_persona TEXT NOT NULL DEFAULT 'calm',
//	    reset_code_hash TEXT,
//	    reset_code_expires TIMESTAMPTZ,
//	    created_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE habits (
//	    id TEXT PRIMARY KEY,
//	    user_id TEXT NOT NULL REFERENCES users(id),
//	    habit_name TEXT NOT NULL,
//	    goal TEXT NOT NULL,
//	    frequency TEXT NOT NULL,
//	    difficulty TEXT NOT NULL,
//	    end_date DATE NOT NULL,
//	    insurance_last_used_at DATE,
//	    insurance_renewed_at DATE,
//	    created_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE habit_logs (
//	    id TEXT PRIMARY KEY,
//	    user_id TEXT NOT NULL,
//	    habit_id TEXT NOT NULL,
//	    date DATE NOT NULL,
//	    status TEXT NOT NULL,
//	    note TEXT NOT NULL DEFAULT '',
//	    UNIQUE (user_id, habit_id, date)
//	);
//
// The unique key on habit_logs is what closes the check-then-insert
// race for duplicate completions.
type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(dsn string, logger internal.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- UserRepository ---

func (p *PostgresStorage) CreateUser(ctx context.Context, user *internal.User) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, password_hash, coach_persona, reset_code_hash, reset_code_expires, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.CoachPersona, user.ResetCodeHash, user.ResetCodeExpires, user.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		p.logger.Errorf("failed to insert user: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) scanUser(row pgx.Row) (*internal.User, error) {
	var u internal.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CoachPersona, &u.ResetCodeHash, &u.ResetCodeExpires, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		p.logger.Errorf("failed to scan user: %v", err)
		return nil, err
	}
	return &u, nil
}

const userColumns = `id, email, name, password_hash, coach_persona, COALESCE(reset_code_hash, ''), reset_code_expires, created_at`

func (p *PostgresStorage) GetUserByID(ctx context.Context, id string) (*internal.User, error) {
	return p.scanUser(p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (p *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*internal.User, error) {
	return p.scanUser(p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (p *PostgresStorage) UpdateUser(ctx context.Context, user *internal.User) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE users SET email = $2, name = $3, password_hash = $4, coach_persona = $5, reset_code_hash = NULLIF($6, ''), reset_code_expires = $7 WHERE id = $1`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.CoachPersona, user.ResetCodeHash, user.ResetCodeExpires)
	if err != nil {
		p.logger.Errorf("failed to update user: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) DeleteUser(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		p.logger.Errorf("failed to delete user: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- HabitRepository ---

const habitColumns = `id, user_id, habit_name, goal, frequency, difficulty, end_date, insurance_last_used_at, insurance_renewed_at, created_at`

func (p *PostgresStorage) CreateHabit(ctx context.Context, habit *internal.Habit) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO habits (`+habitColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		habit.ID, habit.UserID, habit.HabitName, habit.Goal, habit.Frequency, habit.Difficulty,
		habit.EndDate, habit.InsuranceLastUsedAt, habit.InsuranceRenewedAt, habit.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert habit: %v", err)
		return err
	}
	return nil
}

func scanHabit(row pgx.Row) (*internal.Habit, error) {
	var h internal.Habit
	err := row.Scan(&h.ID, &h.UserID, &h.HabitName, &h.Goal, &h.Frequency, &h.Difficulty,
		&h.EndDate, &h.InsuranceLastUsedAt, &h.InsuranceRenewedAt, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (p *PostgresStorage) ListHabits(ctx context.Context, userID string) ([]internal.Habit, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		p.logger.Errorf("failed to query habits: %v", err)
		return nil, err
	}
	defer rows.Close()

	habits := []internal.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			p.logger.Errorf("failed to scan habit: %v", err)
			return nil, err
		}
		habits = append(habits, *h)
	}
	return habits, rows.Err()
}

func (p *PostgresStorage) GetHabit(ctx context.Context, userID, habitID string) (*internal.Habit, error) {
	h, err := scanHabit(p.pool.QueryRow(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE id = $1 AND user_id = $2`, habitID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		p.logger.Errorf("failed to scan habit: %v", err)
		return nil, err
	}
	return h, nil
}

func (p *PostgresStorage) UpdateHabit(ctx context.Context, habit *internal.Habit) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE habits SET habit_name = $3, goal = $4, frequency = $5, difficulty = $6, end_date = $7,
		 insurance_last_used_at = $8, insurance_renewed_at = $9 WHERE id = $1 AND user_id = $2`,
		habit.ID, habit.UserID, habit.HabitName, habit.Goal, habit.Frequency, habit.Difficulty,
		habit.EndDate, habit.InsuranceLastUsedAt, habit.InsuranceRenewedAt)
	if err != nil {
		p.logger.Errorf("failed to update habit: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) DeleteHabit(ctx context.Context, userID, habitID string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM habits WHERE id = $1 AND user_id = $2`, habitID, userID)
	if err != nil {
		p.logger.Errorf("failed to delete habit: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) DeleteHabitsForUser(ctx context.Context, userID string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM habits WHERE user_id = $1`, userID)
	if err != nil {
		p.logger.Errorf("failed to delete habits: %v", err)
	}
	return err
}

// --- HabitLogRepository ---

const logColumns = `id, user_id, habit_id, date, status, note`

func (p *PostgresStorage) InsertLog(ctx context.Context, log *internal.HabitLog) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO habit_logs (`+logColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		log.ID, log.UserID, log.HabitID, log.Date, log.Status, log.Note)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		p.logger.Errorf("failed to insert habit log: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) UpsertLog(ctx context.Context, log *internal.HabitLog) (*internal.HabitLog, error) {
	row := p.pool.QueryRow(ctx,
		`INSERT INTO habit_logs (`+logColumns+`) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, habit_id, date) DO UPDATE SET status = EXCLUDED.status, note = EXCLUDED.note
		 RETURNING `+logColumns,
		log.ID, log.UserID, log.HabitID, log.Date, log.Status, log.Note)
	var l internal.HabitLog
	if err := row.Scan(&l.ID, &l.UserID, &l.HabitID, &l.Date, &l.Status, &l.Note); err != nil {
		p.logger.Errorf("failed to upsert habit log: %v", err)
		return nil, err
	}
	return &l, nil
}

func (p *PostgresStorage) scanLog(row pgx.Row) (*internal.HabitLog, error) {
	var l internal.HabitLog
	err := row.Scan(&l.ID, &l.UserID, &l.HabitID, &l.Date, &l.Status, &l.Note)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		p.logger.Errorf("failed to scan habit log: %v", err)
		return nil, err
	}
	return &l, nil
}

func (p *PostgresStorage) FindLog(ctx context.Context, userID, habitID string, date time.Time) (*internal.HabitLog, error) {
	return p.scanLog(p.pool.QueryRow(ctx,
		`SELECT `+logColumns+` FROM habit_logs WHERE user_id = $1 AND habit_id = $2 AND date = $3`,
		userID, habitID, date))
}

func (p *PostgresStorage) FindDoneLogSince(ctx context.Context, userID, habitID string, since time.Time) (*internal.HabitLog, error) {
	return p.scanLog(p.pool.QueryRow(ctx,
		`SELECT `+logColumns+` FROM habit_logs WHERE user_id = $1 AND habit_id = $2 AND status = 'done' AND date >= $3 LIMIT 1`,
		userID, habitID, since))
}

func (p *PostgresStorage) ListLogs(ctx context.Context, userID string, filter LogFilter) ([]internal.HabitLog, error) {
	query := `SELECT ` + logColumns + ` FROM habit_logs WHERE user_id = $1`
	args := []interface{}{userID}
	if filter.HabitID != "" {
		args = append(args, filter.HabitID)
		query += ` AND habit_id = $2`
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		if filter.HabitID != "" {
			query += ` AND date >= $3`
		} else {
			query += ` AND date >= $2`
		}
	}
	query += ` ORDER BY date DESC`

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		p.logger.Errorf("failed to query habit logs: %v", err)
		return nil, err
	}
	defer rows.Close()

	logs := []internal.HabitLog{}
	for rows.Next() {
		var l internal.HabitLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.HabitID, &l.Date, &l.Status, &l.Note); err != nil {
			p.logger.Errorf("failed to scan habit log: %v", err)
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (p *PostgresStorage) DeleteLogsForHabit(ctx context.Context, userID, habitID string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM habit_logs WHERE user_id = $1 AND habit_id = $2`, userID, habitID)
	if err != nil {
		p.logger.Errorf("failed to delete habit logs: %v", err)
	}
	return err
}

func (p *PostgresStorage) DeleteLogsForUser(ctx context.Context, userID string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM habit_logs WHERE user_id = $1`, userID)
	if err != nil {
		p.logger.Errorf("failed to delete habit logs: %v", err)
	}
	return err
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

var _ Backend = (*PostgresStorage)(nil)
