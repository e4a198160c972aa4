package internal

import "time"

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type LogStatus string

const (
	StatusDone    LogStatus = "done"
	StatusSkipped LogStatus = "skipped"
)

type Persona string

const (
	PersonaCalm      Persona = "calm"
	PersonaDirect    Persona = "direct"
	PersonaMotivator Persona = "motivator"
)

type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	PasswordHash     string     `json:"-"`
	CoachPersona     Persona    `json:"coachPersona"`
	ResetCodeHash    string     `json:"-"`
	ResetCodeExpires *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"createdAt"`
}

type Habit struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	HabitName  string     `json:"habitName"`
	Goal       string     `json:"goal"`
	Frequency  Frequency  `json:"frequency"`
	Difficulty Difficulty `json:"difficulty"`
	// EndDate is the inclusive last active calendar day.
	EndDate             time.Time  `json:"endDate"`
	InsuranceLastUsedAt *time.Time `json:"insuranceLastUsedAt,omitempty"`
	InsuranceRenewedAt  *time.Time `json:"insuranceRenewedAt,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
}

// HabitLog records done/skipped for one habit on one calendar day.
// At most one log exists per (UserID, HabitID, Date); the storage
// backend enforces that as a unique key.
type HabitLog struct {
	ID      string    `json:"id"`
	UserID  string    `json:"userId"`
	HabitID string    `json:"habitId"`
	Date    time.Time `json:"date"`
	Status  LogStatus `json:"status"`
	Note    string    `json:"note"`
}
