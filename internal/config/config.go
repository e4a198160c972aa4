package config

import (
	"errors"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Port     string
	LogLevel string

	DBType     string
	DBDSN      string
	UsersFile  string
	HabitsFile string
	LogsFile   string

	JWTSecret  string
	BcryptCost int

	AIAPIURL string
	AIAPIKey string
	AIModel  string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	RedisAddr     string
	RedisPassword string
}

var (
	cfg  *Config
	once sync.Once
)

func Load() *Config {
	once.Do(func() {
		_ = godotenv.Load()
		cfg = &Config{
			Env:      getEnv("APP_ENV", "development"),
			Port:     getEnv("PORT", "8080"),
			LogLevel: getEnv("LOG_LEVEL", "info"),

			DBType:     getEnv("STORAGE_BACKEND", "file"),
			DBDSN:      getEnv("POSTGRES_DSN", ""),
			UsersFile:  getEnv("USERS_FILE", "data/users.json"),
			HabitsFile: getEnv("HABITS_FILE", "data/habits.json"),
			LogsFile:   getEnv("LOGS_FILE", "data/habit_logs.json"),

			JWTSecret:  getEnv("JWT_SECRET", ""),
			BcryptCost: 10,

			AIAPIURL: getEnv("AI_API_URL", ""),
			AIAPIKey: getEnv("AI_API_KEY", ""),
			AIModel:  getEnv("AI_MODEL", ""),

			SMTPHost: getEnv("SMTP_HOST", ""),
			SMTPPort: getEnv("SMTP_PORT", ""),
			SMTPUser: getEnv("SMTP_USER", ""),
			SMTPPass: getEnv("SMTP_PASS", ""),
			SMTPFrom: getEnv("SMTP_FROM", ""),

			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
		}
		if err := cfg.Validate(); err != nil {
			panic("Invalid config: " + err.Error())
		}
	})
	return cfg
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.DBType != "file" && c.DBType != "postgres" {
		return errors.New("STORAGE_BACKEND must be one of: file, postgres")
	}
	if c.DBType == "postgres" && c.DBDSN == "" {
		return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
	}
	if c.DBType == "file" && (c.UsersFile == "" || c.HabitsFile == "" || c.LogsFile == "") {
		return errors.New("File storage requires USERS_FILE, HABITS_FILE and LOGS_FILE to be set")
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	return nil
}

// EmailConfigured reports whether all SMTP settings are present.
// Email sending is skipped entirely when any of them is missing.
func (c *Config) EmailConfigured() bool {
	return c.SMTPHost != "" && c.SMTPPort != "" && c.SMTPUser != "" && c.SMTPPass != "" && c.SMTPFrom != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
