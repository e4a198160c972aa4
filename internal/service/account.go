package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourname/habitcoach/internal"
	"github.com/yourname/habitcoach/internal/auth"
	"github.com/yourname/habitcoach/internal/storage"
)

const (
	minPasswordLength = 6
	resetCodeTTL      = 15 * time.Minute
)

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkPassword(password string) error {
	if len(password) < minPasswordLength {
		return internal.NewValidationError("Password must be at least 6 characters")
	}
	return nil
}

// Signup creates an account. Email uniqueness is delegated to the
// storage unique key, so a concurrent duplicate surfaces as the same
// conflict as a sequential one.
func Signup(ctx context.Context, users storage.UserRepository, req *SignupRequest, bcryptCost int, now time.Time) (*internal.User, error) {
	if req.Email == "" || req.Password == "" {
		return nil, internal.NewValidationError("Email and password are required")
	}
	if err := checkPassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password, bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("Server error during signup")
	}

	user := &internal.User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(req.Email),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		CoachPersona: internal.PersonaCalm,
		CreatedAt:    now,
	}
	if err := users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, internal.NewConflictError("", "Email already registered")
		}
		return nil, internal.NewInternalError("Server error during signup")
	}
	return user, nil
}

func Login(ctx context.Context, users storage.UserRepository, email, password string) (*internal.User, error) {
	if email == "" || password == "" {
		return nil, internal.NewValidationError("Email and password are required")
	}
	user, err := users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil || !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, internal.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// RequestPasswordReset stores a hashed verification code with a short
// expiry and returns the code for delivery. A missing account returns
// no user and no error so the caller can answer identically either
// way and not leak which emails exist.
func RequestPasswordReset(ctx context.Context, users storage.UserRepository, email string, now time.Time) (string, *internal.User, error) {
	if email == "" {
		return "", nil, internal.NewValidationError("Email is required")
	}
	user, err := users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil, nil
		}
		return "", nil, internal.NewInternalError("Server error requesting password reset")
	}

	code, err := auth.GenerateResetCode()
	if err != nil {
		return "", nil, internal.NewInternalError("Server error requesting password reset")
	}
	expires := now.Add(resetCodeTTL)
	user.ResetCodeHash = auth.HashResetCode(code)
	user.ResetCodeExpires = &expires
	if err := users.UpdateUser(ctx, user); err != nil {
		return "", nil, internal.NewInternalError("Server error requesting password reset")
	}
	return code, user, nil
}

func ResetPassword(ctx context.Context, users storage.UserRepository, email, code, newPassword string, bcryptCost int, now time.Time) (*internal.User, error) {
	if email == "" || code == "" || newPassword == "" {
		return nil, internal.NewValidationError("Email, code, and newPassword are required")
	}
	if err := checkPassword(newPassword); err != nil {
		return nil, err
	}

	invalidCode := internal.NewValidationError("Invalid or expired verification code")
	user, err := users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, invalidCode
	}
	if user.ResetCodeHash == "" || user.ResetCodeExpires == nil {
		return nil, invalidCode
	}
	if user.ResetCodeExpires.Before(now) {
		return nil, internal.NewValidationError("Verification code expired")
	}
	if user.ResetCodeHash != auth.HashResetCode(strings.TrimSpace(code)) {
		return nil, invalidCode
	}

	hash, err := auth.HashPassword(newPassword, bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("Server error resetting password")
	}
	user.PasswordHash = hash
	user.ResetCodeHash = ""
	user.ResetCodeExpires = nil
	if err := users.UpdateUser(ctx, user); err != nil {
		return nil, internal.NewInternalError("Server error resetting password")
	}
	return user, nil
}

func ChangePassword(ctx context.Context, users storage.UserRepository, userID, currentPassword, newPassword string, bcryptCost int) error {
	if currentPassword == "" || newPassword == "" {
		return internal.NewValidationError("currentPassword and newPassword are required")
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}

	user, err := users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return internal.NewNotFoundError("User not found")
		}
		return internal.NewInternalError("Server error changing password")
	}
	if !auth.VerifyPassword(user.PasswordHash, currentPassword) {
		return internal.NewUnauthorizedError("Current password is incorrect")
	}

	hash, err := auth.HashPassword(newPassword, bcryptCost)
	if err != nil {
		return internal.NewInternalError("Server error changing password")
	}
	user.PasswordHash = hash
	if err := users.UpdateUser(ctx, user); err != nil {
		return internal.NewInternalError("Server error changing password")
	}
	return nil
}

func GetProfile(ctx context.Context, users storage.UserRepository, userID string) (*internal.User, error) {
	user, err := users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, internal.NewNotFoundError("User not found")
		}
		return nil, internal.NewInternalError("Server error fetching profile")
	}
	return user, nil
}

func UpdateName(ctx context.Context, users storage.UserRepository, userID, name string) (*internal.User, error) {
	user, err := users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, internal.NewNotFoundError("User not found")
		}
		return nil, internal.NewInternalError("Server error updating profile")
	}
	user.Name = strings.TrimSpace(name)
	if err := users.UpdateUser(ctx, user); err != nil {
		return nil, internal.NewInternalError("Server error updating profile")
	}
	return user, nil
}

func UpdateCoachPersona(ctx context.Context, users storage.UserRepository, userID string, persona internal.Persona) (*internal.User, error) {
	switch persona {
	case internal.PersonaCalm, internal.PersonaDirect, internal.PersonaMotivator:
	default:
		return nil, internal.NewValidationError("Invalid coachPersona")
	}

	user, err := users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, internal.NewNotFoundError("User not found")
		}
		return nil, internal.NewInternalError("Server error updating coach persona")
	}
	user.CoachPersona = persona
	if err := users.UpdateUser(ctx, user); err != nil {
		return nil, internal.NewInternalError("Server error updating coach persona")
	}
	return user, nil
}

// DeleteAccount removes the user's logs, then habits, then the user.
func DeleteAccount(ctx context.Context, users storage.UserRepository, habits storage.HabitRepository, logs storage.HabitLogRepository, userID string) error {
	if _, err := users.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return internal.NewNotFoundError("User not found")
		}
		return internal.NewInternalError("Server error deleting account")
	}
	if err := logs.DeleteLogsForUser(ctx, userID); err != nil {
		return internal.NewInternalError("Server error deleting account")
	}
	if err := habits.DeleteHabitsForUser(ctx, userID); err != nil {
		return internal.NewInternalError("Server error deleting account")
	}
	if err := users.DeleteUser(ctx, userID); err != nil {
		return internal.NewInternalError("Server error deleting account")
	}
	return nil
}
