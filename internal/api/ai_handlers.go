package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourname/habitcoach/internal"
	"github.com/yourname/habitcoach/internal/service"
	"github.com/yourname/habitcoach/internal/storage"
)

const statsWindowDays = 7

// personaSystem resolves the caller's coach persona. A missing or
// unreadable profile gets the default voice instead of an error.
func (h *Handler) personaSystem(c *gin.Context) string {
	user, err := h.users.GetUserByID(c.Request.Context(), userID(c))
	if err != nil {
		return service.PersonaSystem("")
	}
	return service.PersonaSystem(user.CoachPersona)
}

// generate asks the model and falls back to the canned text on any
// failure or blank reply. These endpoints never surface a 5xx.
func (h *Handler) generate(c *gin.Context, prompt, fallback string) (string, string) {
	text, err := h.generator.Generate(c.Request.Context(), prompt, h.personaSystem(c))
	if err != nil || text == "" {
		if err != nil {
			h.logger.Warnf("ai generation failed, using fallback: %v", err)
		}
		return fallback, "fallback"
	}
	return text, "ai"
}

// focusHabit loads the recent window, ranks the user's habits and
// returns the one most in need of attention. Nil means no habits.
func (h *Handler) focusHabit(c *gin.Context) (*service.HabitStats, error) {
	uid := userID(c)
	habits, err := h.habits.ListHabits(c.Request.Context(), uid)
	if err != nil {
		return nil, err
	}
	if len(habits) == 0 {
		return nil, nil
	}

	since := service.DayOf(h.clock.Now()).AddDate(0, 0, -statsWindowDays)
	logs, err := h.logs.ListLogs(c.Request.Context(), uid, storage.LogFilter{Since: since})
	if err != nil {
		return nil, err
	}

	stats := make([]service.HabitStats, 0, len(habits))
	for _, habit := range habits {
		stats = append(stats, service.BuildHabitStats(habit, logs))
	}
	return service.PickFocusHabit(stats), nil
}

func (h *Handler) GetSuggestion() gin.HandlerFunc {
	return func(c *gin.Context) {
		focus, err := h.focusHabit(c)
		if err != nil {
			h.logger.Warnf("suggestion stats unavailable, using fallback: %v", err)
			c.JSON(http.StatusOK, gin.H{
				"suggestion": service.FallbackSuggestion(nil),
				"source":     "fallback",
			})
			return
		}
		if focus == nil {
			c.JSON(http.StatusOK, gin.H{
				"suggestion": service.NoHabitsSuggestion,
				"source":     "system",
			})
			return
		}

		text, source := h.generate(c, service.BuildSuggestionPrompt(*focus), service.FallbackSuggestion(focus))
		c.JSON(http.StatusOK, gin.H{"suggestion": text, "source": source})
	}
}

func (h *Handler) GetHabitSuggestion() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			HabitID string `json:"habitId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.HabitID == "" {
			h.respondError(c, internal.NewValidationError("habitId is required"))
			return
		}

		habit, err := h.habits.GetHabit(c.Request.Context(), userID(c), req.HabitID)
		if err != nil {
			h.respondError(c, internal.NewNotFoundError("Habit not found"))
			return
		}

		since := service.DayOf(h.clock.Now()).AddDate(0, 0, -statsWindowDays)
		logs, err := h.logs.ListLogs(c.Request.Context(), userID(c), storage.LogFilter{HabitID: habit.ID, Since: since})
		if err != nil {
			logs = nil
		}
		stats := service.BuildHabitStats(*habit, logs)

		text, source := h.generate(c, service.BuildPlanPrompt(stats), service.FallbackPlan(habit))
		c.JSON(http.StatusOK, gin.H{"suggestion": text, "source": source})
	}
}

func (h *Handler) GetHabitQuestion() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			HabitID  string `json:"habitId"`
			Question string `json:"question"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondError(c, internal.NewValidationError("habitId and question are required"))
			return
		}
		question := strings.TrimSpace(req.Question)
		if req.HabitID == "" || question == "" {
			h.respondError(c, internal.NewValidationError("habitId and question are required"))
			return
		}

		habit, err := h.habits.GetHabit(c.Request.Context(), userID(c), req.HabitID)
		if err != nil {
			h.respondError(c, internal.NewNotFoundError("Habit not found"))
			return
		}

		since := service.DayOf(h.clock.Now()).AddDate(0, 0, -statsWindowDays)
		logs, err := h.logs.ListLogs(c.Request.Context(), userID(c), storage.LogFilter{HabitID: habit.ID, Since: since})
		if err != nil {
			logs = nil
		}
		stats := service.BuildHabitStats(*habit, logs)

		text, source := h.generate(c, service.BuildQuestionPrompt(stats, question), service.FallbackAnswer)
		c.JSON(http.StatusOK, gin.H{"answer": text, "source": source})
	}
}
