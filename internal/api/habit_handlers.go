package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourname/habitcoach/internal"
	"github.com/yourname/habitcoach/internal/service"
	"github.com/yourname/habitcoach/internal/storage"
)

func (h *Handler) CreateHabit() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CreateHabitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondError(c, internal.NewValidationError("Invalid request body"))
			return
		}

		habit, err := service.CreateHabit(c.Request.Context(), h.habits, userID(c), &req, h.clock.Now())
		if err != nil {
			h.respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "Habit created",
			"habit":   habit,
		})
	}
}

func (h *Handler) ListHabits() gin.HandlerFunc {
	return func(c *gin.Context) {
		habits, err := service.ListHabits(c.Request.Context(), h.habits, userID(c))
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"habits": habits})
	}
}

func (h *Handler) LogHabit() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.LogCompletionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondError(c, internal.NewValidationError("Invalid request body"))
			return
		}

		log, err := service.LogCompletion(c.Request.Context(), h.habits, h.logs, userID(c), &req)
		if err != nil {
			h.respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "Habit logged",
			"log":     log,
		})
	}
}

// queryDays parses a positive day count from the query string,
// returning the fallback on anything else.
func queryDays(c *gin.Context, fallback int) int {
	raw := c.Query("days")
	if raw == "" {
		return fallback
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return fallback
	}
	return days
}

func (h *Handler) GetHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		days := queryDays(c, 30)
		habitID := c.Query("habitId")

		entries, err := service.History(c.Request.Context(), h.habits, h.logs, userID(c), habitID, days, h.clock.Now())
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": entries})
	}
}

func (h *Handler) GetInsights() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := userID(c)
		days := queryDays(c, 30)
		startDate := service.DayOf(h.clock.Now()).AddDate(0, 0, -days)

		habits, err := h.habits.ListHabits(c.Request.Context(), uid)
		if err != nil {
			h.respondError(c, internal.NewInternalError("Server error fetching insights"))
			return
		}
		logs, err := h.logs.ListLogs(c.Request.Context(), uid, storage.LogFilter{Since: startDate})
		if err != nil {
			h.respondError(c, internal.NewInternalError("Server error fetching insights"))
			return
		}

		c.JSON(http.StatusOK, service.BuildInsights(habits, logs, days, startDate))
	}
}

func (h *Handler) DeleteHabit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := service.DeleteHabit(c.Request.Context(), h.habits, h.logs, userID(c), c.Param("id")); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Habit deleted"})
	}
}

func (h *Handler) UseInsurance() gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := service.UseInsurance(c.Request.Context(), h.habits, h.logs, userID(c), c.Param("id"), h.clock.Now())
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Streak insurance applied",
			"log":     res.Log,
			"habit":   res.Habit,
		})
	}
}

func (h *Handler) RenewInsurance() gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := service.RenewInsurance(c.Request.Context(), h.habits, h.logs, userID(c), c.Param("id"), h.clock.Now())
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Streak insurance renewed",
			"log":     res.Log,
			"habit":   res.Habit,
		})
	}
}
