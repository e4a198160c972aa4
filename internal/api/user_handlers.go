package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourname/habitcoach/internal"
	"github.com/yourname/habitcoach/internal/service"
)

func (h *Handler) GetProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := service.GetProfile(c.Request.Context(), h.users, userID(c))
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": toPublicUser(user)})
	}
}

func (h *Handler) UpdateName() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name string `json:"name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
			h.respondError(c, internal.NewValidationError("name is required"))
			return
		}

		user, err := service.UpdateName(c.Request.Context(), h.users, userID(c), req.Name)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": toPublicUser(user)})
	}
}

func (h *Handler) UpdateCoachPersona() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			CoachPersona string `json:"coachPersona"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondError(c, internal.NewValidationError("Invalid request body"))
			return
		}

		user, err := service.UpdateCoachPersona(c.Request.Context(), h.users, userID(c), internal.Persona(req.CoachPersona))
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": toPublicUser(user)})
	}
}

func (h *Handler) DeleteAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := service.DeleteAccount(c.Request.Context(), h.users, h.habits, h.logs, userID(c)); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
	}
}
