package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourname/habitcoach/internal"
	"github.com/yourname/habitcoach/internal/auth"
	"github.com/yourname/habitcoach/internal/email"
	"github.com/yourname/habitcoach/internal/service"
)

func (h *Handler) Signup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.SignupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondError(c, internal.NewValidationError("Invalid request body"))
			return
		}

		user, err := service.Signup(c.Request.Context(), h.users, &req, h.cfg.BcryptCost, h.clock.Now())
		if err != nil {
			h.respondError(c, err)
			return
		}

		token, err := auth.NewAccessToken(h.cfg.JWTSecret, user.ID)
		if err != nil {
			h.respondError(c, err)
			return
		}

		// Delivery is best effort and never blocks the signup.
		go email.SendWelcome(h.mailer, h.logger, user.Email, user.Name)

		c.JSON(http.StatusCreated, gin.H{
			"token": token,
			"user":  toPublicUser(user),
		})
	}
}

func (h *Handler) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondError(c, internal.NewValidationError("Invalid request body"))
			return
		}

		user, err := service.Login(c.Request.Context(), h.users, req.Email, req.Password)
		if err != nil {
			h.respondError(c, err)
			return
		}

		token, err := auth.NewAccessToken(h.cfg.JWTSecret, user.ID)
		if err != nil {
			h.respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user":  toPublicUser(user),
		})
	}
}

func (h *Handler) RequestPasswordReset() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondError(c, internal.NewValidationError("Invalid request body"))
			return
		}

		code, user, err := service.RequestPasswordReset(c.Request.Context(), h.users, req.Email, h.clock.Now())
		if err != nil {
			h.respondError(c, err)
			return
		}
		if user != nil {
			go email.SendPasswordResetCode(h.mailer, h.logger, user.Email, code)
		}

		// Same answer whether the account exists or not.
		c.JSON(http.StatusOK, gin.H{
			"message": "If an account exists, a verification code was sent.",
		})
	}
}

func (h *Handler) ResetPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email       string `json:"email"`
			Code        string `json:"code"`
			NewPassword string `json:"newPassword"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondError(c, internal.NewValidationError("Invalid request body"))
			return
		}

		user, err := service.ResetPassword(c.Request.Context(), h.users, req.Email, req.Code, req.NewPassword, h.cfg.BcryptCost, h.clock.Now())
		if err != nil {
			h.respondError(c, err)
			return
		}
		go email.SendPasswordResetConfirmation(h.mailer, h.logger, user.Email)

		c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
	}
}

func (h *Handler) ChangePassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			CurrentPassword string `json:"currentPassword"`
			NewPassword     string `json:"newPassword"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondError(c, internal.NewValidationError("Invalid request body"))
			return
		}

		if err := service.ChangePassword(c.Request.Context(), h.users, userID(c), req.CurrentPassword, req.NewPassword, h.cfg.BcryptCost); err != nil {
			h.respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
	}
}
