package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/yourname/habitcoach/internal"
	"github.com/yourname/habitcoach/internal/ai"
	"github.com/yourname/habitcoach/internal/auth"
	"github.com/yourname/habitcoach/internal/config"
	"github.com/yourname/habitcoach/internal/email"
	"github.com/yourname/habitcoach/internal/service"
	"github.com/yourname/habitcoach/internal/storage"
)

// Handler bundles every collaborator the endpoints need.
type Handler struct {
	cfg       *config.Config
	logger    internal.Logger
	users     storage.UserRepository
	habits    storage.HabitRepository
	logs      storage.HabitLogRepository
	clock     service.Clock
	generator ai.Generator
	mailer    email.Sender
}

func NewHandler(cfg *config.Config, logger internal.Logger, backend storage.Backend, clock service.Clock, generator ai.Generator, mailer email.Sender) *Handler {
	return &Handler{
		cfg:       cfg,
		logger:    logger,
		users:     backend,
		habits:    backend,
		logs:      backend,
		clock:     clock,
		generator: generator,
		mailer:    mailer,
	}
}

// NewRouter wires middleware and the route map. rdb may be nil, in
// which case rate limiting runs on the in-memory limiter.
func NewRouter(h *Handler, rdb *redis.Client) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware())

	generalLimiter := NewRateLimiter(rdb, "rl:general", 100, 15*time.Minute)
	authLimiter := NewRateLimiter(rdb, "rl:auth", 10, 15*time.Minute)
	aiLimiter := NewRateLimiter(rdb, "rl:ai", 20, time.Hour)

	r.Use(RateLimitMiddleware(generalLimiter, "Too many requests. Slow down."))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Habit AI API is running"})
	})

	authed := auth.Middleware(h.cfg.JWTSecret)
	limitAuth := RateLimitMiddleware(authLimiter, "Too many attempts. Try again in 15 minutes.")
	limitAI := RateLimitMiddleware(aiLimiter, "AI suggestion limit reached. Try again later.")

	authRoutes := r.Group("/auth")
	authRoutes.POST("/signup", limitAuth, h.Signup())
	authRoutes.POST("/login", limitAuth, h.Login())
	authRoutes.POST("/request-password-reset", limitAuth, h.RequestPasswordReset())
	authRoutes.POST("/reset-password", limitAuth, h.ResetPassword())
	authRoutes.POST("/change-password", authed, h.ChangePassword())

	habits := r.Group("/habits", authed)
	habits.POST("/create", h.CreateHabit())
	habits.GET("", h.ListHabits())
	habits.POST("/log", h.LogHabit())
	habits.GET("/history", h.GetHistory())
	habits.GET("/insights", h.GetInsights())
	habits.DELETE("/:id", h.DeleteHabit())
	habits.POST("/:id/insurance", h.UseInsurance())
	habits.POST("/:id/insurance/renew", h.RenewInsurance())

	aiRoutes := r.Group("/ai", authed, limitAI)
	aiRoutes.POST("/suggestion", h.GetSuggestion())
	aiRoutes.POST("/habit-suggestion", h.GetHabitSuggestion())
	aiRoutes.POST("/habit-question", h.GetHabitQuestion())

	users := r.Group("/users", authed)
	users.GET("/me", h.GetProfile())
	users.PATCH("/name", h.UpdateName())
	users.PATCH("/coach", h.UpdateCoachPersona())
	users.DELETE("/me", h.DeleteAccount())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})

	return r
}
