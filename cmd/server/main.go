package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/yourname/habitcoach/internal"
	"github.com/yourname/habitcoach/internal/ai"
	"github.com/yourname/habitcoach/internal/api"
	"github.com/yourname/habitcoach/internal/config"
	"github.com/yourname/habitcoach/internal/email"
	"github.com/yourname/habitcoach/internal/service"
	"github.com/yourname/habitcoach/internal/storage"
)

func main() {
	cfg := config.Load()

	logger, err := internal.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	backend, err := storage.NewBackend(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to init storage: %v", err)
	}
	defer backend.Close()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("redis unreachable, falling back to in-memory rate limiting: %v", err)
			rdb = nil
		}
		cancel()
	}

	generator := ai.NewClient(cfg.AIAPIURL, cfg.AIAPIKey, cfg.AIModel, logger)
	mailer := email.NewSender(cfg, logger)

	h := api.NewHandler(cfg, logger, backend, service.SystemClock(), generator, mailer)
	r := api.NewRouter(h, rdb)

	logger.Infof("server listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}
