package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stream-user-service/internal/config"
	"github.com/iliyamo/stream-user-service/internal/database"
	"github.com/iliyamo/stream-user-service/internal/handler"
	"github.com/iliyamo/stream-user-service/internal/logger"
	"github.com/iliyamo/stream-user-service/internal/middleware"
	"github.com/iliyamo/stream-user-service/internal/queue"
	"github.com/iliyamo/stream-user-service/internal/repository"
	"github.com/iliyamo/stream-user-service/internal/router"
	"github.com/iliyamo/stream-user-service/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("init logger: %v", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		logger.Log.Fatalw("open database failed", "err", err)
	}
	defer db.Close()

	if err := database.EnsureSchema(context.Background(), db); err != nil {
		logger.Log.Fatalw("ensure schema failed", "err", err)
	}

	media, err := storage.NewS3Uploader(cfg)
	if err != nil {
		logger.Log.Fatalw("init media storage failed", "err", err)
	}

	users := repository.NewUserRepo(db)
	subs := repository.NewSubscriptionRepo(db)

	// Redis is optional: a nil client disables rate limiting and caching.
	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Log.Warnw("redis unavailable; rate limiting and caching disabled")
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e, router.Deps{
		Auth:      handler.NewAuthHandler(cfg, users, media),
		Account:   handler.NewAccountHandler(cfg, users, media),
		Channel:   handler.NewChannelHandler(users, subs),
		Gate:      middleware.RequireAuth(cfg.AccessSecret, users),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	})

	// Background consumer appends signup events to logs/signup.log and
	// reconnects on broker failures for the life of the process.
	go func() {
		if err := queue.StartSignupConsumer(); err != nil {
			logger.Log.Errorw("signup consumer stopped", "err", err)
		}
	}()

	addr := ":" + cfg.Port
	logger.Log.Infow("listening", "addr", addr, "env", cfg.Env)

	if err := e.Start(addr); err != nil {
		logger.Log.Fatalw("server stopped", "err", err)
	}
}
