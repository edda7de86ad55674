package main

import (
	"context"
	"os/signal"
	"syscall"

	"anoa.com/karmafeed/internal/bootstrap"
	"anoa.com/karmafeed/internal/config"
	"anoa.com/karmafeed/internal/server"
	"anoa.com/karmafeed/pkg/database"
	"anoa.com/karmafeed/pkg/logger"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg.Database())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opt)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		log.Warn("REDIS_URL not set, rate limiting and live leaderboard disabled")
	}

	srv, err := server.NewServer(ctx, cfg, db, redisClient)
	if err != nil {
		log.Fatalf("server setup: %v", err)
	}

	if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}
