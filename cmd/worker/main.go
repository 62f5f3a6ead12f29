package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/storyreel/backend/internal/config"
	"github.com/storyreel/backend/internal/db"
	"github.com/storyreel/backend/internal/events"
	"github.com/storyreel/backend/internal/models"
	"github.com/storyreel/backend/internal/repositories"
	"github.com/storyreel/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repos
	userRepo := repositories.NewUserRepo(pool)
	campaignRepo := repositories.NewCampaignRepo(pool)
	runRepo := repositories.NewRunRepo(pool)
	credentialRepo := repositories.NewCredentialRepo(pool)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	renderClient := services.NewRenderClient(cfg.WorkerBaseURL, cfg.GenerateTimeout, log)
	redditClient := services.NewRedditClient(cfg.RedditFetchTimeout, log)
	tiktokClient := services.NewTikTokClient(cfg.TikTokClientKey, cfg.TikTokClientSecret, cfg.RefreshTimeout, log)
	batchService := services.NewBatchService(campaignRepo, runRepo, userRepo, renderClient, redditClient, publisher, cfg, log)
	tokenService := services.NewTokenService(credentialRepo, tiktokClient, cfg, log)

	log.Info("worker started",
		zap.Duration("scheduler_interval", cfg.SchedulerInterval),
		zap.Duration("sweep_interval", cfg.SweepInterval),
	)

	// Run jobs on tickers
	schedulerTicker := time.NewTicker(cfg.SchedulerInterval)
	sweepTicker := time.NewTicker(cfg.SweepInterval)
	defer schedulerTicker.Stop()
	defer sweepTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-schedulerTicker.C:
			batchService.RunDue(ctx)
		case <-sweepTicker.C:
			if _, err := tokenService.SweepPlatform(ctx, models.PlatformTikTok); err != nil {
				log.Error("token sweep failed", zap.Error(err))
			}
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}
