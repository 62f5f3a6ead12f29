package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/storyreel/backend/internal/config"
	"github.com/storyreel/backend/internal/db"
	"github.com/storyreel/backend/internal/events"
	apphttp "github.com/storyreel/backend/internal/http"
	"github.com/storyreel/backend/internal/http/handlers"
	"github.com/storyreel/backend/internal/repositories"
	"github.com/storyreel/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	campaignRepo := repositories.NewCampaignRepo(pool)
	runRepo := repositories.NewRunRepo(pool)
	credentialRepo := repositories.NewCredentialRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	renderClient := services.NewRenderClient(cfg.WorkerBaseURL, cfg.GenerateTimeout, log)
	redditClient := services.NewRedditClient(cfg.RedditFetchTimeout, log)
	tiktokClient := services.NewTikTokClient(cfg.TikTokClientKey, cfg.TikTokClientSecret, cfg.RefreshTimeout, log)
	campaignService := services.NewCampaignService(campaignRepo, runRepo, log)
	batchService := services.NewBatchService(campaignRepo, runRepo, userRepo, renderClient, redditClient, publisher, cfg, log)
	tokenService := services.NewTokenService(credentialRepo, tiktokClient, cfg, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, cfg, log)
	campaignHandler := handlers.NewCampaignHandler(campaignService, log)
	batchHandler := handlers.NewBatchHandler(batchService, log)
	cronHandler := handlers.NewCronHandler(tokenService, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authHandler, campaignHandler, batchHandler, cronHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
