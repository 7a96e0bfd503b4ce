package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/courtedge/prop-engine/internal/api/handlers"
	"github.com/courtedge/prop-engine/internal/engine"
	"github.com/courtedge/prop-engine/internal/models"
	"github.com/courtedge/prop-engine/internal/providers"
	"github.com/courtedge/prop-engine/internal/regression"
	"github.com/courtedge/prop-engine/internal/services"
	"github.com/courtedge/prop-engine/internal/storage"
	"github.com/courtedge/prop-engine/pkg/config"
	"github.com/courtedge/prop-engine/pkg/database"
	"github.com/courtedge/prop-engine/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	structuredLogger := logger.InitLogger("info", cfg.IsDevelopment())
	logger.WithService("prop-engine").WithFields(logrus.Fields{
		"version":     "1.0.0",
		"environment": cfg.Env,
		"port":        cfg.Port,
	}).Info("Starting Prop Engine")

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logger.WithService("prop-engine").Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(
		&models.GameRecord{},
		&models.TeamContext{},
		&models.PredictionRecord{},
		&models.VerifiedResult{},
	); err != nil {
		logger.WithService("prop-engine").Fatalf("Failed to run migrations: %v", err)
	}

	// Connect to Redis
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.WithService("prop-engine").Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.WithService("prop-engine").Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Shared infrastructure services
	cacheService := services.NewCacheService(redisClient, structuredLogger)
	circuitBreakerService := services.NewCircuitBreakerService(
		cfg.CircuitBreakerThreshold,
		cfg.ExternalAPITimeout,
		structuredLogger,
	)

	// External providers
	statsClient := providers.NewBallDontLieClient(cfg.BallDontLieAPIKey, cfg.ExternalAPITimeout, structuredLogger)
	oddsClient := providers.NewOddsAPIClient(cfg.OddsAPIKey, cfg.ExternalAPITimeout, structuredLogger)
	if cfg.OddsAPIKey == "" {
		logger.WithService("prop-engine").Warn("Odds API key not configured, predictions will score as HOLD")
	}

	// Storage repositories
	gameRepo := storage.NewGameRecordRepository(db)
	teamRepo := storage.NewTeamContextRepository(db)
	predictionRepo := storage.NewPredictionRepository(db)
	resultRepo := storage.NewResultRepository(db)

	// Prediction engine with whatever trained models exist on disk
	registry := regression.LoadRegistry(cfg.ModelDir, structuredLogger)
	logger.WithService("prop-engine").WithField("models_loaded", registry.Len()).Info("Regression registry initialized")
	predictionEngine := engine.NewWithMinHistory(registry, cfg.MinHistoryGames, structuredLogger)

	trackedStats, err := models.ParseStatTypes(cfg.TrackedStats)
	if err != nil {
		logger.WithService("prop-engine").Fatalf("Invalid TRACKED_STATS: %v", err)
	}

	// Business services
	ingestService := services.NewIngestService(statsClient, circuitBreakerService, gameRepo, teamRepo, structuredLogger)
	predictionService := services.NewPredictionService(
		predictionEngine, statsClient, oddsClient, circuitBreakerService,
		gameRepo, teamRepo, predictionRepo, cacheService, trackedStats, structuredLogger,
	)
	verifierService := services.NewVerifierService(gameRepo, predictionRepo, resultRepo, cacheService, structuredLogger)
	notifierService := services.NewNotifierService(
		cfg.DiscordWebhookURL, cfg.ExternalAPITimeout,
		predictionRepo, resultRepo, circuitBreakerService, structuredLogger,
	)

	var schedulerService *services.SchedulerService
	if cfg.EnableScheduler {
		schedulerService = services.NewSchedulerService(
			ingestService, predictionService, verifierService, notifierService, structuredLogger,
		)
		if err := schedulerService.Start(cfg); err != nil {
			logger.WithService("prop-engine").Fatalf("Failed to start scheduler: %v", err)
		}
		defer schedulerService.Stop()
	}

	// Router
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handlers.NewHealthHandler(db, redisClient, structuredLogger)
	predictionHandler := handlers.NewPredictionHandler(
		predictionRepo, resultRepo, gameRepo,
		predictionService, verifierService, cacheService, structuredLogger,
	)
	jobsHandler := handlers.NewJobsHandler(ingestService, schedulerService, structuredLogger)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/predictions", predictionHandler.GetPredictions)
		apiV1.GET("/predictions/today", predictionHandler.GetTodayPicks)
		apiV1.GET("/accuracy", predictionHandler.GetAccuracy)
		apiV1.GET("/athletes/:id/profile", predictionHandler.GetAthleteProfile)

		apiV1.GET("/jobs", jobsHandler.GetJobs)
		apiV1.POST("/jobs/ingest", jobsHandler.TriggerIngest)
		apiV1.POST("/jobs/predict", predictionHandler.TriggerPredict)
		apiV1.POST("/jobs/verify", predictionHandler.TriggerVerify)
	}

	router.GET("/health", healthHandler.GetHealth)
	router.HEAD("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)
	router.HEAD("/ready", healthHandler.GetReady)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		logger.WithService("prop-engine").WithField("port", cfg.Port).Info("Prop engine started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithService("prop-engine").Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.WithService("prop-engine").Info("Shutting down prop engine...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithService("prop-engine").Fatalf("Prop engine forced to shutdown: %v", err)
	}

	logger.WithService("prop-engine").Info("Prop engine exited")
}
