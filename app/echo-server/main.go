package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"myPriceLab/app/echo-server/router"
	"myPriceLab/business/bandit"
	"myPriceLab/internal/middleware"
	psqlRepo "myPriceLab/internal/repository/postgres"
	redisRepo "myPriceLab/internal/repository/redis"
	"myPriceLab/internal/rest"
	"myPriceLab/pkg/config"
	"myPriceLab/pkg/database"
	redisdb "myPriceLab/pkg/database/redis"
	"myPriceLab/pkg/logger"
	"myPriceLab/pkg/metrics"
	"myPriceLab/pkg/scheduler"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting Price Lab", "version", cfg.App.Version)

	metrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	// Init repo
	experimentRepo := psqlRepo.NewExperimentRepository(db)
	locker := psqlRepo.NewAdvisoryLocker(db)

	var assignmentCache bandit.AssignmentCache
	if cfg.Redis.Enabled {
		redisClient, err := redisdb.NewRedisClient(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to redis", "error", err)
		}
		defer func() {
			if err := redisdb.CloseRedisClient(redisClient); err != nil {
				logger.Error("Redis close error", "error", err)
			}
		}()
		assignmentCache = redisRepo.NewAssignmentCache(redisClient, cfg.Redis.AssignmentTTL)
		logger.Info("Redis connected successfully")
	}

	// Init service
	banditService := bandit.NewBanditService(experimentRepo, experimentRepo, assignmentCache, bandit.Config{
		MinTrafficWeight:    cfg.Bandit.MinTrafficWeight,
		MetricsWindowDays:   cfg.Bandit.MetricsWindowDays,
		MinSampleSize:       cfg.Bandit.MinSampleSize,
		ConfidenceThreshold: cfg.Bandit.ConfidenceThreshold,
		RebalanceWorkers:    cfg.Bandit.RebalanceWorkers,
		Seed:                cfg.Bandit.Seed,
	})

	// Init handler
	banditHandler := rest.NewBanditHandler(banditService, cfg.Server.RequestTimeout)
	banditAdminHandler := rest.NewBanditAdminHandler(banditService, cfg.Server.RequestTimeout)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.TraceID())

	// Setup routes
	router.SetOpsRoutes(e)
	api := e.Group("/api/v1")
	router.SetExperimentRoutes(api, banditHandler)
	router.SetAdminRoutes(api, banditAdminHandler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Periodic rebalance
	sched, err := scheduler.New(scheduler.Options{
		Name:         "experiment_rebalance",
		Interval:     cfg.Bandit.RebalanceInterval,
		AlignToStart: true,
		StartupDelay: 10 * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create scheduler", "error", err)
	}
	job := bandit.NewRebalanceJob(banditService, locker, cfg.Bandit.RebalanceLockKey)
	go func() {
		if err := sched.Run(ctx, job.Tick); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Rebalance scheduler stopped", "error", err)
		}
	}()

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("Server stopped")
	os.Exit(0)
}
