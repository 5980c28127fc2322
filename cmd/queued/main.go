package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"clinic-queue-backend/config"
	"clinic-queue-backend/internal/api"
	"clinic-queue-backend/internal/db"
	"clinic-queue-backend/internal/notification"
	"clinic-queue-backend/internal/queue"
	"clinic-queue-backend/internal/store"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "clinic-queue").Logger()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", configPath).Msg("failed to load configuration")
	}
	logger.Info().Str("path", configPath).Msg("configuration loaded")

	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	} else {
		logger.Warn().Msg("VAPID keys not configured; room alerts disabled")
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	logger.Info().Msg("database initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)

	servicesCache := cache.New(
		time.Duration(cfg.Queue.ServicesCacheTTLSeconds)*time.Second,
		2*time.Duration(cfg.Queue.ServicesCacheTTLSeconds)*time.Second,
	)
	engine := queue.NewEngine(
		appStore,
		servicesCache,
		logger,
		time.Duration(cfg.Queue.ServicesCacheTTLSeconds)*time.Second,
		cfg.Queue.DefaultAverageDurationMinutes,
	)

	var alerts *notification.WorkerPool
	if webpushOptions != nil {
		alerts = notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions, logger)
		alerts.Start(ctx)
	}

	router := api.NewRouter(engine, appStore, alerts, webpushOptions, logger, api.RouterOptions{
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
		CacheTTL:        time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("HTTP server shutdown failed")
	}

	logger.Info().Msg("server gracefully stopped")
}
