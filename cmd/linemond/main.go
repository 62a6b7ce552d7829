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
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"line-monitor-backend/config"
	"line-monitor-backend/internal/alert"
	"line-monitor-backend/internal/analytics"
	"line-monitor-backend/internal/api"
	"line-monitor-backend/internal/classify"
	"line-monitor-backend/internal/db"
	"line-monitor-backend/internal/logging"
	"line-monitor-backend/internal/notification"
	"line-monitor-backend/internal/store"
)

func main() {
	// Optional .env, used for DATABASE_DSN and CONFIG_PATH overrides.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	if err := logging.Init(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	log.Info().Str("path", configPath).Msg("configuration loaded")

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	log.Info().Msg("database initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.SeedReservedCause {
		if err := db.EnsureReservedCause(ctx, gormDB, cfg.Classifier.NonConsideredCauseCode); err != nil {
			log.Fatal().Err(err).Msg("failed to provision reserved cause")
		}
	}

	appStore := store.NewGormStore(gormDB)
	classifier := classify.New(cfg.Classifier, appStore)
	aggregator := analytics.NewAggregator(appStore, cfg.Classifier)

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	if cfg.Alerts.Enabled {
		if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
			log.Fatal().Msg("alerts are enabled but VAPID keys are not configured")
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, &webpushOptions)
		watcher := alert.NewWatcher(cfg.Alerts, appStore, pool)
		go watcher.Run(ctx)
	}

	router := api.NewRouter(cfg, appStore, classifier, aggregator, &webpushOptions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("server gracefully stopped")
}
