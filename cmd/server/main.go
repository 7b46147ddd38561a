package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bloomwatch/bloom-eval-service/internal/adapter/appeears"
	"github.com/bloomwatch/bloom-eval-service/internal/adapter/gemini"
	"github.com/bloomwatch/bloom-eval-service/internal/adapter/globe"
	"github.com/bloomwatch/bloom-eval-service/internal/adapter/httpadapter"
	"github.com/bloomwatch/bloom-eval-service/internal/adapter/inaturalist"
	kafkaadapter "github.com/bloomwatch/bloom-eval-service/internal/adapter/kafka"
	"github.com/bloomwatch/bloom-eval-service/internal/adapter/power"
	"github.com/bloomwatch/bloom-eval-service/internal/config"
	"github.com/bloomwatch/bloom-eval-service/internal/eval"
	"github.com/bloomwatch/bloom-eval-service/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	climate := power.NewClient(cfg.PowerBaseURL, cfg.ProviderTimeout, metrics, logger)
	vegetation := appeears.NewClient(appeears.Options{
		Username:        cfg.EarthdataUsername,
		Password:        cfg.EarthdataPassword,
		BaseURL:         cfg.AppEEARSBaseURL,
		Timeout:         cfg.ProviderTimeout,
		PollInterval:    cfg.PollInterval,
		MaxPollAttempts: cfg.PollMaxAttempts,
	}, metrics, logger)
	observations := inaturalist.NewClient(cfg.INaturalistBaseURL, cfg.ProviderTimeout, metrics, logger)
	landCover := globe.NewClient(cfg.GlobeBaseURL, cfg.ProviderTimeout, metrics, logger)

	// Descriptive text is presentation enrichment; run without it when no
	// API key is configured.
	var describer eval.Describer
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			logger.Error("failed to init description client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		describer = client
		logger.Info("description lookups enabled", "model", cfg.GeminiModel)
	} else {
		logger.Info("description lookups disabled")
	}

	// Result publishing is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var publisher eval.ResultPublisher
	var publisherClose func() error
	if cfg.KafkaEnabled {
		p := kafkaadapter.NewPublisher(cfg, metrics, logger)
		publisher = p
		publisherClose = p.Close
		logger.Info("result publishing enabled", "topic", cfg.KafkaResultsTopic)
	} else {
		logger.Info("result publishing disabled")
	}

	evaluator := eval.New(
		climate, vegetation, observations, describer, publisher,
		cfg.ObservationRadiusKm, cfg.EvaluationTimeout, metrics, logger,
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, evaluator, httpadapter.Providers{
		Climate:      climate,
		Vegetation:   vegetation,
		Observations: observations,
		Globe:        landCover,
	}, cfg.ObservationRadiusKm, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisherClose != nil {
		if err := publisherClose(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
