// Command api starts the exercise tracker HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"example.com/exercisetracker/internal/api"
	"example.com/exercisetracker/internal/config"
	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/events"
	"example.com/exercisetracker/internal/persistence"
	httptransport "example.com/exercisetracker/internal/transport/http"
	"example.com/exercisetracker/internal/web"
)

func main() {
	cfg := config.Load()

	logger := newLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := persistence.Open(ctx, persistence.Options{
		URL:           cfg.StorageURL,
		MongoDatabase: cfg.MongoDatabase,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}

	opts := []domain.Option{domain.WithLogger(logger)}
	var publisher *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.EventsTopic)
		opts = append(opts, domain.WithPublisher(publisher))
		logger.Info("publishing events",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.EventsTopic),
		)
	}

	service := domain.NewService(store.Repository, opts...)

	mux := http.NewServeMux()
	api.NewHandler(service, logger).RegisterRoutes(mux)
	web.RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}, httptransport.Chain(mux,
		httptransport.Recover(logger),
		httptransport.RequestLogger(logger),
		httptransport.CORS(cfg.CORSAllowedOrigins),
	))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("exercise tracker listening",
			zap.String("addr", cfg.HTTPAddress),
			zap.String("storage", string(store.Backend)),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		exitCode = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Warn("closing event publisher", zap.Error(err))
		}
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Warn("closing storage", zap.Error(err))
	}

	logger.Info("shutdown complete")
	if exitCode != 0 {
		_ = logger.Sync()
		os.Exit(exitCode)
	}
}

// newLogger builds a JSON production logger, or a console logger when debugging.
func newLogger(level string) *zap.Logger {
	var zcfg zap.Config
	if level == "debug" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			lvl = zapcore.InfoLevel
		}
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
