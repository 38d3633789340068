package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/cavea/backoffice/internal/audit"
	"github.com/cavea/backoffice/internal/catalog"
	"github.com/cavea/backoffice/internal/config"
	"github.com/cavea/backoffice/internal/events"
	"github.com/cavea/backoffice/internal/gateway"
	"github.com/cavea/backoffice/internal/httpapi"
	"github.com/cavea/backoffice/internal/observability"
	"github.com/cavea/backoffice/internal/orders"
	"github.com/cavea/backoffice/internal/pkg/breaker"
	"github.com/cavea/backoffice/internal/pkg/retry"
	"github.com/cavea/backoffice/internal/session"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewInmem(1024)

	// Audit storage. The admin surface keeps working without it.
	var recorder audit.Recorder = audit.Noop{}
	if err := audit.RunMigrations(cfg.DSN()); err != nil {
		logger.Error("audit migrations failed, audit disabled", zap.Error(err))
	} else if pool, err := audit.Connect(ctx, cfg.DSN(), logger); err != nil {
		logger.Error("audit db unreachable, audit disabled", zap.Error(err))
	} else {
		defer pool.Close()
		recorder = audit.NewRepo(pool)
	}

	sessions, err := session.NewStore(cfg.SessionFile, logger)
	if err != nil {
		logger.Fatal("session store init failed", zap.Error(err))
	}

	brk := breaker.New(breaker.Options{
		Threshold:   cfg.Breaker.Threshold,
		OpenTimeout: cfg.Breaker.OpenTimeout,
		MaxHalfOpen: cfg.Breaker.MaxHalfOpen,
	})
	readRetry := retry.Policy{
		Attempts:     cfg.Retry.Attempts,
		Base:         cfg.Retry.Base,
		Max:          cfg.Retry.Max,
		JitterFactor: cfg.Retry.JitterFactor,
	}
	gw := gateway.NewClient(cfg.Gateway, readRetry, brk, sessions.Token, logger, metrics)

	refresher := catalog.NewRefresher(gw, cfg.Catalog.RefreshInterval, cfg.Catalog.PageSize, logger, metrics)
	go refresher.Run(ctx)

	orderSvc, err := orders.NewService(cfg.OrderCacheCap, gw, logger, metrics)
	if err != nil {
		logger.Fatal("order service init failed", zap.Error(err))
	}
	go orderSvc.Warm(ctx, 1, 50)

	// Event consumer: a separate breaker so backend order-event refetch storms
	// cannot open the interactive one.
	eventBrk := breaker.New(breaker.Options{
		Threshold:   cfg.Breaker.Threshold,
		OpenTimeout: cfg.Breaker.OpenTimeout,
		MaxHalfOpen: cfg.Breaker.MaxHalfOpen,
	})
	if err := events.EnsureTopic(ctx, cfg.Kafka, 3, 1, logger); err != nil {
		logger.Warn("could not ensure kafka topic, consuming anyway", zap.Error(err))
	}
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Kafka.Topic,
		GroupID:        cfg.Kafka.Group,
		MinBytes:       1,
		MaxBytes:       10 << 20,
		CommitInterval: 0, // explicit commits
	})
	defer func() { _ = reader.Close() }()

	handler := events.NewHandler(orderSvc, eventBrk, cfg.Retry, logger, metrics)
	consumer := events.NewConsumer(handler, reader, cfg.Kafka.Workers, logger)
	go consumer.Start(ctx)

	server := httpapi.New(gw, orderSvc, refresher, sessions, recorder, logger, metrics)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("admin server listening", zap.String("addr", cfg.HTTPAddr))
		errCh <- server.ListenAndServe(ctx, cfg.HTTPAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
		select {
		case <-errCh:
		case <-time.After(10 * time.Second):
			logger.Warn("shutdown timed out")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.Error(err))
		}
	}
	logger.Info("server stopped")
}
