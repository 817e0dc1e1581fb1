package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/ecom/internal/health"
	"github.com/vladislavdragonenkov/ecom/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/ecom/internal/metrics"
	"github.com/vladislavdragonenkov/ecom/internal/service/idempotency"
	ordersvc "github.com/vladislavdragonenkov/ecom/internal/service/order"
	"github.com/vladislavdragonenkov/ecom/internal/service/outbox"
	"github.com/vladislavdragonenkov/ecom/internal/service/rest"
	"github.com/vladislavdragonenkov/ecom/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Run собирает приложение и обслуживает API до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	// Kafka опционален: без брокеров события остаются в outbox.
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)

	workersCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	var workers sync.WaitGroup

	var auditConsumer *kafka.Consumer
	if kafkaProducer != nil {
		auditConsumer, err = startEventAudit(workersCtx, cfg, kafkaProducer, logger)
		if err != nil {
			logger.WithError(err).Warn("failed to start event audit consumer")
		}
	}
	defer closeKafka(kafkaProducer, auditConsumer, logger)

	if kafkaProducer != nil {
		publisher := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicOrderEvents)
		dlqPublisher := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicDeadLetterQueue)
		worker := outbox.NewWorker(deps.OutboxRepo, publisher, outbox.WithDLQPublisher(dlqPublisher))
		workers.Add(1)
		go func() {
			defer workers.Done()
			worker.Run(workersCtx)
		}()
	}

	cleanupWorker := idempotency.NewCleanupWorker(deps.IdemRepo)
	workers.Add(1)
	go func() {
		defer workers.Done()
		cleanupWorker.Run(workersCtx)
	}()

	orderMetrics := metrics.NewOrderMetrics()
	validator := ordersvc.NewValidator(deps.RefChecker)
	manager := ordersvc.NewManager(
		deps.OrderRepo,
		validator,
		deps.OutboxRepo,
		deps.TimelineRepo,
		orderMetrics,
		logger.WithField("layer", "order"),
	)

	router := rest.NewRouter(rest.RouterConfig{
		OrderHandler:   rest.NewOrderHandler(manager, deps.IdemRepo, logger.WithField("layer", "http")),
		CatalogHandler: rest.NewCatalogHandler(deps.Catalog, logger.WithField("layer", "http")),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	healthHandler := healthcheck.NewHandler(version.String())
	if deps.Store != nil {
		store := deps.Store
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			return store.Ping(context.Background())
		}))
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)

		stopWorkers()
		workers.Wait()

		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)

		stopWorkers()
		workers.Wait()

		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает служебный листенер: метрики и health checks.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez", addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
