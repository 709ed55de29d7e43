package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/roperito/roperito-backend/api"
	"github.com/roperito/roperito-backend/internal/cron"
	"github.com/roperito/roperito-backend/internal/notifications"
	"github.com/roperito/roperito-backend/internal/orders"
	"github.com/roperito/roperito-backend/pkg/config"
	"github.com/roperito/roperito-backend/pkg/db"
	"github.com/roperito/roperito-backend/pkg/logger"
	"github.com/roperito/roperito-backend/pkg/metrics"
	"github.com/roperito/roperito-backend/pkg/migrate"
	"github.com/roperito/roperito-backend/pkg/redis"
)

const cronLockName = "cron-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	registry := prometheus.NewRegistry()

	// The worker holds no websocket sessions; cancellations reach users
	// through the API instances subscribed to the bridge.
	relay := notifications.NewRelay(notifications.NewRegistry(nil), notifications.NewBridge(redisClient, logg), logg)

	orderService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, relay, metrics.NewOrderMetrics(registry))
	if err != nil {
		return err
	}

	expiry, err := cron.NewOrderExpiryJob(cron.OrderExpiryJobParams{
		Logger:    logg,
		Orders:    orderService,
		TTL:       cfg.Cron.PendingOrderTTL,
		BatchSize: cfg.Cron.BatchSize,
	})
	if err != nil {
		return err
	}
	jobs, err := cron.NewRegistry(expiry)
	if err != nil {
		return err
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cronLockName), cfg.Cron.LockTTL)
	if err != nil {
		return err
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(registry),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return err
	}

	mux := chi.NewRouter()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	metricsServer := api.NewServer(cfg, mux)

	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Cron.Interval.String(),
		"addr":     metricsServer.Addr,
	})

	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics listener stopped", err)
		}
	}()

	logg.Info(ctx, "starting cron worker")
	runErr := service.Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), api.ShutdownTimeout)
	defer cancel()
	logg.Info(ctx, "cron worker shutting down gracefully")
	return multierr.Append(runErr, metricsServer.Shutdown(shutdownCtx))
}
