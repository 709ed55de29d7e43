package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/roperito/roperito-backend/api"
	"github.com/roperito/roperito-backend/api/controllers"
	"github.com/roperito/roperito-backend/api/routes"
	"github.com/roperito/roperito-backend/internal/auth"
	"github.com/roperito/roperito-backend/internal/favorites"
	"github.com/roperito/roperito-backend/internal/inquiries"
	"github.com/roperito/roperito-backend/internal/notifications"
	"github.com/roperito/roperito-backend/internal/orders"
	productsvc "github.com/roperito/roperito-backend/internal/products"
	"github.com/roperito/roperito-backend/internal/ratings"
	"github.com/roperito/roperito-backend/internal/users"
	"github.com/roperito/roperito-backend/pkg/auth/session"
	"github.com/roperito/roperito-backend/pkg/config"
	"github.com/roperito/roperito-backend/pkg/db"
	"github.com/roperito/roperito-backend/pkg/logger"
	"github.com/roperito/roperito-backend/pkg/metrics"
	"github.com/roperito/roperito-backend/pkg/migrate"
	"github.com/roperito/roperito-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sessions := notifications.NewRegistry(metrics.NewRelayMetrics(registry))
	var (
		publisher notifications.Publisher
		bridge    *notifications.Bridge
	)
	if cfg.FeatureFlags.RealtimeBridge {
		bridge = notifications.NewBridge(redisClient, logg)
		publisher = bridge
	}
	relay := notifications.NewRelay(sessions, publisher, logg)

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	productRepo := productsvc.NewRepository(gormDB)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return err
	}
	userService, err := users.NewService(userRepo, dbClient)
	if err != nil {
		return err
	}
	productService, err := productsvc.NewService(productRepo, dbClient)
	if err != nil {
		return err
	}
	catalog, err := productsvc.NewCatalog(productRepo)
	if err != nil {
		return err
	}
	favoriteService, err := favorites.NewService(favorites.NewRepository(gormDB), dbClient)
	if err != nil {
		return err
	}
	orderService, err := orders.NewService(orders.NewRepository(gormDB), dbClient, relay, metrics.NewOrderMetrics(registry))
	if err != nil {
		return err
	}
	inquiryService, err := inquiries.NewService(inquiries.NewRepository(gormDB), dbClient, relay)
	if err != nil {
		return err
	}
	ratingService, err := ratings.NewService(ratings.NewRepository(gormDB), dbClient)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Gatherer: registry,
		Metrics:  metrics.NewHTTPMetrics(registry),
		Ready: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		Sessions:  sessionManager,
		Redis:     redisClient,
		Auth:      authService,
		Users:     userService,
		Products:  productService,
		Catalog:   catalog,
		Favorites: favoriteService,
		Orders:    orderService,
		Inquiries: inquiryService,
		Ratings:   ratingService,
		Realtime:  sessions,
	})

	server := api.NewServer(cfg, handler)
	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"addr":   server.Addr,
		"bridge": bridge != nil,
	})

	if bridge != nil {
		go func() {
			if err := bridge.Run(ctx, relay); err != nil {
				logg.Error(ctx, "realtime bridge stopped", err)
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), api.ShutdownTimeout)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown.
	shutdownErr := multierr.Combine(server.Shutdown(shutdownCtx), sessions.CloseAll())
	return multierr.Append(shutdownErr, <-serveErr)
}
