package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tallyops/reportdesk-backend/api/routes"
	"github.com/tallyops/reportdesk-backend/internal/activation"
	"github.com/tallyops/reportdesk-backend/internal/clock"
	"github.com/tallyops/reportdesk-backend/internal/orders"
	"github.com/tallyops/reportdesk-backend/internal/settings"
	"github.com/tallyops/reportdesk-backend/pkg/config"
	"github.com/tallyops/reportdesk-backend/pkg/db"
	"github.com/tallyops/reportdesk-backend/pkg/logger"
	"github.com/tallyops/reportdesk-backend/pkg/metrics"
	"github.com/tallyops/reportdesk-backend/pkg/migrate"
	"github.com/tallyops/reportdesk-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	settingsRepo := settings.NewRepository(dbClient.DB())
	clockService := clock.NewService(settingsRepo, redisClient, cfg.Clock.DefaultTimezone, settings.KeyTimezone, logg)
	activationService := activation.NewService(
		activation.NewRepository(dbClient.DB()),
		settingsRepo,
		logg,
		activation.Options{
			CodeTTL:          cfg.Activation.CodeTTL,
			MaxIssueAttempts: cfg.Activation.MaxIssueAttempts,
		},
	)
	orderService := orders.NewService(
		orders.NewRepository(dbClient.DB()),
		orders.NewNotifier(redisClient, logg),
		clockService,
		logg,
		metrics.NewReviewMetrics(prometheus.DefaultRegisterer),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			settingsRepo,
			clockService,
			activationService,
			orderService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
