package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rvillegas/onboardtrack-backend/internal/comments"
	"github.com/rvillegas/onboardtrack-backend/internal/watch"
	"github.com/rvillegas/onboardtrack-backend/pkg/config"
	"github.com/rvillegas/onboardtrack-backend/pkg/db"
	"github.com/rvillegas/onboardtrack-backend/pkg/logger"
	"github.com/rvillegas/onboardtrack-backend/pkg/metrics"
	"github.com/rvillegas/onboardtrack-backend/pkg/migrate"
	"github.com/rvillegas/onboardtrack-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "poller"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "poller"

	logg = logger.New(logger.Options{
		ServiceName: "poller",
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

	pollerMetrics := metrics.NewPollerMetrics(prometheus.DefaultRegisterer)

	commentRepo := comments.NewRepository(dbClient.DB())
	watchStore := watch.NewRedisStore(redisClient, cfg.Watch.StateTTL)
	watchService, err := watch.NewService(commentRepo, watchStore, cfg.Watch.NotificationCap, logg, pollerMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create watch service", err)
		os.Exit(1)
	}

	lock, err := watch.NewRedisLock(redisClient, redisClient.WatchLockKey(cfg.App.Env), cfg.Watch.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create poll lock", err)
		os.Exit(1)
	}

	scopes := cfg.Watch.Scopes
	poller, err := watch.NewPoller(watch.PollerParams{
		Name:     "comments",
		Interval: cfg.Watch.CommentPollInterval,
		Run: func(ctx context.Context) error {
			return watchService.CycleAll(ctx, scopes)
		},
		Logger:  logg,
		Metrics: pollerMetrics,
		Lock:    lock,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create poller", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"scopes":      scopes,
	})
	logg.Info(ctx, "starting change poller")

	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "poller stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "poller shutting down gracefully")
}
