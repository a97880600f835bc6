package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rvillegas/onboardtrack-backend/api/routes"
	"github.com/rvillegas/onboardtrack-backend/internal/assignments"
	"github.com/rvillegas/onboardtrack-backend/internal/catalog"
	"github.com/rvillegas/onboardtrack-backend/internal/comments"
	"github.com/rvillegas/onboardtrack-backend/internal/steps"
	"github.com/rvillegas/onboardtrack-backend/internal/subjects"
	"github.com/rvillegas/onboardtrack-backend/internal/watch"
	"github.com/rvillegas/onboardtrack-backend/pkg/config"
	"github.com/rvillegas/onboardtrack-backend/pkg/db"
	"github.com/rvillegas/onboardtrack-backend/pkg/logger"
	"github.com/rvillegas/onboardtrack-backend/pkg/metrics"
	"github.com/rvillegas/onboardtrack-backend/pkg/migrate"
	"github.com/rvillegas/onboardtrack-backend/pkg/redis"
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

	gormDB := dbClient.DB()
	catalogRepo := catalog.NewRepository(gormDB)
	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	assignmentService, err := assignments.NewService(
		assignments.NewRepository(gormDB),
		catalogRepo,
		subjects.NewRepository(gormDB),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create assignment service", err)
		os.Exit(1)
	}

	stepService, err := steps.NewService(steps.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create step service", err)
		os.Exit(1)
	}

	commentRepo := comments.NewRepository(gormDB)
	commentService, err := comments.NewService(commentRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create comment service", err)
		os.Exit(1)
	}

	pollerMetrics := metrics.NewPollerMetrics(prometheus.DefaultRegisterer)
	watchStore := watch.NewRedisStore(redisClient, cfg.Watch.StateTTL)
	watchService, err := watch.NewService(commentRepo, watchStore, cfg.Watch.NotificationCap, logg, pollerMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create watch service", err)
		os.Exit(1)
	}

	statsCollector, err := watch.NewStatsCollector(watch.NewRepository(gormDB), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stats collector", err)
		os.Exit(1)
	}

	statsPoller, err := watch.NewPoller(watch.PollerParams{
		Name:     "stats",
		Interval: cfg.Watch.StatsPollInterval,
		Run:      statsCollector.Refresh,
		Logger:   logg,
		Metrics:  pollerMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stats poller", err)
		os.Exit(1)
	}

	pollCtx, cancelPoll := context.WithCancel(context.Background())
	defer cancelPoll()
	go func() {
		_ = statsPoller.Run(pollCtx)
	}()

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
		Handler: routes.NewRouter(routes.Deps{
			Config:         cfg,
			Logger:         logg,
			DBPinger:       dbClient,
			RedisPinger:    redisClient,
			Catalog:        catalogService,
			Assignments:    assignmentService,
			Steps:          stepService,
			Comments:       commentService,
			Watch:          watchService,
			StatsCollector: statsCollector,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
