package main

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/festival-live-api/internal/broadcast"
	"github.com/noah-isme/festival-live-api/internal/handler"
	"github.com/noah-isme/festival-live-api/internal/repository"
	"github.com/noah-isme/festival-live-api/internal/service"
	"github.com/noah-isme/festival-live-api/migrations"
	"github.com/noah-isme/festival-live-api/pkg/cache"
	"github.com/noah-isme/festival-live-api/pkg/config"
	"github.com/noah-isme/festival-live-api/pkg/database"
)

// app holds the server-side dependency graph shared by serve, seed and cleanup.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sqlx.DB
	redis  *redis.Client

	metrics    *service.MetricsService
	bus        *broadcast.Bus
	cacheRepo  *repository.CacheRepository
	resultRepo *repository.ResultRepository

	results      *service.ResultService
	leaderboard  *service.LeaderboardService
	finalize     *service.FinalizeService
	events       *service.EventService
	institutions *service.InstitutionService
	export       *service.ExportService
	seed         *service.SeedService
}

func newApp(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*app, error) {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	applied, err := database.Migrate(ctx, db, migrations.Files)
	if err != nil {
		db.Close()
		return nil, err
	}
	if len(applied) > 0 {
		logr.Info("migrations applied", zap.Strings("versions", applied))
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		db.Close()
		return nil, err
	}

	a := &app{cfg: cfg, logger: logr, db: db, redis: redisClient}
	a.metrics = service.NewMetricsService()
	a.bus = broadcast.NewBus(cfg.Stream.SubscriberBuffer, logr.Named("broadcast"), a.metrics.Registerer())

	validate := validator.New()
	a.resultRepo = repository.NewResultRepository(db)
	eventRepo := repository.NewEventRepository(db)
	institutionRepo := repository.NewInstitutionRepository(db)
	stateRepo := repository.NewFestivalStateRepository(db)
	a.cacheRepo = repository.NewCacheRepository(redisClient, logr.Named("cache"))

	cacheSvc := service.NewCacheService(a.cacheRepo, a.metrics, cfg.Leaderboard.CacheTTL, logr.Named("cache"), cfg.Leaderboard.CacheEnabled && redisClient != nil)

	a.results = service.NewResultService(a.resultRepo, eventRepo, institutionRepo, a.bus, cacheSvc, validate, logr.Named("results"), service.ResultServiceConfig{
		TxTimeout: cfg.Database.TxTimeout,
	}).WithMetrics(a.metrics)
	a.leaderboard = service.NewLeaderboardService(a.resultRepo, institutionRepo, cacheSvc, cfg.Leaderboard.CacheTTL, logr.Named("leaderboard"))
	a.finalize = service.NewFinalizeService(stateRepo, a.bus, logr.Named("finalize"))
	a.events = service.NewEventService(eventRepo, validate, logr.Named("events"))
	a.institutions = service.NewInstitutionService(institutionRepo)
	a.export = service.NewExportService(a.leaderboard, cfg.Leaderboard.Limit, logr.Named("export"), nil, nil)
	a.seed = service.NewSeedService(institutionRepo, eventRepo, a.results, a.resultRepo, logr.Named("seed"), time.Now().UnixNano())

	return a, nil
}

func (a *app) databasePinger() handler.Pinger {
	return func(ctx context.Context) error {
		return database.Ping(ctx, a.db)
	}
}

func (a *app) cachePinger() handler.Pinger {
	if a.redis == nil {
		return nil
	}
	return a.cacheRepo.Ping
}

func (a *app) close() {
	a.bus.Close()
	if err := a.cacheRepo.Close(); err != nil {
		a.logger.Warn("close redis", zap.Error(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("close database", zap.Error(err))
	}
}
