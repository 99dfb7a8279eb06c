package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/room-scheduling-api/internal/handler"
	"github.com/noah-isme/room-scheduling-api/internal/repository"
	"github.com/noah-isme/room-scheduling-api/internal/scheduling"
	"github.com/noah-isme/room-scheduling-api/internal/service"
	"github.com/noah-isme/room-scheduling-api/pkg/cache"
	"github.com/noah-isme/room-scheduling-api/pkg/config"
	"github.com/noah-isme/room-scheduling-api/pkg/database"
	"github.com/noah-isme/room-scheduling-api/pkg/lock"
	"github.com/noah-isme/room-scheduling-api/pkg/logger"
)

// @title Room Scheduling API
// @version 1.0.0
// @description Room assignment, conflict detection and occupancy for weekly activities
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB, logr); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching and distributed locks disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	app := buildApp(cfg, db, redisClient, logr)
	if err := app.occupancyCache.PurgeCache(ctx); err != nil {
		logr.Warn("stale occupancy summaries may be served until they expire", zap.Error(err))
	}
	router := newRouter(cfg, app, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "lock_backend", cfg.Scheduling.LockBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

type application struct {
	tokens       *service.TokenService
	metrics      *service.MetricsService
	assignments  *handler.RoomAssignmentHandler
	availability *handler.RoomAvailabilityHandler
	occupancy    *handler.RoomOccupancyHandler
	observe      *handler.MetricsHandler

	occupancyCache *service.RoomOccupancyService
}

func buildApp(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) *application {
	validate := validator.New()
	metrics := service.NewMetricsService()

	roomRepo := repository.NewRoomRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	assignmentRepo := repository.NewRoomAssignmentRepository(db)
	punctualRepo := repository.NewPunctualReservationRepository(db)
	sectionRepo := repository.NewSectionReservationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Occupancy.CacheTTL, logr, cfg.Occupancy.CacheEnabled && cacheRepo.Enabled())

	detector := service.NewConflictDetector(roomRepo, []service.BookingSource{
		service.NewActivityBookingSource(assignmentRepo, activityRepo, logr),
		service.NewPunctualBookingSource(punctualRepo, cfg.Scheduling.Location(), time.Now),
		service.NewSectionBookingSource(sectionRepo, logr),
	}, metrics, logr)

	occupancySvc := service.NewRoomOccupancyService(roomRepo, assignmentRepo, punctualRepo, sectionRepo, cacheSvc, cfg.Occupancy.CacheTTL, logr)

	assignmentSvc := service.NewRoomAssignmentService(
		activityRepo,
		roomRepo,
		assignmentRepo,
		detector,
		newLocker(cfg.Scheduling, redisClient, logr),
		occupancySvc,
		metrics,
		validate,
		logr,
		service.RoomAssignmentConfig{CompensateChangeRoom: cfg.Scheduling.CompensateChangeRoom},
	)

	score := cfg.Scheduling.Score
	availabilitySvc := service.NewRoomAvailabilityService(activityRepo, roomRepo, assignmentRepo, detector, scheduling.ScoreWeights{
		Base:            score.Base,
		ConflictPenalty: score.ConflictPenalty,
		ExcessThreshold: score.ExcessThreshold,
		ExcessFactor:    score.ExcessFactor,
		EquipmentBonus:  score.EquipmentBonus,
	}, metrics, logr)

	return &application{
		tokens:       service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}),
		metrics:      metrics,
		assignments:  handler.NewRoomAssignmentHandler(assignmentSvc),
		availability: handler.NewRoomAvailabilityHandler(availabilitySvc),
		occupancy:    handler.NewRoomOccupancyHandler(occupancySvc),
		observe: handler.NewMetricsHandler(metrics, map[string]handler.Pinger{
			"database": db,
			"cache":    handler.PingFunc(cacheRepo.Ping),
		}),
		occupancyCache: occupancySvc,
	}
}

func newLocker(cfg config.SchedulingConfig, redisClient *redis.Client, logr *zap.Logger) lock.Locker {
	if cfg.LockBackend == config.LockBackendRedis {
		if redisClient != nil {
			return lock.NewRedisLocker(redisClient, lock.RedisLockerConfig{Prefix: "lock:", TTL: cfg.LockTTL, Wait: cfg.LockWait})
		}
		logr.Warn("redis lock backend requested without redis, falling back to in-process locks")
	}
	return lock.NewLocalLocker(cfg.LockWait)
}
