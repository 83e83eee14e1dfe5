package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dispatchgrid/fulfillment-engine/internal/api"
	"github.com/dispatchgrid/fulfillment-engine/internal/core/service"
	"github.com/dispatchgrid/fulfillment-engine/internal/infrastructure/config"
	mongodb "github.com/dispatchgrid/fulfillment-engine/internal/infrastructure/db/mongo"
	redisdb "github.com/dispatchgrid/fulfillment-engine/internal/infrastructure/db/redis"
	"github.com/dispatchgrid/fulfillment-engine/internal/infrastructure/queue"
	"github.com/dispatchgrid/fulfillment-engine/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// main is the composition root: config, stores, services, workers, router.
func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Stores ---
	mongoClient, db, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	rdb, err := redisdb.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	// --- Repositories ---
	hubRepo := mongodb.NewHubRepository(db)
	zoneRepo := mongodb.NewPartnerZoneRepository(db)
	shipmentRepo := mongodb.NewShipmentRepository(db)
	transitRepo := mongodb.NewTransitTimeRepository(db)
	journeyRepo := mongodb.NewJourneyPlanRepository(db)
	predictionRepo := mongodb.NewPredictionRepository(db)

	for name, ensure := range map[string]func(context.Context) error{
		"hubs":          hubRepo.EnsureIndexes,
		"partner_zones": zoneRepo.EnsureIndexes,
		"shipments":     shipmentRepo.EnsureIndexes,
		"transit_times": transitRepo.EnsureIndexes,
		"journey_plans": journeyRepo.EnsureIndexes,
		"predictions":   predictionRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatal().Err(err).Str("collection", name).Msg("index creation failed")
		}
	}

	// --- Services ---
	engineCfg := cfg.ToEngineConfig()
	clock := clockwork.NewRealClock()

	transitCache := redisdb.NewTransitCache(rdb, cfg.Redis.TransitCacheTTL)
	routingSvc := service.NewRoutingService(hubRepo, zoneRepo, journeyRepo, engineCfg,
		clock, log.With().Str("component", "routing").Logger())
	transitSvc := service.NewTransitTimeService(transitRepo, shipmentRepo, transitCache, engineCfg,
		clock, log.With().Str("component", "transit").Logger())
	riskSvc := service.NewRiskService(hubRepo, shipmentRepo, engineCfg,
		clock, log.With().Str("component", "risk").Logger())
	predictionSvc := service.NewPredictionService(shipmentRepo, predictionRepo, transitSvc, riskSvc,
		engineCfg, clock, log.With().Str("component", "prediction").Logger())

	// --- Background refresh ---
	dispatcher := queue.NewDispatcher(engineCfg.BatchWorkers, predictionSvc,
		log.With().Str("component", "dispatcher").Logger())
	dispatcher.Start(ctx)

	scheduler := queue.NewScheduler(shipmentRepo, dispatcher,
		cfg.Engine.RefreshInterval, cfg.Engine.RefreshBatchSize,
		log.With().Str("component", "scheduler").Logger())
	scheduler.Start(ctx)

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Mongo:       db,
		Redis:       rdb,
		Routing:     routingSvc,
		Transit:     transitSvc,
		Predictions: predictionSvc,
		Log:         log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
