package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dispatchgrid/fulfillment-engine/internal/api/handler"
	"github.com/dispatchgrid/fulfillment-engine/internal/core/ports"
)

// Dependencies carries everything the router needs. Services are constructed
// in main so the refresh dispatcher can share the same prediction service.
type Dependencies struct {
	Mongo       *mongo.Database
	Redis       *redis.Client
	Routing     ports.RoutingService
	Transit     ports.TransitTimeService
	Predictions ports.PredictionService
	Log         zerolog.Logger
}

// NewRouter builds the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("fulfillment"))

	// --- Handlers ---
	routingHandler := handler.NewRoutingHandler(deps.Routing)
	transitHandler := handler.NewTransitHandler(deps.Transit)
	predictionHandler := handler.NewPredictionHandler(deps.Predictions)
	healthHandler := handler.NewHealthHandler(deps.Mongo, deps.Redis)

	// --- Routing ---
	e.GET("/v1/routes/decision", routingHandler.Decide)
	e.POST("/v1/journey-plans", routingHandler.CreatePlan)

	// --- Transit times ---
	e.GET("/v1/transit-time", transitHandler.Estimate)
	e.POST("/v1/transit-times/aggregate", transitHandler.Aggregate)

	// --- Predictions ---
	e.GET("/v1/shipments/:awb/prediction", predictionHandler.Get)
	e.POST("/v1/shipments/:awb/prediction", predictionHandler.Refresh)
	e.POST("/v1/predictions/batch", predictionHandler.Batch)

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	return e
}
