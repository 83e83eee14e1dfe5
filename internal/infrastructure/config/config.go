package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/service"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Mongo  MongoConfig
	Redis  RedisConfig
	Engine EngineConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=fulfillment_engine"`
}

type RedisConfig struct {
	Addr            string        `env:"REDIS_ADDR, default=localhost:6379"`
	DB              int           `env:"REDIS_DB,   default=0"`
	TransitCacheTTL time.Duration `env:"TRANSIT_CACHE_TTL, default=15m"`
}

// EngineConfig exposes the tunable subset of the engine's business constants.
// Anything not listed here keeps its default from service.DefaultEngineConfig.
type EngineConfig struct {
	DefaultPartnerTATDays  int           `env:"ENGINE_DEFAULT_PARTNER_TAT_DAYS, default=5"`
	HighRiskScore          float64       `env:"ENGINE_HIGH_RISK_SCORE,          default=60"`
	MediumRiskScore        float64       `env:"ENGINE_MEDIUM_RISK_SCORE,        default=30"`
	CongestionThresholdPct float64       `env:"ENGINE_CONGESTION_THRESHOLD_PCT, default=70"`
	BatchWorkers           int           `env:"ENGINE_BATCH_WORKERS,            default=8"`
	MaxBatchLimit          int           `env:"ENGINE_MAX_BATCH_LIMIT,          default=500"`
	RefreshInterval        time.Duration `env:"ENGINE_REFRESH_INTERVAL,         default=0"`
	RefreshBatchSize       int           `env:"ENGINE_REFRESH_BATCH_SIZE,       default=1000"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}

// ToEngineConfig merges the env-tunable values over the engine defaults.
func (c *Config) ToEngineConfig() service.EngineConfig {
	engine := service.DefaultEngineConfig()
	engine.DefaultPartnerTATDays = c.Engine.DefaultPartnerTATDays
	engine.HighRiskScore = c.Engine.HighRiskScore
	engine.MediumRiskScore = c.Engine.MediumRiskScore
	engine.CongestionThresholdPct = c.Engine.CongestionThresholdPct
	engine.BatchWorkers = c.Engine.BatchWorkers
	engine.MaxBatchLimit = c.Engine.MaxBatchLimit
	return engine
}
