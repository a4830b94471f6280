package main

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/bookora/libs/config"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/availability"
)

const (
	driverPostgres = "postgres"
	driverMemory   = "memory"
)

type appConfig struct {
	Service     string
	Port        string
	GRPCPort    string
	StoreDriver string
	DatabaseURL string
	SeedFile    string
	AutoMigrate bool
	Location    *time.Location
	Policy      availability.Policy
	LockTimeout time.Duration

	RedisAddr       string
	CatalogCacheTTL time.Duration

	KafkaBrokers       []string
	KafkaGroupID       string
	CatalogEventsTopic string

	JWTSecret          string
	RateLimitPerMinute int
	RequestTimeout     time.Duration
}

func loadConfig() (appConfig, error) {
	var (
		cfg appConfig
		err error
	)
	cfg.Service = config.String("SERVICE_NAME", "booking-service")
	if cfg.Port, err = config.Port("PORT", "8083"); err != nil {
		return cfg, err
	}
	if cfg.GRPCPort, err = config.Port("GRPC_PORT", "9093"); err != nil {
		return cfg, err
	}

	cfg.StoreDriver = config.String("STORE_DRIVER", driverPostgres)
	switch cfg.StoreDriver {
	case driverPostgres:
		if cfg.DatabaseURL, err = config.RequiredString("DATABASE_URL"); err != nil {
			return cfg, err
		}
	case driverMemory:
		if cfg.SeedFile, err = config.RequiredString("CATALOG_SEED_FILE"); err != nil {
			return cfg, fmt.Errorf("memory store needs a catalog: %w", err)
		}
	default:
		return cfg, fmt.Errorf("STORE_DRIVER must be %q or %q (got %q)", driverPostgres, driverMemory, cfg.StoreDriver)
	}
	cfg.AutoMigrate = config.Bool("DB_AUTO_MIGRATE", true)

	if cfg.Location, err = config.Location("TIMEZONE", "UTC"); err != nil {
		return cfg, err
	}

	def := availability.DefaultPolicy()
	if cfg.Policy.Step, err = config.Duration("SLOT_STEP", def.Step); err != nil {
		return cfg, err
	}
	if cfg.Policy.Step <= 0 {
		return cfg, fmt.Errorf("SLOT_STEP must be positive")
	}
	if cfg.Policy.Buffer, err = config.Duration("SLOT_BUFFER", def.Buffer); err != nil {
		return cfg, err
	}
	if cfg.Policy.LeadTime, err = config.Duration("BOOKING_LEAD_TIME", def.LeadTime); err != nil {
		return cfg, err
	}
	if cfg.LockTimeout, err = config.Duration("LOCK_TIMEOUT", 5*time.Second); err != nil {
		return cfg, err
	}

	cfg.RedisAddr = config.String("REDIS_ADDR", "")
	if cfg.CatalogCacheTTL, err = config.Duration("CATALOG_CACHE_TTL", 5*time.Minute); err != nil {
		return cfg, err
	}

	cfg.KafkaBrokers = config.List("KAFKA_BROKERS", "")
	cfg.KafkaGroupID = config.String("KAFKA_GROUP_ID", "booking-service")
	cfg.CatalogEventsTopic = config.String("CATALOG_EVENTS_TOPIC", "catalog.calendar.changed.v1")

	cfg.JWTSecret = config.String("JWT_SECRET", "")
	if cfg.RateLimitPerMinute, err = config.Int("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		return cfg, err
	}
	if cfg.RequestTimeout, err = config.Duration("REQUEST_TIMEOUT", 15*time.Second); err != nil {
		return cfg, err
	}
	return cfg, nil
}
