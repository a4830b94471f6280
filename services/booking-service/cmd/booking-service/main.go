package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/md-rashed-zaman/bookora/libs/db"
	"github.com/md-rashed-zaman/bookora/libs/httpx"
	"github.com/md-rashed-zaman/bookora/libs/kafkax"
	"github.com/md-rashed-zaman/bookora/libs/metrics"
	otelx "github.com/md-rashed-zaman/bookora/libs/otel"
	"github.com/md-rashed-zaman/bookora/libs/runtime"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/catalog"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/consumer"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/grpcserver"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/inbox"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/bookora/services/booking-service/migrations"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(runHealthcheck())
	}

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := runtime.NewLogger(cfg.Service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.Service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	collector := metrics.NewCollector("bookora")
	checks := []runtime.ReadyCheck{
		{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)},
	}

	var (
		origin   booking.Catalog
		store    booking.Store
		eventBox consumer.Inbox
	)
	switch cfg.StoreDriver {
	case driverMemory:
		mem := storage.NewMemory(cfg.LockTimeout)
		seed, err := storage.LoadSeedFile(mem, cfg.SeedFile)
		if err != nil {
			logger.Error("catalog seed failed", "err", err)
			os.Exit(1)
		}
		origin, store, eventBox = mem, mem, inbox.NewMemory(0)
		logger.Warn("using in-memory store; bookings are lost on restart and events are not published",
			"calendars", len(seed.Calendars), "services", len(seed.Services))
	default:
		pool, err := db.Open(ctx, cfg.DatabaseURL, db.PoolConfig{})
		if err != nil {
			logger.Error("db connection failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		if cfg.AutoMigrate {
			applied, err := db.Migrate(ctx, pool, migrations.FS)
			if err != nil {
				logger.Error("db migration failed", "err", err)
				os.Exit(1)
			}
			if len(applied) > 0 {
				logger.Info("db migrations applied", "versions", applied)
			}
		}

		outboxRepo := outbox.NewRepository()
		origin = storage.NewCatalogRepository(pool)
		store = storage.NewBookingRepository(pool, outboxRepo, cfg.LockTimeout)
		eventBox = inbox.NewRepository(pool)
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})

		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			PollEvery: 2 * time.Second,
			BatchSize: 50,
			Metrics:   collector,
		})
		runtime.Go(ctx, logger, "outbox-publisher", stop, publisher.Run)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})

		cache := catalog.New(origin, rdb, catalog.Config{TTL: cfg.CatalogCacheTTL}, logger, collector)
		origin = cache
		if len(cfg.KafkaBrokers) > 0 && cfg.CatalogEventsTopic != "" {
			changes := consumer.New(logger, eventBox, consumer.Config{
				Brokers: cfg.KafkaBrokers,
				GroupID: cfg.KafkaGroupID,
				Topic:   cfg.CatalogEventsTopic,
			}, cache.HandleChange)
			runtime.Go(ctx, logger, "catalog-consumer", stop, changes.Run)
		}
	}

	svc := booking.NewService(origin, store, booking.Options{
		Policy:   cfg.Policy,
		Location: cfg.Location,
		Logger:   logger,
		Metrics:  collector,
	})
	bookingHandler := handlers.NewBookingHandler(svc, cfg.Location, logger)

	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("/metrics", collector.Handler())
	for path, fn := range bookingHandler.Routes() {
		mux.Handle(path, collector.Route(path, fn))
	}

	var limiter httpx.Middleware
	if rdb != nil {
		limiter = httpx.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, "bookora:ratelimit").Middleware(logger, true)
	} else {
		limiter = httpx.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute).Middleware()
	}

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		handlers.Authenticate(cfg.JWTSecret, time.Now),
		limiter,
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(cfg.RequestTimeout),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	health := grpcserver.New(logger, checks...)
	runtime.Go(ctx, logger, "grpc-health", stop, func(ctx context.Context) {
		health.Watch(ctx, 10*time.Second)
	})
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Error("grpc listen failed", "err", err)
		os.Exit(1)
	}
	go func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := health.GRPC().Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		logger.Info("http server starting", "addr", srv.Addr,
			"store", cfg.StoreDriver, "timezone", cfg.Location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	health.GRPC().GracefulStop()
	logger.Info("servers stopped")
}
