package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/md-rashed-zaman/apptbook/libs/config"
	"github.com/md-rashed-zaman/apptbook/libs/db"
	"github.com/md-rashed-zaman/apptbook/libs/grpcx"
	"github.com/md-rashed-zaman/apptbook/libs/httpx"
	"github.com/md-rashed-zaman/apptbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/apptbook/libs/otel"
	"github.com/md-rashed-zaman/apptbook/libs/runtime"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/cache"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/settings"
	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/storage"
)

const (
	serviceName = "booking-service"
	maxBodySize = 1 << 20
)

func main() {
	if err := config.Load(); err != nil {
		slog.Error("load env file", "err", err)
		os.Exit(1)
	}
	cfg, err := settings.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := runtime.NewLogger(config.String("SERVICE_NAME", serviceName), cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("booking-service exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg settings.Settings, logger *slog.Logger) error {
	ctx, stop := runtime.SignalContext(context.Background(), logger)
	defer stop()

	otelCfg, err := otelx.ConfigFromEnv(serviceName)
	if err != nil {
		return err
	}
	otelShutdown, err := otelx.Setup(ctx, otelCfg)
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	zone, err := availability.LoadZone(cfg.BusinessTimezone)
	if err != nil {
		return err
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL, db.Options{})
	if err != nil {
		return err
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBookingMetrics(reg)

	checks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}

	var limiter httpx.Limiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = httpx.NewMemoryRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	}

	deps := booking.Deps{
		DB:           pool,
		Catalog:      storage.NewCatalogRepository(pool),
		Schedules:    storage.NewScheduleRepository(pool),
		Appointments: storage.NewAppointmentRepository(pool),
		Idempotency:  storage.NewIdempotencyRepository(),
		Outbox:       outbox.NewRepository(),
		Zone:         zone,
		Metrics:      bookingMetrics,
		Logger:       logger,
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		rdb := redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()

		deps.Cache = cache.NewScheduleCache(rdb, cfg.ScheduleCacheTTL, "apptbook", logger)
		if cfg.RateLimitPerMinute > 0 {
			limiter = httpx.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, "apptbook:ratelimit")
		}
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Optional: true, Check: cache.ReadyCheck(rdb)})
	} else {
		logger.Warn("REDIS_URL not set; schedule cache disabled and rate limiting is per process")
	}

	publisher := outbox.NewPublisher(pool, outbox.NewRepository(), logger, outbox.PublisherConfig{
		Brokers:   cfg.KafkaBrokers,
		PollEvery: cfg.OutboxPollEvery,
		BatchSize: cfg.OutboxBatchSize,
		OnBatch:   bookingMetrics.ObserveOutboxPublished,
	})
	if publisher.Enabled() {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Optional: true, Check: kafkax.ReadyCheck(kafkax.SplitBrokers(cfg.KafkaBrokers))})
	} else {
		logger.Warn("KAFKA_BROKERS not set; appointment events stay in the outbox")
	}
	go publisher.Run(ctx)

	svc := booking.New(deps)

	var public []httpx.Middleware
	if limiter != nil {
		public = append(public, httpx.WithRateLimit(limiter, logger, cfg.RateLimitFailOpen))
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	handlers.New(svc, logger).Register(mux, public...)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithCORS(httpx.DefaultCORSPolicy(cfg.CORSAllowedOrigins)),
		httpx.WithBodyLimit(maxBodySize),
		httpx.WithTimeout(cfg.RequestTimeout),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcSrv := grpcx.NewServer(logger)
	grpcSrv.SetServing(serviceName, true)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return err
	}
	go func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := grpcSrv.Serve(ctx, lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "time_zone", zone.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		stop()
		return err
	}

	grpcSrv.SetServing(serviceName, false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
	return nil
}
