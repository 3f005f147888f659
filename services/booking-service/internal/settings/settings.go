package settings

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/apptbook/libs/config"
)

type Settings struct {
	Port         string
	GRPCPort     string
	DatabaseURL  string
	RedisURL     string
	KafkaBrokers string
	LogLevel     string

	BusinessTimezone string
	ScheduleCacheTTL time.Duration

	RateLimitPerMinute int
	RateLimitFailOpen  bool
	CORSAllowedOrigins []string

	OutboxPollEvery time.Duration
	OutboxBatchSize int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func FromEnv() (Settings, error) {
	var s Settings
	var err error

	if s.Port, err = config.Port("PORT", "8083"); err != nil {
		return Settings{}, err
	}
	if s.GRPCPort, err = config.Port("GRPC_PORT", "9093"); err != nil {
		return Settings{}, err
	}
	if s.DatabaseURL, err = config.RequiredString("DATABASE_URL"); err != nil {
		return Settings{}, err
	}
	s.RedisURL = config.String("REDIS_URL", "")
	s.KafkaBrokers = config.String("KAFKA_BROKERS", "")
	s.LogLevel = config.String("LOG_LEVEL", "info")
	s.BusinessTimezone = config.String("BUSINESS_TIMEZONE", "America/Los_Angeles")

	if s.ScheduleCacheTTL, err = config.Duration("SCHEDULE_CACHE_TTL", 5*time.Minute); err != nil {
		return Settings{}, err
	}
	if s.RateLimitPerMinute, err = config.Int("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		return Settings{}, err
	}
	if s.RateLimitPerMinute < 0 {
		return Settings{}, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be >= 0 (got %d)", s.RateLimitPerMinute)
	}
	s.RateLimitFailOpen = config.Bool("RATE_LIMIT_FAIL_OPEN", true)
	s.CORSAllowedOrigins = config.List("CORS_ALLOWED_ORIGINS")

	if s.OutboxPollEvery, err = config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second); err != nil {
		return Settings{}, err
	}
	if s.OutboxBatchSize, err = config.Int("OUTBOX_BATCH_SIZE", 50); err != nil {
		return Settings{}, err
	}
	if s.RequestTimeout, err = config.Duration("REQUEST_TIMEOUT", 15*time.Second); err != nil {
		return Settings{}, err
	}
	if s.ShutdownTimeout, err = config.Duration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Settings{}, err
	}
	return s, nil
}
