package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

// ScheduleCache is a read-through cache of per-staff schedule windows. A nil cache is a
// no-op, and Redis failures are logged and treated as misses so reads fall back to Postgres.
type ScheduleCache struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

func NewScheduleCache(rdb redis.Cmdable, ttl time.Duration, prefix string, logger *slog.Logger) *ScheduleCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if prefix == "" {
		prefix = "apptbook"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ScheduleCache{rdb: rdb, ttl: ttl, prefix: prefix, logger: logger}
}

func (c *ScheduleCache) key(staffID string) string {
	return c.prefix + ":schedules:" + staffID
}

// Get returns the cached windows and whether they were present.
func (c *ScheduleCache) Get(ctx context.Context, staffID string) ([]model.ScheduleWindow, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, c.key(staffID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("schedule cache read failed", "staff_id", staffID, "err", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var windows []model.ScheduleWindow
	if err := json.Unmarshal(raw, &windows); err != nil {
		c.logger.Warn("schedule cache entry corrupt", "staff_id", staffID, "err", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return windows, true
}

func (c *ScheduleCache) Set(ctx context.Context, staffID string, windows []model.ScheduleWindow) {
	if c == nil || c.rdb == nil {
		return
	}
	if windows == nil {
		windows = []model.ScheduleWindow{}
	}
	payload, err := json.Marshal(windows)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(staffID), string(payload), c.ttl).Err(); err != nil {
		c.logger.Warn("schedule cache write failed", "staff_id", staffID, "err", err)
	}
}

// Invalidate drops the entry for staffID after any schedule write.
func (c *ScheduleCache) Invalidate(ctx context.Context, staffID string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, c.key(staffID)).Err(); err != nil {
		c.logger.Warn("schedule cache invalidate failed", "staff_id", staffID, "err", err)
	}
}

// Stats returns hit and miss counters since start.
func (c *ScheduleCache) Stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}

// ReadyCheck pings Redis.
func ReadyCheck(rdb redis.Cmdable) func(context.Context) error {
	return func(ctx context.Context) error {
		if rdb == nil {
			return errors.New("redis not configured")
		}
		return rdb.Ping(ctx).Err()
	}
}
