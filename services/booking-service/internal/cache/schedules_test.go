package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

func sampleWindows() []model.ScheduleWindow {
	return []model.ScheduleWindow{
		{ID: "w-1", StaffID: "st-1", DayOfWeek: 1, Start: model.NewWallClock(9, 0), End: model.NewWallClock(12, 0)},
		{ID: "w-2", StaffID: "st-1", DayOfWeek: 3, Start: model.NewWallClock(13, 0), End: model.MinutesPerDay},
	}
}

func TestScheduleCacheRoundTripWithTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	c := NewScheduleCache(rdb, time.Minute, "test", nil)

	if _, ok := c.Get(ctx, "st-1"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Set(ctx, "st-1", sampleWindows())
	got, ok := c.Get(ctx, "st-1")
	if !ok || len(got) != 2 || got[1].End != model.MinutesPerDay || got[0].Start.String() != "09:00" {
		t.Fatalf("unexpected cached windows %+v (ok=%v)", got, ok)
	}
	if ttl := mr.TTL("test:schedules:st-1"); ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %v", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok := c.Get(ctx, "st-1"); ok {
		t.Fatal("expected entry to expire")
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 2 {
		t.Fatalf("expected 1 hit 2 misses, got %d/%d", hits, misses)
	}
}

func TestScheduleCacheEmptyListIsAHit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	c := NewScheduleCache(rdb, time.Minute, "", nil)
	c.Set(context.Background(), "st-9", nil)
	got, ok := c.Get(context.Background(), "st-9")
	if !ok || len(got) != 0 {
		t.Fatalf("expected cached empty list, got %v (ok=%v)", got, ok)
	}
}

func TestScheduleCacheInvalidate(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewScheduleCache(db, time.Minute, "apptbook", nil)

	mock.ExpectDel("apptbook:schedules:st-1").SetVal(1)
	c.Invalidate(context.Background(), "st-1")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestScheduleCacheRedisErrorIsMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewScheduleCache(db, time.Minute, "apptbook", nil)

	mock.ExpectGet("apptbook:schedules:st-1").SetErr(errors.New("connection refused"))
	if _, ok := c.Get(context.Background(), "st-1"); ok {
		t.Fatal("expected miss on redis error")
	}
	mock.ExpectGet("apptbook:schedules:st-1").SetVal("not json")
	if _, ok := c.Get(context.Background(), "st-1"); ok {
		t.Fatal("expected miss on corrupt entry")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNilScheduleCacheIsNoop(t *testing.T) {
	var c *ScheduleCache
	c.Set(context.Background(), "st-1", sampleWindows())
	c.Invalidate(context.Background(), "st-1")
	if _, ok := c.Get(context.Background(), "st-1"); ok {
		t.Fatal("nil cache must always miss")
	}
}
