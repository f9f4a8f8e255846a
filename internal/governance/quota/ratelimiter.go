package quota

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const rateWindowKeyPrefix = "ratewindow:"

// planWindow describes a plan's short rate window.
type planWindow struct {
	name     string
	duration time.Duration
	limit    int
}

func windowFor(plan Plan) planWindow {
	if plan == PlanPro {
		return planWindow{name: "hour", duration: time.Hour, limit: 1000}
	}
	return planWindow{name: "day", duration: 24 * time.Hour, limit: 50}
}

// RateWindow is a Redis sorted-set sliding window of successful tool calls.
// It reports; it never blocks a request.
type RateWindow struct {
	rdb redis.Cmdable
	now func() time.Time
}

// NewRateWindow creates a new Redis-based rate window.
func NewRateWindow(rdb redis.Cmdable) *RateWindow {
	return &RateWindow{rdb: rdb, now: time.Now}
}

func (w *RateWindow) key(userID uuid.UUID) string {
	return rateWindowKeyPrefix + userID.String()
}

// Record adds one call to the user's window.
func (w *RateWindow) Record(ctx context.Context, userID uuid.UUID, plan Plan) error {
	win := windowFor(plan)
	key := w.key(userID)
	now := w.now()
	windowStart := now.Add(-win.duration).UnixMilli()

	pipe := w.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: strconv.FormatInt(now.UnixNano(), 10)})
	pipe.Expire(ctx, key, win.duration+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("recording rate window: %w", err)
	}
	return nil
}

// Status reports how many calls remain in the user's window and when the
// oldest one falls out of it.
func (w *RateWindow) Status(ctx context.Context, userID uuid.UUID, plan Plan) (*RateStatus, error) {
	win := windowFor(plan)
	key := w.key(userID)
	now := w.now()
	windowStart := strconv.FormatInt(now.Add(-win.duration).UnixMilli(), 10)

	pipe := w.rdb.Pipeline()
	countCmd := pipe.ZCount(ctx, key, "("+windowStart, "+inf")
	oldestCmd := pipe.ZRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min:   "(" + windowStart,
		Max:   "+inf",
		Count: 1,
	})
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("reading rate window: %w", err)
	}

	used := int(countCmd.Val())
	remaining := win.limit - used
	if remaining < 0 {
		remaining = 0
	}

	resetAt := now
	if oldest := oldestCmd.Val(); len(oldest) > 0 {
		resetAt = time.UnixMilli(int64(oldest[0].Score)).Add(win.duration)
	}

	return &RateStatus{
		Remaining: remaining,
		Limit:     win.limit,
		ResetAt:   resetAt.UTC(),
		Window:    win.name,
	}, nil
}
