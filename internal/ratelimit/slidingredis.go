package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Sliding is a sliding-window limiter on Redis sorted sets, shared by every
// instance pointing at the same Redis.
type Sliding struct {
	Client *redis.Client
	Prefix string
	Window time.Duration
	Max    int
	Now    func() time.Time
}

func (l Sliding) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	reset := now.Add(l.Window)
	if l.Client == nil || l.Max <= 0 || l.Window <= 0 {
		return Result{Allowed: true, Limit: l.Max, Remaining: l.Max, Reset: reset}, nil
	}

	redisKey := l.Prefix + key
	cutoff := strconv.FormatInt(now.Add(-l.Window).UnixNano(), 10)
	var count *redis.IntCmd
	_, err := l.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, redisKey, "-inf", "("+cutoff)
		pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: fmt.Sprintf("%d:%s", now.UnixNano(), uuid.NewString())})
		count = pipe.ZCard(ctx, redisKey)
		pipe.PExpire(ctx, redisKey, l.Window)
		return nil
	})
	if err != nil {
		return Result{Limit: l.Max, Reset: reset}, err
	}
	current := int(count.Val())
	return Result{
		Allowed:   current <= l.Max,
		Limit:     l.Max,
		Remaining: max(l.Max-current, 0),
		Reset:     reset,
	}, nil
}
