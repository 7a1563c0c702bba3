// Package ratelimit throttles write endpoints per client.
package ratelimit

import (
	"context"
	"time"

	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Memory is a fixed-window limiter kept in process memory. It is used when
// no Redis is configured, so limits are per instance.
type Memory struct {
	l *limiter.Limiter
}

// NewMemory allows max requests per window and key.
func NewMemory(window time.Duration, max int) *Memory {
	rate := limiter.Rate{Period: window, Limit: int64(max)}
	return &Memory{l: limiter.New(memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          "fundraise",
		CleanUpInterval: window,
	}), rate)}
}

func (m *Memory) Allow(ctx context.Context, key string) (Result, error) {
	lc, err := m.l.Get(ctx, key)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Allowed:   !lc.Reached,
		Limit:     int(lc.Limit),
		Remaining: int(lc.Remaining),
		Reset:     time.Unix(lc.Reset, 0),
	}, nil
}
