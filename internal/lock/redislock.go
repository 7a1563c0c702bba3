package lock

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotHeld is returned by Release when the lock expired or was taken over.
var ErrNotHeld = errors.New("lock: not held")

const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`

// Locker provides a Redis-backed mutual exclusion lock shared by every
// process that points at the same Redis.
type Locker struct {
	R            *redis.Client
	RetryBackoff time.Duration
	TTL          time.Duration
	// OnLost is told when a lease expired before WithLock could release it.
	OnLost func(key string, err error)
}

// Lease is a held lock.
type Lease struct {
	key   string
	token string
}

// Acquire blocks until the lock for key is held or ctx is done.
func (l Locker) Acquire(ctx context.Context, key string) (Lease, error) {
	if l.R == nil {
		return Lease{}, errors.New("lock: redis client not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return Lease{}, errors.New("lock: key is required")
	}
	ttl := l.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	token := uuid.NewString()
	for {
		ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return Lease{}, err
		}
		if ok {
			return Lease{key: key, token: token}, nil
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Lease{}, ctx.Err()
		case <-timer.C:
		}
	}
}

// Release drops the lease if it is still owned by the caller.
func (l Locker) Release(ctx context.Context, lease Lease) error {
	if l.R == nil || lease.token == "" {
		return ErrNotHeld
	}
	n, err := l.R.Eval(ctx, releaseScript, []string{lease.key}, lease.token).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}

// WithLock runs fn while holding the lock for key and returns fn's error. The
// lock is released even when fn fails. Work fn already committed stands when
// the release fails; the failure goes to OnLost instead.
func (l Locker) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	lease, err := l.Acquire(ctx, key)
	if err != nil {
		return err
	}
	err = fn(ctx)
	if relErr := l.Release(context.WithoutCancel(ctx), lease); relErr != nil && l.OnLost != nil {
		l.OnLost(lease.key, relErr)
	}
	return err
}
