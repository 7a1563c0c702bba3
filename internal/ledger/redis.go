package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-fundraise/internal/lock"
)

// RedisStore keeps the ledger in a Redis hash so several API processes can
// share it. Writers are serialized by Locker; each Apply is one MULTI/EXEC.
// Once EXEC succeeds the increments are reported as applied even if the lock
// lease ran out in the meantime.
type RedisStore struct {
	Client *redis.Client
	Key    string
	Locker lock.Locker
}

func (s *RedisStore) key() string {
	if s.Key == "" {
		return "fundraise:ledger"
	}
	return s.Key
}

func (s *RedisStore) versionKey() string { return s.key() + ":version" }

func (s *RedisStore) lockKey() string { return s.key() + ":lock" }

// Init creates a zero entry for every product that has none yet. Existing
// volumes are left untouched so restarts keep the running totals.
func (s *RedisStore) Init(ctx context.Context, productIDs []string) error {
	if s == nil || s.Client == nil {
		return errors.New("ledger: redis client not configured")
	}
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range productIDs {
			pipe.HSetNX(ctx, s.key(), id, 0)
		}
		pipe.SetNX(ctx, s.versionKey(), 0, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ledger: init redis: %w", err)
	}
	return nil
}

// Snapshot reads the hash and its version in one transaction.
func (s *RedisStore) Snapshot(ctx context.Context) (Snapshot, error) {
	if s == nil || s.Client == nil {
		return Snapshot{}, errors.New("ledger: redis client not configured")
	}
	var (
		all *redis.MapStringStringCmd
		ver *redis.StringCmd
	)
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		all = pipe.HGetAll(ctx, s.key())
		ver = pipe.Get(ctx, s.versionKey())
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return Snapshot{}, fmt.Errorf("ledger: read redis: %w", err)
	}
	return decodeSnapshot(all, ver)
}

// Apply increments every delta under the shared lock. The hash fields must
// already exist (see Init); unknown products are rejected before any write.
func (s *RedisStore) Apply(ctx context.Context, deltas map[string]int64) (Snapshot, error) {
	if s == nil || s.Client == nil {
		return Snapshot{}, errors.New("ledger: redis client not configured")
	}
	ids := make([]string, 0, len(deltas))
	for id, d := range deltas {
		if d < 0 {
			return Snapshot{}, fmt.Errorf("ledger: negative delta %d for %q", d, id)
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var snap Snapshot
	err := s.Locker.WithLock(ctx, s.lockKey(), func(ctx context.Context) error {
		if len(ids) > 0 {
			known, err := s.Client.HMGet(ctx, s.key(), ids...).Result()
			if err != nil {
				return err
			}
			for i, v := range known {
				if v == nil {
					return fmt.Errorf("ledger: unknown product %q", ids[i])
				}
				raw, _ := v.(string)
				current, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return fmt.Errorf("ledger: volume for %q: %w", ids[i], err)
				}
				if deltas[ids[i]] > MaxVolume-current {
					return Invalid("volume limit reached", ids[i])
				}
			}
		}
		var (
			all *redis.MapStringStringCmd
			ver *redis.StringCmd
		)
		_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, id := range ids {
				pipe.HIncrBy(ctx, s.key(), id, deltas[id])
			}
			if len(ids) > 0 {
				pipe.Incr(ctx, s.versionKey())
			}
			all = pipe.HGetAll(ctx, s.key())
			ver = pipe.Get(ctx, s.versionKey())
			return nil
		})
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		snap, err = decodeSnapshot(all, ver)
		return err
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("ledger: apply redis: %w", err)
	}
	return snap, nil
}

func decodeSnapshot(all *redis.MapStringStringCmd, ver *redis.StringCmd) (Snapshot, error) {
	raw, err := all.Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Snapshot{}, err
	}
	snap := Snapshot{Volumes: make(map[string]int64, len(raw))}
	for id, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Snapshot{}, fmt.Errorf("ledger: volume for %q: %w", id, err)
		}
		snap.Volumes[id] = n
	}
	if v, err := ver.Result(); err == nil {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Snapshot{}, fmt.Errorf("ledger: version: %w", err)
		}
		snap.Version = n
	} else if !errors.Is(err, redis.Nil) {
		return Snapshot{}, err
	}
	return snap, nil
}
