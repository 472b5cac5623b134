package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// releaseScript deletes the lock key only if it still holds our token, so a
// lock that expired and was re-acquired elsewhere is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// Locker is a Redis SET NX mutex with a bounded acquisition wait. A single
// global key serializes all OTP critical sections; throughput is traded for
// simplicity, which is fine at admin-auth volumes.
type Locker struct {
	client  redis.UniversalClient
	maxWait time.Duration
	retry   time.Duration
}

func NewLocker(client redis.UniversalClient, maxWait time.Duration) (*Locker, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil for Locker")
	}
	if maxWait <= 0 {
		maxWait = 3 * time.Second
	}
	return &Locker{
		client:  client,
		maxWait: maxWait,
		retry:   50 * time.Millisecond,
	}, nil
}

// Acquire takes the named lock, waiting up to the configured bound. The
// returned release func is safe to call exactly once; failing to call it
// leaves the lock to expire after ttl.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.New().String()
	deadline := time.Now().Add(l.maxWait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for lock %s", key)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	release := func() {
		if err := releaseScript.Run(context.Background(), l.client, []string{key}, token).Err(); err != nil {
			log.Printf("[Locker] failed to release lock %s: %v", key, err)
		}
	}
	return release, nil
}
