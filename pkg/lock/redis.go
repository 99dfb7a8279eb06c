package lock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// extendScript pushes the expiry forward only while the key still holds our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

// RedisLocker coordinates locks across processes with SET NX PX.
// While a lock is held a watchdog renews its TTL every TTL/3, so the TTL only
// bounds how long a crashed holder keeps the key, not how long a live holder may work.
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
	renew  time.Duration
}

// RedisLockerConfig tunes lock expiry and polling.
type RedisLockerConfig struct {
	Prefix string
	TTL    time.Duration
	Wait   time.Duration
	Retry  time.Duration
}

// NewRedisLocker builds a distributed locker on top of client.
func NewRedisLocker(client *redis.Client, cfg RedisLockerConfig) *RedisLocker {
	if cfg.Prefix == "" {
		cfg.Prefix = "lock:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.Wait <= 0 {
		cfg.Wait = 3 * time.Second
	}
	if cfg.Retry <= 0 {
		cfg.Retry = 50 * time.Millisecond
	}
	renew := cfg.TTL / 3
	if renew <= 0 {
		renew = cfg.TTL
	}
	return &RedisLocker{client: client, prefix: cfg.Prefix, ttl: cfg.TTL, wait: cfg.Wait, retry: cfg.Retry, renew: renew}
}

// Acquire polls until the key is set for this caller or the wait budget is exhausted.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	fullKey := l.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", fullKey, err)
		}
		if ok {
			return l.hold(fullKey, token), nil
		}
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

// hold starts the renewal watchdog and returns the matching release.
func (l *RedisLocker) hold(key, token string) Release {
	var lost atomic.Bool
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(l.renew)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), l.renew)
				n, err := extendScript.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int64()
				cancel()
				// transient errors are retried on the next tick; the key still has TTL left
				if err == nil && n == 0 {
					lost.Store(true)
					return
				}
			}
		}
	}()

	var once sync.Once
	return func(ctx context.Context) error {
		var err error
		once.Do(func() {
			close(stop)
			<-done
			n, runErr := releaseScript.Run(ctx, l.client, []string{key}, token).Int64()
			switch {
			case runErr != nil && runErr != redis.Nil:
				err = fmt.Errorf("release lock %s: %w", key, runErr)
			case lost.Load() || n == 0:
				err = fmt.Errorf("release lock %s: %w", key, ErrLockLost)
			}
		})
		return err
	}
}
