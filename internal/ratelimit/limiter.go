package ratelimit

import (
	"context"
	"fmt"
	"log"
	"time"

	"heiconv/internal/redis"
)

// Counter is the slice of the redis client the limiter needs.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Limiter is a fixed-window request limiter keyed by caller identity.
// A nil Limiter, or one built without a counter, allows everything.
// Redis errors also allow the request; the limiter protects capacity,
// it must not take uploads down with the cache.
type Limiter struct {
	counter Counter
	limit   int64
	window  time.Duration
	prefix  string
}

// New builds a limiter allowing perWindow requests per key per window.
// counter may be nil (limiter disabled) and perWindow <= 0 disables it too.
func New(counter Counter, perWindow int, window time.Duration) *Limiter {
	if counter == nil || perWindow <= 0 {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		counter: counter,
		limit:   int64(perWindow),
		window:  window,
		prefix:  "ratelimit:upload:",
	}
}

// Allow reports whether the caller identified by key may proceed.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.counter == nil || key == "" {
		return true
	}
	bucket := fmt.Sprintf("%s%s:%d", l.prefix, key, time.Now().Unix()/int64(l.window.Seconds()))
	count, err := l.counter.Incr(ctx, bucket)
	if err != nil {
		log.Printf("rate limiter incr failed: %v", err)
		return true
	}
	if count == 1 {
		if err := l.counter.Expire(ctx, bucket, l.window); err != nil {
			log.Printf("rate limiter expire failed: %v", err)
		}
	}
	return count <= l.limit
}

// FromClient adapts the shared redis wrapper; a nil client yields a
// disabled limiter.
func FromClient(client *redis.Client, perMinute int) *Limiter {
	if client == nil {
		return nil
	}
	return New(client, perMinute, time.Minute)
}
