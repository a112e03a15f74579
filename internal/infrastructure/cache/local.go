package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// LocalRateLimiter is the single-instance fallback for CheckRateLimit when
// Redis is not configured
type LocalRateLimiter struct {
	mu      sync.Mutex
	windows *gocache.Cache
}

// NewLocalRateLimiter creates an in-process limiter
func NewLocalRateLimiter() *LocalRateLimiter {
	return &LocalRateLimiter{windows: gocache.New(time.Minute, 5*time.Minute)}
}

// CheckRateLimit counts a request in a fixed window, like RedisCache.CheckRateLimit
func (l *LocalRateLimiter) CheckRateLimit(_ context.Context, key string, limit int64, window time.Duration) (bool, int64, time.Time, error) {
	slot := time.Now().Unix() / int64(window.Seconds())
	windowKey := fmt.Sprintf("%s%s:%d", KeyRateLimitPrefix, key, slot)

	l.mu.Lock()
	defer l.mu.Unlock()

	_ = l.windows.Add(windowKey, int64(0), window)
	count, err := l.windows.IncrementInt64(windowKey, 1)
	if err != nil {
		return false, 0, time.Time{}, err
	}

	remaining := max(limit-count, 0)
	resetTime := time.Unix((slot+1)*int64(window.Seconds()), 0)
	return count <= limit, remaining, resetTime, nil
}
