package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter: fixed window en memoria sobre go-cache.
// Para despliegues de un solo nodo o dev; en producción multi-nodo usar RedisLimiter.
type MemoryLimiter struct {
	mu     sync.Mutex
	c      *gocache.Cache
	Max    int64
	Window time.Duration
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		c:      gocache.New(window, window),
		Max:    int64(max),
		Window: window,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(l.Window)
	bucketKey := fmt.Sprintf("%s:%d", key, winStart.Unix())
	windowEnd := winStart.Add(l.Window)

	l.mu.Lock()
	var hits int64 = 1
	if v, ok := l.c.Get(bucketKey); ok {
		hits = v.(int64) + 1
	}
	l.c.Set(bucketKey, hits, time.Until(windowEnd))
	l.mu.Unlock()

	allowed := hits <= l.Max
	remaining := l.Max - hits
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:     allowed,
		Remaining:   remaining,
		CurrentHits: hits,
		WindowTTL:   time.Until(windowEnd),
	}
	if !allowed {
		res.RetryAfter = time.Until(windowEnd)
	}
	return res, nil
}
