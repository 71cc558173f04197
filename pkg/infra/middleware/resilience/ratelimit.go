package resilience

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"github.com/redis/go-redis/v9"
	"k8s.io/utils/clock"

	"github.com/kart-io/campus-rag/pkg/infra/middleware/common"
	mwopts "github.com/kart-io/campus-rag/pkg/options/middleware"
	"github.com/kart-io/campus-rag/pkg/utils/errors"
	"github.com/kart-io/campus-rag/pkg/utils/response"
)

// RateLimiter defines the interface for rate limiting implementations.
type RateLimiter interface {
	// Allow reports whether a request with the given key is allowed.
	Allow(ctx context.Context, key string) (bool, error)

	// Reset resets the counter for the given key.
	Reset(ctx context.Context, key string) error
}

// RateLimitWithOptions 按客户端 IP 做滑动窗口限流，超限时返回 ErrRateLimitExceeded。
// limiter 为 nil 时使用内存限流器。限流器自身出错时放行请求并记录日志。
func RateLimitWithOptions(opts mwopts.RateLimitOptions, limiter RateLimiter) gin.HandlerFunc {
	if limiter == nil {
		limiter = NewMemoryRateLimiter(opts.Limit, opts.Window)
	}

	return func(c *gin.Context) {
		key := common.ClientIP(c.Request, opts.TrustedProxies)

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Errorw("rate limiter error", "error", err.Error(), "key", key)
			c.Next()
			return
		}
		if !allowed {
			logger.Warnw("rate limit exceeded", "key", key, "path", c.Request.URL.Path)
			response.Fail(c, errors.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

// ============================================================================
// Memory Rate Limiter Implementation
// ============================================================================

// MemoryRateLimiter implements sliding window rate limiting in process memory.
type MemoryRateLimiter struct {
	limit  int
	window time.Duration
	clock  clock.WithTicker
	store  sync.Map

	stopCleanup chan struct{}
	cleanupOnce sync.Once
}

type rateLimitEntry struct {
	mu        sync.Mutex
	requests  []time.Time
	lastCheck time.Time
}

// NewMemoryRateLimiter creates a new memory-based rate limiter.
func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	return NewMemoryRateLimiterWithClock(limit, window, clock.RealClock{})
}

// NewMemoryRateLimiterWithClock creates a memory limiter driven by clk.
func NewMemoryRateLimiterWithClock(limit int, window time.Duration, clk clock.WithTicker) *MemoryRateLimiter {
	m := &MemoryRateLimiter{
		limit:       limit,
		window:      window,
		clock:       clk,
		stopCleanup: make(chan struct{}),
	}
	go m.cleanupExpiredEntries()
	return m
}

// Allow checks if a request with the given key is allowed.
func (m *MemoryRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := m.clock.Now()

	value, _ := m.store.LoadOrStore(key, &rateLimitEntry{
		requests: make([]time.Time, 0, m.limit),
	})
	entry := value.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.lastCheck = now
	entry.requests = filterExpiredRequests(entry.requests, now.Add(-m.window))

	if len(entry.requests) >= m.limit {
		return false, nil
	}
	entry.requests = append(entry.requests, now)
	return true, nil
}

// Reset resets the rate limit counter for the given key.
func (m *MemoryRateLimiter) Reset(_ context.Context, key string) error {
	m.store.Delete(key)
	return nil
}

// Stop stops the cleanup goroutine.
func (m *MemoryRateLimiter) Stop() {
	m.cleanupOnce.Do(func() {
		close(m.stopCleanup)
	})
}

func (m *MemoryRateLimiter) cleanupExpiredEntries() {
	ticker := m.clock.NewTicker(m.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			m.performCleanup()
		case <-m.stopCleanup:
			return
		}
	}
}

// performCleanup drops keys not seen for two windows.
func (m *MemoryRateLimiter) performCleanup() {
	threshold := m.clock.Now().Add(-2 * m.window)

	m.store.Range(func(key, value interface{}) bool {
		entry := value.(*rateLimitEntry)
		entry.mu.Lock()
		stale := entry.lastCheck.Before(threshold)
		entry.mu.Unlock()

		if stale {
			m.store.Delete(key)
		}
		return true
	})
}

// filterExpiredRequests drops timestamps at or before cutoff. requests is sorted.
func filterExpiredRequests(requests []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(requests) && !requests[i].After(cutoff) {
		i++
	}
	return requests[i:]
}

// ============================================================================
// Redis Rate Limiter Implementation
// ============================================================================

// RedisRateLimiter implements sliding window rate limiting on a Redis sorted
// set, so the counters are shared by every server instance.
type RedisRateLimiter struct {
	client redis.UniversalClient
	limit  int
	window time.Duration
	prefix string
	clock  clock.PassiveClock
}

// NewRedisRateLimiter creates a new Redis-based rate limiter.
func NewRedisRateLimiter(client redis.UniversalClient, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "campus-rag:ratelimit:",
		clock:  clock.RealClock{},
	}
}

// Allow checks if a request with the given key is allowed using Redis.
func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := r.clock.Now()
	redisKey := r.prefix + key
	// 同一纳秒内的并发请求需要不同的 member
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + common.GenerateRequestID()[:8]

	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(now.Add(-r.window).UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.Expire(ctx, redisKey, r.window*2)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis pipeline error: %w", err)
	}

	if countCmd.Val() >= int64(r.limit) {
		// 被拒绝的请求不计入窗口
		if err := r.client.ZRem(ctx, redisKey, member).Err(); err != nil {
			logger.Warnw("failed to remove rejected rate limit member", "key", redisKey, "error", err.Error())
		}
		return false, nil
	}
	return true, nil
}

// Reset resets the rate limit counter for the given key in Redis.
func (r *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
