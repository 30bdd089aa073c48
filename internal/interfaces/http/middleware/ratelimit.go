package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	prom "github.com/turtacn/MetaNet/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MetaNet/pkg/errors"
	"github.com/turtacn/MetaNet/pkg/types/common"
)

// RateLimiter decides whether the caller identified by key may proceed.
type RateLimiter interface {
	Allow(key string) (bool, RateLimitInfo)
}

// RateLimitInfo is the limiter state reported in X-RateLimit-* headers.
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimitConfig configures the RateLimit middleware.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// KeyFunc defaults to the gin client IP.
	KeyFunc   func(c *gin.Context) string
	SkipPaths []string
	// CleanupInterval is how often idle buckets are dropped; 0 disables it.
	CleanupInterval time.Duration
}

// DefaultRateLimitConfig returns 10 rps with a burst of 20 per client IP.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 10,
		BurstSize:         20,
		SkipPaths:         []string{"/healthz", "/readyz", "/metrics"},
		CleanupInterval:   5 * time.Minute,
	}
}

func clientIPKey(c *gin.Context) string { return c.ClientIP() }

type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// TokenBucketLimiter keeps one token bucket per key.
type TokenBucketLimiter struct {
	rate      float64
	burstSize int
	now       func() time.Time

	mu      sync.RWMutex
	buckets map[string]*tokenBucket

	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

// NewTokenBucketLimiter starts the idle-bucket sweeper when cleanupInterval
// is positive; call Stop to end it.
func NewTokenBucketLimiter(rate float64, burstSize int, cleanupInterval time.Duration) *TokenBucketLimiter {
	l := &TokenBucketLimiter{
		rate:            rate,
		burstSize:       burstSize,
		now:             time.Now,
		buckets:         make(map[string]*tokenBucket),
		cleanupInterval: cleanupInterval,
		stop:            make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go l.cleanupLoop()
	}
	return l
}

func (l *TokenBucketLimiter) bucket(key string, now time.Time) *tokenBucket {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok = l.buckets[key]; !ok {
		b = &tokenBucket{tokens: float64(l.burstSize), lastRefill: now}
		l.buckets[key] = b
	}
	return b
}

// Allow takes one token from key's bucket if one is available.
func (l *TokenBucketLimiter) Allow(key string) (bool, RateLimitInfo) {
	now := l.now()
	b := l.bucket(key, now)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens += now.Sub(b.lastRefill).Seconds() * l.rate
	if b.tokens > float64(l.burstSize) {
		b.tokens = float64(l.burstSize)
	}
	b.lastRefill = now

	info := RateLimitInfo{
		Limit:   l.burstSize,
		ResetAt: now.Add(time.Duration(float64(time.Second) / l.rate)),
	}
	if b.tokens >= 1 {
		b.tokens--
		info.Remaining = int(b.tokens)
		return true, info
	}
	return false, info
}

func (l *TokenBucketLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stop:
			return
		}
	}
}

// cleanup drops buckets that are full and untouched for a whole interval.
func (l *TokenBucketLimiter) cleanup() {
	threshold := l.now().Add(-l.cleanupInterval)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		b.mu.Lock()
		if b.lastRefill.Before(threshold) && b.tokens >= float64(l.burstSize)-1 {
			delete(l.buckets, key)
		}
		b.mu.Unlock()
	}
}

// Stop ends the sweeper.  It is idempotent.
func (l *TokenBucketLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// BucketCount returns the number of tracked keys.
func (l *TokenBucketLimiter) BucketCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buckets)
}

// RateLimit rejects callers over their budget with 429 and the standard
// error envelope.
func RateLimit(limiter RateLimiter, cfg RateLimitConfig, m *prom.NetworkMetrics) gin.HandlerFunc {
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = clientIPKey
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}
		allowed, info := limiter.Allow(keyFunc(c))

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))
		if allowed {
			c.Next()
			return
		}

		retryAfter := int(time.Until(info.ResetAt).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		h.Set("Retry-After", strconv.Itoa(retryAfter))
		m.RecordError("http", errors.ErrCodeRateLimited.String())

		resp := common.NewErrorResponse(errors.ErrCodeRateLimited.String(),
			errors.DefaultMessageForCode(errors.ErrCodeRateLimited), "")
		resp.RequestID = GetRequestID(c)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, resp)
	}
}

// BodyLimit caps request bodies at n bytes; reads past the cap fail and the
// JSON binder reports the error.  n <= 0 disables the cap.
func BodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil {
			if c.Request.ContentLength > n {
				resp := common.NewErrorResponse(errors.ErrCodeBodyTooLarge.String(),
					errors.DefaultMessageForCode(errors.ErrCodeBodyTooLarge), "")
				resp.RequestID = GetRequestID(c)
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, resp)
				return
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
