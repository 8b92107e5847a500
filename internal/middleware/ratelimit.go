package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter implements token bucket rate limiting
type RateLimiter struct {
	buckets  map[string]*bucket
	rate     float64
	capacity float64
	mu       sync.Mutex
	now      func() time.Time
}

type bucket struct {
	tokens   float64
	lastFill time.Time
}

// NewRateLimiter allows rps requests per second per key with bursts of
// twice that.
func NewRateLimiter(rps int) *RateLimiter {
	if rps <= 0 {
		rps = 1
	}
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		rate:     float64(rps),
		capacity: float64(rps * 2),
		now:      time.Now,
	}
}

// RateLimit middleware implements rate limiting per client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.Header("Retry-After", strconv.Itoa(1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}

// Allow checks if a request is allowed under rate limiting
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	b, exists := r.buckets[key]
	if !exists {
		b = &bucket{tokens: r.capacity, lastFill: now}
		r.buckets[key] = b
	}

	elapsed := now.Sub(b.lastFill).Seconds()
	b.tokens = min(r.capacity, b.tokens+elapsed*r.rate)
	b.lastFill = now

	if b.tokens < 1 {
		return false
	}

	b.tokens--
	return true
}

// CleanupOldBuckets removes buckets idle for longer than maxIdle.
func (r *RateLimiter) CleanupOldBuckets(maxIdle time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxIdle)
	for key, b := range r.buckets {
		if b.lastFill.Before(cutoff) {
			delete(r.buckets, key)
		}
	}
}

// Run cleans idle buckets every interval until ctx ends.
func (r *RateLimiter) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.CleanupOldBuckets(time.Hour)
		}
	}
}

// SlidingWindowLimiter implements sliding window rate limiting
type SlidingWindowLimiter struct {
	windows    map[string][]time.Time
	windowSize time.Duration
	limit      int
	mu         sync.Mutex
	now        func() time.Time
}

// NewSlidingWindowLimiter creates a new sliding window limiter
func NewSlidingWindowLimiter(windowSize time.Duration, limit int) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		windows:    make(map[string][]time.Time),
		windowSize: windowSize,
		limit:      limit,
		now:        time.Now,
	}
}

// Allow records an attempt for key and reports whether it is within limit.
func (s *SlidingWindowLimiter) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-s.windowSize)

	valid := s.windows[key][:0]
	for _, t := range s.windows[key] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= s.limit {
		s.windows[key] = valid
		return false
	}

	s.windows[key] = append(valid, now)
	return true
}

// Reset forgets all attempts for key.
func (s *SlidingWindowLimiter) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
}

// CleanupOld drops keys whose attempts have all left the window.
func (s *SlidingWindowLimiter) CleanupOld() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.windowSize)
	for key, attempts := range s.windows {
		if len(attempts) == 0 || !attempts[len(attempts)-1].After(cutoff) {
			delete(s.windows, key)
		}
	}
}

// Run calls CleanupOld every interval until ctx ends.
func (s *SlidingWindowLimiter) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.CleanupOld()
		}
	}
}
