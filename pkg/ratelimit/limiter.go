package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket implements the token bucket algorithm
type TokenBucket struct {
	capacity   int       // Maximum number of tokens
	tokens     float64   // Current number of tokens
	refillRate float64   // Tokens added per second
	lastRefill time.Time // Last time tokens were refilled
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket
// capacity: maximum burst size
// refillRate: tokens per second
func NewTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow reports whether a request should be allowed
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = min(float64(tb.capacity), tb.tokens+elapsed*tb.refillRate)
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}

	return false
}

// Reset refills the bucket to capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.tokens = float64(tb.capacity)
	tb.lastRefill = time.Now()
}

// KeyedLimiter keeps one token bucket per key. The verification service uses
// it with email addresses as keys to cap how often a single address can
// request a code.
type KeyedLimiter struct {
	buckets    map[string]*TokenBucket
	capacity   int
	refillRate float64
	mu         sync.Mutex
	ttl        time.Duration
}

// NewKeyedLimiter creates a per-key rate limiter.
// ttl: how long to keep inactive buckets in memory (0 = forever)
func NewKeyedLimiter(capacity int, refillRate float64, ttl time.Duration) *KeyedLimiter {
	l := &KeyedLimiter{
		buckets:    make(map[string]*TokenBucket),
		capacity:   capacity,
		refillRate: refillRate,
		ttl:        ttl,
	}

	if ttl > 0 {
		go l.cleanup()
	}

	return l
}

// Allow reports whether a request for the given key should be allowed
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	bucket, exists := l.buckets[key]
	if !exists {
		bucket = NewTokenBucket(l.capacity, l.refillRate)
		l.buckets[key] = bucket
	}
	l.mu.Unlock()

	return bucket.Allow()
}

// Reset resets the bucket for a specific key
func (l *KeyedLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if bucket, exists := l.buckets[key]; exists {
		bucket.Reset()
	}
}

// cleanup periodically drops buckets that have been idle past the TTL
func (l *KeyedLimiter) cleanup() {
	ticker := time.NewTicker(l.ttl)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, bucket := range l.buckets {
			if now.Sub(bucket.lastRefill) > l.ttl {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}
