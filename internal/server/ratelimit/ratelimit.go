// Package ratelimit provides per-client request limiting for the telemetry API
// using token buckets.
package ratelimit

import (
	"sync"
	"time"
)

// DefaultIdleTTL is how long an unused bucket is kept before Sweep drops it.
const DefaultIdleTTL = time.Hour

// bucket is a token bucket: it holds up to capacity tokens and refills at
// rate tokens per second.
type bucket struct {
	capacity float64
	rate     float64
	tokens   float64
	refilled time.Time
	lastUsed time.Time
}

func newBucket(capacity int, rate float64, now time.Time) *bucket {
	return &bucket{
		capacity: float64(capacity),
		rate:     rate,
		tokens:   float64(capacity),
		refilled: now,
		lastUsed: now,
	}
}

// take refills the bucket up to now and consumes one token if available. It
// reports the tokens left, when the bucket will be full again and, when
// denied, how long until the next token.
func (b *bucket) take(now time.Time) (allowed bool, remaining int, full time.Time, wait time.Duration) {
	if elapsed := now.Sub(b.refilled); elapsed > 0 {
		b.tokens = min(b.capacity, b.tokens+elapsed.Seconds()*b.rate)
	}
	b.refilled = now
	b.lastUsed = now

	if b.tokens >= 1 {
		b.tokens--
		allowed = true
	} else if b.rate > 0 {
		wait = b.until(1 - b.tokens)
	}

	full = now
	if missing := b.capacity - b.tokens; missing > 0 && b.rate > 0 {
		full = now.Add(b.until(missing))
	}
	return allowed, int(b.tokens), full, wait
}

// until is how long the bucket takes to gain n tokens.
func (b *bucket) until(n float64) time.Duration {
	return time.Duration(n / b.rate * float64(time.Second))
}

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

type bucketKey struct {
	client string
	path   string
	method string
}

// Limiter manages a bucket per client and endpoint.
type Limiter struct {
	config *Config
	now    func() time.Time

	mu      sync.Mutex
	buckets map[bucketKey]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter creates a limiter and, when enabled with a cleanup interval,
// starts a goroutine that sweeps idle buckets until Stop is called.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
		}
	}

	l := &Limiter{
		config:  config,
		now:     time.Now,
		buckets: make(map[bucketKey]*bucket),
		stop:    make(chan struct{}),
	}

	if config.Enabled && config.CleanupInterval > 0 {
		go l.cleanup(config.CleanupInterval)
	}
	return l
}

// Allow checks if a request from the given client is allowed for the specified endpoint.
// Returns true if allowed, false if rate limited, along with rate limit information.
func (l *Limiter) Allow(clientID string, endpoint string, method string) (bool, Info) {
	switch {
	case !l.config.Enabled, l.config.Whitelist[clientID]:
		return true, Info{Allowed: true}
	case l.config.Blacklist[clientID]:
		return false, Info{}
	}

	ec := MatchEndpoint(endpoint, method, l.config.EndpointConfigs)
	if ec == nil {
		ec = &EndpointConfig{
			Limit:  l.config.DefaultLimit,
			Window: l.config.DefaultWindow,
			Burst:  l.config.DefaultLimit,
		}
	}
	if ec.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	// Prefix-matched endpoints share one bucket across every path they match.
	key := bucketKey{client: clientID, path: endpoint, method: method}
	if ec.Path != "" {
		key.path = ec.Path
	}

	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		capacity := ec.Burst
		if capacity <= 0 {
			capacity = ec.Limit
		}
		b = newBucket(capacity, float64(ec.Limit)/ec.Window.Seconds(), now)
		l.buckets[key] = b
	}
	allowed, remaining, full, wait := b.take(now)
	l.mu.Unlock()

	return allowed, Info{
		Allowed:    allowed,
		Limit:      ec.Limit,
		Remaining:  remaining,
		ResetTime:  full,
		RetryAfter: wait,
	}
}

// Len returns the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Sweep drops buckets not used within the idle TTL as of now and returns how
// many were dropped.
func (l *Limiter) Sweep(now time.Time) int {
	ttl := l.config.IdleTTL
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	cutoff := now.Add(-ttl)

	l.mu.Lock()
	defer l.mu.Unlock()

	dropped := 0
	for key, b := range l.buckets {
		if b.lastUsed.Before(cutoff) {
			delete(l.buckets, key)
			dropped++
		}
	}
	return dropped
}

func (l *Limiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Sweep(l.now())
		case <-l.stop:
			return
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
