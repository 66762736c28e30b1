package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a per-key token bucket. Keys are client IPs; buckets
// refill continuously and idle ones are swept out.
type Limiter struct {
	mu           sync.Mutex
	buckets      map[string]*bucket
	tokensPerMin float64
	maxTokens    float64
	janitor      *time.Ticker
	stopJanitor  chan struct{}
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// New creates a limiter allowing tokensPerMin requests per minute per
// key, with bursts up to the same amount.
func New(tokensPerMin int) *Limiter {
	l := &Limiter{
		buckets:      make(map[string]*bucket),
		tokensPerMin: float64(tokensPerMin),
		maxTokens:    float64(tokensPerMin),
		janitor:      time.NewTicker(5 * time.Minute),
		stopJanitor:  make(chan struct{}),
	}
	go l.sweep()
	return l
}

func (l *Limiter) sweep() {
	for {
		select {
		case <-l.janitor.C:
			now := time.Now()
			l.mu.Lock()
			for key, b := range l.buckets {
				if now.Sub(b.lastCheck) > 10*time.Minute {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		case <-l.stopJanitor:
			l.janitor.Stop()
			return
		}
	}
}

// Stop terminates the sweeper goroutine.
func (l *Limiter) Stop() {
	close(l.stopJanitor)
}

// Allow reports whether one more request from key fits the budget.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.maxTokens, lastCheck: now}
		l.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastCheck).Minutes() * l.tokensPerMin
	if b.tokens > l.maxTokens {
		b.tokens = l.maxTokens
	}
	b.lastCheck = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Remaining returns the whole tokens currently available to key.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		return int(l.maxTokens)
	}
	tokens := b.tokens + time.Since(b.lastCheck).Minutes()*l.tokensPerMin
	if tokens > l.maxTokens {
		tokens = l.maxTokens
	}
	return int(tokens)
}

// Reset clears the bucket for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}
