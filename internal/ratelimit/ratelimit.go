// Package ratelimit provides a fixed-window per-client limiter backed by an
// LRU map, so an abusive set of clients cannot grow memory without bound.
package ratelimit

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2"
)

type window struct {
	start time.Time
	count int
}

// Limiter counts requests per key within a fixed window.
type Limiter struct {
	max    int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows *lru.Cache[string, *window]
}

// New builds a limiter allowing max requests per key per period. Tracks at
// most 4096 distinct keys; the least recently seen are evicted first.
func New(max int, period time.Duration) (*Limiter, error) {
	cache, err := lru.New[string, *window](4096)
	if err != nil {
		return nil, err
	}
	return &Limiter{
		max:     max,
		period:  period,
		now:     time.Now,
		windows: cache,
	}, nil
}

// Allow reports whether key may make another request right now and records
// the attempt. A nil limiter allows everything.
func (l *Limiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows.Get(key)
	if !ok || now.Sub(w.start) >= l.period {
		l.windows.Add(key, &window{start: now, count: 1})
		return true
	}
	if w.count >= l.max {
		return false
	}
	w.count++
	return true
}

// Retry reports how long key must wait before its window resets. Zero when
// the key is unknown or already allowed.
func (l *Limiter) Retry(key string) time.Duration {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows.Get(key)
	if !ok || w.count < l.max {
		return 0
	}
	remaining := l.period - l.now().Sub(w.start)
	if remaining < 0 {
		return 0
	}
	return remaining
}
