package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

/*
會有突刺問題，窗口交界處最多可通過兩倍 Capacity
*/
type window struct {
	count     atomic.Int32
	startedAt time.Time
	mu        sync.RWMutex
}

type FixedWindowLimiter struct {
	config  LimiterConfig
	mu      sync.Mutex
	windows map[string]*window
}

func NewFixedWindow(config LimiterConfig) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		config:  config.normalize(),
		windows: make(map[string]*window),
	}
}

func (l *FixedWindowLimiter) Config() LimiterConfig {
	return l.config
}

func (l *FixedWindowLimiter) get(key string) *window {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.windows[key]
	if !ok {
		w = &window{startedAt: time.Now()}
		l.windows[key] = w
	}
	return w
}

func (l *FixedWindowLimiter) Allow(_ context.Context, key string) (bool, error) {
	w := l.get(key)

	current := time.Now()
	w.mu.RLock()
	needReset := current.Sub(w.startedAt) >= l.config.Window
	w.mu.RUnlock()

	if needReset {
		w.mu.Lock()
		if current.Sub(w.startedAt) >= l.config.Window {
			w.count.Store(0)
			w.startedAt = current
		}
		w.mu.Unlock()
	}

	for {
		n := w.count.Load()
		if n+1 > int32(l.config.Capacity) {
			return false, nil
		}
		if w.count.CompareAndSwap(n, n+1) {
			return true, nil
		}
	}
}
