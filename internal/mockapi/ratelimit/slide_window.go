package ratelimit

import (
	"context"
	"sync"
	"time"
)

/*
使用鎖實現，每個 key 保存窗口內的請求時間
*/
type SlideWindowLimiter struct {
	config  LimiterConfig
	mu      sync.Mutex
	windows map[string][]time.Time
}

func NewSlideWindow(config LimiterConfig) *SlideWindowLimiter {
	return &SlideWindowLimiter{
		config:  config.normalize(),
		windows: make(map[string][]time.Time),
	}
}

func (l *SlideWindowLimiter) Config() LimiterConfig {
	return l.config
}

func (l *SlideWindowLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	window := l.windows[key]
	validStart := len(window)
	for i, t := range window {
		if now.Sub(t) < l.config.Window {
			validStart = i
			break
		}
	}

	window = window[validStart:]
	if len(window) >= l.config.Capacity {
		l.windows[key] = window
		return false, nil
	}
	l.windows[key] = append(window, now)
	return true, nil
}
