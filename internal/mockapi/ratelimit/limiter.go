package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type LimitType string

const (
	FixedWindow LimitType = "fixed_window"
	SlideWindow LimitType = "slide_window"
	RedisBucket LimitType = "redis_bucket"
)

// LimiterConfig 每個 key 在 Window 內最多 Capacity 次
type LimiterConfig struct {
	Prefix   string
	Capacity int
	Window   time.Duration
}

func GetDefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Prefix:   "global",
		Capacity: 5,
		Window:   time.Minute,
	}
}

func (c LimiterConfig) normalize() LimiterConfig {
	def := GetDefaultLimiterConfig()
	if c.Prefix == "" {
		c.Prefix = def.Prefix
	}
	if c.Capacity <= 0 {
		c.Capacity = def.Capacity
	}
	if c.Window <= 0 {
		c.Window = def.Window
	}
	return c
}

type ILimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Config() LimiterConfig
}

// RedisClient 只需要執行 lua script
type RedisClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

func NewLimiter(limitType LimitType, config LimiterConfig, client RedisClient) (ILimiter, error) {
	switch limitType {
	case FixedWindow, "":
		return NewFixedWindow(config), nil
	case SlideWindow:
		return NewSlideWindow(config), nil
	case RedisBucket:
		if client == nil {
			return nil, fmt.Errorf("rate limit type %s requires a redis client", limitType)
		}
		return NewRedisTokenBucket(client, config), nil
	default:
		return nil, fmt.Errorf("invalid rate limit type %q", limitType)
	}
}
