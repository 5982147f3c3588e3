package ratelimit

import (
	"context"
	"fmt"
	"time"
)

const tokenBucketScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

-- 取得或初始化 bucket 狀態
local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
local currentTokens = tonumber(bucket[1])
local lastRefill = tonumber(bucket[2])

if currentTokens == nil then
	currentTokens = capacity
	lastRefill = now
end

-- 依經過時間補充 tokens
local elapsedSeconds = (now - lastRefill) / 1000
currentTokens = math.min(capacity, currentTokens + elapsedSeconds * rate)

local allowed = 0
if currentTokens >= 1 then
	currentTokens = currentTokens - 1
	allowed = 1
end

redis.call('HSET', key, 'tokens', tostring(currentTokens), 'last_refill', tostring(now))
redis.call('EXPIRE', key, ttl)
return allowed
`

// RedisTokenBucket 多個 mockapi 實例共用同一個限流狀態
// 容量 Capacity，每 Window 補滿
type RedisTokenBucket struct {
	config LimiterConfig
	client RedisClient
}

func NewRedisTokenBucket(client RedisClient, config LimiterConfig) *RedisTokenBucket {
	if client == nil {
		panic("redis token bucket client is nil")
	}
	return &RedisTokenBucket{client: client, config: config.normalize()}
}

func (r *RedisTokenBucket) Config() LimiterConfig {
	return r.config
}

func generateBucketKey(prefix, key string) string {
	return fmt.Sprintf("ratelimit:%s:%s", prefix, key)
}

func (r *RedisTokenBucket) Allow(ctx context.Context, key string) (bool, error) {
	rate := float64(r.config.Capacity) / r.config.Window.Seconds()
	ttl := int64(r.config.Window/time.Second) + 1

	result, err := r.client.Eval(
		ctx,
		tokenBucketScript,
		[]string{generateBucketKey(r.config.Prefix, key)},
		r.config.Capacity,
		rate,
		time.Now().UnixMilli(),
		ttl,
	).Int64()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}
