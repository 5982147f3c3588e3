package ratelimit

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
)

// KeyFunc 決定限流的對象
type KeyFunc func(r *http.Request) string

// ClientIP 搭配 chi middleware.RealIP 使用
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// NewRateLimitMiddleware 超過限制回 429，body 與其他錯誤相同使用 detail
// 限流器本身出錯時放行並記錄
func NewRateLimitMiddleware(limiter ILimiter, keyFunc KeyFunc, logger *zerolog.Logger) func(http.Handler) http.Handler {
	if limiter == nil {
		panic("rate limiter is nil")
	}
	if keyFunc == nil {
		keyFunc = ClientIP
	}
	retryAfter := strconv.Itoa(int(math.Ceil(limiter.Config().Window.Seconds())))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				if logger != nil {
					logger.Error().Err(err).Str("key", key).Msg("rate limiter failed")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", retryAfter)
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Too Many Requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
