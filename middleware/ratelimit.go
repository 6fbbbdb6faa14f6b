package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "rl:storefront:"

// slidingWindow trims the window, counts what is left and admits the request
// when under the limit. Returns 1 when admitted.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, now .. '-' .. math.random())
		redis.call('PEXPIRE', key, ttl)
		return 1
	end
	return 0
`)

// RedisRateLimiter is a sliding window limiter shared by all replicas.
type RedisRateLimiter struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisRateLimiter(rdb redis.Cmdable) *RedisRateLimiter {
	return &RedisRateLimiter{rdb: rdb, prefix: rateLimitPrefix}
}

type RateLimitConfig struct {
	Scope  string
	Limit  int
	Window time.Duration
	KeyFn  func(r *http.Request) string
}

// Middleware enforces cfg. Redis failures fail open.
func (l *RedisRateLimiter) Middleware(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil || l.rdb == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := l.prefix + cfg.Scope + ":" + cfg.KeyFn(r)
			allowed, err := l.isAllowed(r.Context(), key, cfg.Limit, cfg.Window)
			if err != nil || allowed {
				next.ServeHTTP(w, r)
				return
			}

			rateLimitedTotal.WithLabelValues(cfg.Scope).Inc()
			writeTooManyRequests(w, cfg.Window)
		})
	}
}

func (l *RedisRateLimiter) isAllowed(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now().UnixMilli()
	windowStart := now - window.Milliseconds()

	result, err := slidingWindow.Run(ctx, l.rdb, []string{key}, now, windowStart, limit, window.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

// RateLimit picks the Redis limiter when one is configured and falls back to
// the in-process httprate limiter otherwise.
func RateLimit(l *RedisRateLimiter, cfg RateLimitConfig) func(http.Handler) http.Handler {
	if l != nil && l.rdb != nil {
		return l.Middleware(cfg)
	}
	return httprate.Limit(cfg.Limit, cfg.Window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return cfg.Scope + ":" + cfg.KeyFn(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			rateLimitedTotal.WithLabelValues(cfg.Scope).Inc()
			writeTooManyRequests(w, cfg.Window)
		}),
	)
}

func writeTooManyRequests(w http.ResponseWriter, window time.Duration) {
	w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
	http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
}

// KeyByIP keys on the peer address. Forwarding headers are left to
// chi's RealIP, which the router only installs behind a trusted proxy.
func KeyByIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// KeyByUser keys on the token subject, then the visitor cookie, then the IP.
func KeyByUser(r *http.Request) string {
	if id := GetUserID(r.Context()); id != "" {
		return "user:" + id
	}
	if id := GetVisitorID(r.Context()); id != "" {
		return "visitor:" + id
	}
	return KeyByIP(r)
}
