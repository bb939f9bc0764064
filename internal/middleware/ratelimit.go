package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	KeyPrefix         string
}

type windowCounter struct {
	client redis.Cmdable
	cfg    RateLimitConfig
}

// hit counts one request against key and returns the running count along
// with the time left in the current window. INCR, EXPIRE NX and TTL run in
// a single MULTI so the first hit always arms the window.
func (c windowCounter) hit(ctx context.Context, key string) (int64, time.Duration, error) {
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, c.cfg.Window)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	left := ttl.Val()
	if left <= 0 {
		left = c.cfg.Window
	}
	return incr.Val(), left, nil
}

// RateLimitMiddleware applies a fixed window per authenticated user, or per
// client IP for anonymous requests. Requests pass through when Redis fails.
func RateLimitMiddleware(client redis.Cmdable, cfg RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	counter := windowCounter{client: client, cfg: cfg}
	limit := strconv.Itoa(cfg.RequestsPerWindow)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := clientAddr(r)
			if id, ok := GetUserID(r.Context()); ok {
				subject = "user:" + strconv.FormatInt(id, 10)
			}
			key := cfg.KeyPrefix + ":" + subject

			count, left, err := counter.hit(r.Context(), key)
			if err != nil {
				logger.Error("rate limit counter unavailable", zap.String("key", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(left).Unix(), 10))

			remaining := int64(cfg.RequestsPerWindow) - count
			if remaining < 0 {
				logger.Warn("rate limit exceeded",
					zap.String("subject", subject),
					zap.Int64("count", count),
					zap.Int("limit", cfg.RequestsPerWindow))
				h.Set("X-RateLimit-Remaining", "0")
				h.Set("Retry-After", strconv.Itoa(int(left.Round(time.Second)/time.Second)))
				RespondWithError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}

			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
