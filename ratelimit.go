package pipeline

import (
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/rs/zerolog"
)

type rateLimitConfig struct {
	keyFunc func(*Context) string
	log     *zerolog.Logger
}

// RateLimitOption configures RateLimit
type RateLimitOption func(*rateLimitConfig)

// WithRateLimitKeyFunc sets how requests are grouped into buckets.
// Defaults to the client IP.
func WithRateLimitKeyFunc(fn func(*Context) string) RateLimitOption {
	return func(c *rateLimitConfig) {
		if fn != nil {
			c.keyFunc = fn
		}
	}
}

// WithRateLimitLogger logs rejected requests at warn level
func WithRateLimitLogger(l zerolog.Logger) RateLimitOption {
	return func(c *rateLimitConfig) {
		c.log = &l
	}
}

// RateLimit returns middleware that admits rate requests per second per key,
// with bursts up to burst. Rejected requests fail with a 429 HandlerError,
// which HandleError turns into the usual JSON body.
func RateLimit(rate, burst int, opts ...RateLimitOption) MiddlewareFunc {
	cfg := rateLimitConfig{
		keyFunc: func(c *Context) string { return c.ClientIP() },
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	limiter := ratelimit.New(&ratelimit.Config{
		Rate:     rate,
		Burst:    burst,
		Interval: time.Second,
	})

	return func(next HandlerFunc) HandlerFunc {
		return func(c *Context) error {
			key := cfg.keyFunc(c)
			if !limiter.Allow(c.Context(), key) {
				if cfg.log != nil {
					cfg.log.Warn().Str("key", key).Str("method", c.Method()).Str("path", c.Path()).Msg("rate limit exceeded")
				}
				return &HandlerError{
					Code:    http.StatusTooManyRequests,
					Message: http.StatusText(http.StatusTooManyRequests),
				}
			}
			return next(c)
		}
	}
}
