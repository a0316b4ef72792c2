package pipeline

import (
	"strconv"
	"time"
)

// DefaultTimingHeader is the response header carrying the elapsed time
const DefaultTimingHeader = "x-response-time"

type timingConfig struct {
	header string
	now    func() time.Time
}

// TimingOption configures ResponseTime
type TimingOption func(*timingConfig)

// WithTimingHeader sets the response header the duration is written to
func WithTimingHeader(key string) TimingOption {
	return func(c *timingConfig) {
		if key != "" {
			c.header = key
		}
	}
}

// WithTimingClock replaces time.Now, mostly for tests
func WithTimingClock(now func() time.Time) TimingOption {
	return func(c *timingConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// ResponseTime returns middleware that measures how long the rest of the
// chain takes and publishes it as "<n>ms" in a response header. The header
// is written on every exit path, including failures and panics. Negative
// durations, which only a clock step can produce, are written as 0ms.
func ResponseTime(opts ...TimingOption) MiddlewareFunc {
	cfg := timingConfig{header: DefaultTimingHeader, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(c *Context) error {
			start := cfg.now()
			defer func() {
				c.SetHeader(cfg.header, formatMillis(cfg.now().Sub(start)))
			}()
			return next(c)
		}
	}
}

func formatMillis(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return strconv.FormatInt(ms, 10) + "ms"
}
