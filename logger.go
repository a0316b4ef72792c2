package pipeline

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/douglasgreyling/pipeline/internal/colors"
)

// Formatter renders log fragments. ANSIFormatter and PlainFormatter are the
// built-in implementations.
type Formatter = colors.Formatter

// FormatterFunc adapts a function to Formatter
type FormatterFunc = colors.FormatterFunc

// Hint names the role of a log fragment handed to a Formatter
type Hint = colors.Hint

// Formatting hints
const (
	HintNeutral  = colors.Neutral
	HintSuccess  = colors.Success
	HintRedirect = colors.Redirect
	HintFailure  = colors.Failure
	HintMethod   = colors.Method
	HintPath     = colors.Path
	HintTiming   = colors.Timing
)

var (
	ANSIFormatter  Formatter = colors.ANSI{}
	PlainFormatter Formatter = colors.Plain{}
)

// missingValue is logged in place of a timing header that was never set
const missingValue = "-"

// StatusClass is the hundreds digit of a status code
type StatusClass int

const (
	StatusClassOther       StatusClass = 0
	StatusClassSuccess     StatusClass = 2
	StatusClassRedirect    StatusClass = 3
	StatusClassClientError StatusClass = 4
	StatusClassServerError StatusClass = 5
)

// ClassOf returns the status class of status
func ClassOf(status int) StatusClass {
	switch c := StatusClass(status / 100); c {
	case StatusClassSuccess, StatusClassRedirect, StatusClassClientError, StatusClassServerError:
		return c
	}
	return StatusClassOther
}

// Hint returns the formatting hint for the class
func (s StatusClass) Hint() Hint {
	switch s {
	case StatusClassSuccess:
		return HintSuccess
	case StatusClassRedirect:
		return HintRedirect
	case StatusClassClientError, StatusClassServerError:
		return HintFailure
	}
	return HintNeutral
}

func (s StatusClass) String() string {
	if s == StatusClassOther {
		return "other"
	}
	return strconv.Itoa(int(s)) + "xx"
}

func (s StatusClass) level() zerolog.Level {
	switch s {
	case StatusClassServerError:
		return zerolog.ErrorLevel
	case StatusClassClientError:
		return zerolog.WarnLevel
	}
	return zerolog.InfoLevel
}

type loggerConfig struct {
	header    string
	errorCode int
	log       zerolog.Logger
	formatter Formatter
}

// LoggerOption configures Logger
type LoggerOption func(*loggerConfig)

// WithLogHeader sets the response header the elapsed time is read from.
// It must match the header ResponseTime writes.
func WithLogHeader(key string) LoggerOption {
	return func(c *loggerConfig) {
		if key != "" {
			c.header = key
		}
	}
}

// WithLogErrorCode sets the status logged for failures that carry no valid
// code of their own. It should match the default of the HandleError
// wrapping the logger; DefaultStack wires this up.
func WithLogErrorCode(code int) LoggerOption {
	return func(c *loggerConfig) {
		if validCode(code) {
			c.errorCode = code
		}
	}
}

// WithLogOutput sets the logger request lines are written to
func WithLogOutput(l zerolog.Logger) LoggerOption {
	return func(c *loggerConfig) {
		c.log = l
	}
}

// WithLogFormatter sets the formatter used to render request lines
func WithLogFormatter(f Formatter) LoggerOption {
	return func(c *loggerConfig) {
		if f != nil {
			c.formatter = f
		}
	}
}

// Logger returns middleware that writes one line per request once the rest
// of the chain has finished:
//
//	GET /items - 12ms - 200
//
// The status is rendered with a hint derived from its class. When the chain
// failed, the logged status is the one the failure resolves to. Logging never
// changes the response and never fails the request.
func Logger(opts ...LoggerOption) MiddlewareFunc {
	cfg := loggerConfig{
		header:    DefaultTimingHeader,
		errorCode: DefaultErrorCode,
		log:       zerolog.New(os.Stdout).With().Timestamp().Logger(),
		formatter: colors.For(os.Stdout),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(c *Context) (err error) {
			defer func() {
				if p := recover(); p != nil {
					cfg.logRequest(c, resolveFailure(&panicError{value: p}, cfg.errorCode, "").code)
					panic(p)
				}
			}()

			err = next(c)

			status := c.GetStatus()
			if err != nil {
				status = resolveFailure(err, cfg.errorCode, "").code
			}
			cfg.logRequest(c, status)
			return err
		}
	}
}

func (cfg *loggerConfig) logRequest(c *Context, status int) {
	responseTime, ok := c.Response.Headers.Lookup(cfg.header)
	if !ok {
		responseTime = missingValue
	}
	class := ClassOf(status)

	event := cfg.log.WithLevel(class.level()).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Str("status_class", class.String()).
		Str("response_time", responseTime)
	if id := c.GetString(RequestIDKey); id != "" {
		event = event.Str("request_id", id)
	}
	event.Msg(cfg.render(c.Method(), c.Path(), responseTime, status, class))
}

// render formats a request line; a formatter that panics gets the plain
// rendering instead
func (cfg *loggerConfig) render(method, path, responseTime string, status int, class StatusClass) (line string) {
	defer func() {
		if recover() != nil {
			line = requestLine(PlainFormatter, method, path, responseTime, status, class)
		}
	}()
	return requestLine(cfg.formatter, method, path, responseTime, status, class)
}

func requestLine(f Formatter, method, path, responseTime string, status int, class StatusClass) string {
	return fmt.Sprintf("%s %s - %s - %s",
		f.Format(HintMethod, method),
		f.Format(HintPath, path),
		f.Format(HintTiming, responseTime),
		f.Format(class.Hint(), strconv.Itoa(status)),
	)
}
