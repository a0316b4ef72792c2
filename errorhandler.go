package pipeline

import (
	"net/http"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// Error middleware defaults
const (
	DefaultErrorCode    = http.StatusInternalServerError
	DefaultErrorMessage = "Server Error"
)

// ErrorBody is the JSON body of every error response.
// Stack is omitted unless stack traces are enabled; when enabled it is
// always an array, empty if the error carried no stack.
type ErrorBody struct {
	Code  int       `json:"code"`
	Error string    `json:"error"`
	Stack *[]string `json:"stack,omitempty"`
}

type errorConfig struct {
	code       int
	message    string
	stackTrace *bool
	logErrors  bool
	mode       ModeProvider
	log        zerolog.Logger
}

// ErrorOption configures HandleError
type ErrorOption func(*errorConfig)

// WithErrorCode sets the status used when a failure carries no valid code
func WithErrorCode(code int) ErrorOption {
	return func(c *errorConfig) {
		c.code = code
	}
}

// WithErrorMessage sets the message used when a failure carries none
func WithErrorMessage(message string) ErrorOption {
	return func(c *errorConfig) {
		c.message = message
	}
}

// WithStackTrace forces stack traces in error bodies on or off. Without it
// they are included only when the mode provider reports development.
func WithStackTrace(enabled bool) ErrorOption {
	return func(c *errorConfig) {
		c.stackTrace = &enabled
	}
}

// WithLogErrors writes every failure to the error logger
func WithLogErrors(enabled bool) ErrorOption {
	return func(c *errorConfig) {
		c.logErrors = enabled
	}
}

// WithModeProvider sets where the runtime mode is read from.
// Defaults to EnvMode("PIPELINE_MODE").
func WithModeProvider(p ModeProvider) ErrorOption {
	return func(c *errorConfig) {
		c.mode = p
	}
}

// WithErrorLogger sets the logger failures are written to
func WithErrorLogger(l zerolog.Logger) ErrorOption {
	return func(c *errorConfig) {
		c.log = l
	}
}

// errorSettings is the resolved, read-only configuration of one HandleError
// instance
type errorSettings struct {
	code       int
	message    string
	stackTrace bool
	logErrors  bool
	log        zerolog.Logger
}

// HandleError returns middleware that turns any failure of the rest of the
// chain, returned or panicked, into a JSON error response:
//
//	{"code": 403, "error": "Forbidden"}
//
// The code and message come from a HandlerError when it carries usable
// ones, and from the configured defaults otherwise. Headers already set on
// the response are kept. When nothing fails the response is left untouched.
// The returned handler never returns an error.
func HandleError(opts ...ErrorOption) MiddlewareFunc {
	s := newErrorSettings(opts)

	return func(next HandlerFunc) HandlerFunc {
		return func(c *Context) (err error) {
			defer func() {
				if p := recover(); p != nil {
					// net/http aborts the connection on this value
					if p == http.ErrAbortHandler {
						panic(p)
					}
					err = &panicError{value: p, stack: string(debug.Stack())}
				}
				if err != nil {
					s.translate(c, err)
					err = nil
				}
			}()
			return next(c)
		}
	}
}

func newErrorSettings(opts []ErrorOption) errorSettings {
	cfg := errorConfig{
		code:    DefaultErrorCode,
		message: DefaultErrorMessage,
		mode:    EnvMode("PIPELINE_MODE"),
		log:     zerolog.New(os.Stderr).With().Timestamp().Logger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := errorSettings{
		code:      cfg.code,
		message:   cfg.message,
		logErrors: cfg.logErrors,
		log:       cfg.log,
	}
	if !validCode(s.code) {
		s.code = DefaultErrorCode
	}
	if cfg.stackTrace != nil {
		s.stackTrace = *cfg.stackTrace
	} else {
		s.stackTrace = isDevelopment(cfg.mode)
	}
	return s
}

// translate writes the error response for err. Code and message are
// computed per call; the settings are never modified.
func (s errorSettings) translate(c *Context, err error) {
	f := resolveFailure(err, s.code, s.message)

	body := ErrorBody{Code: f.code, Error: f.message}
	if s.stackTrace {
		lines := stackLines(f.stack)
		body.Stack = &lines
	}

	c.Response.Status = f.code
	c.Response.ContentType = MIMEJSON
	c.Response.Body = body

	if s.logErrors {
		s.log.Error().
			Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", f.code).
			Str("stack", f.stack).
			Msgf("request failed: %s %s", c.Method(), c.Path())
	}
}
