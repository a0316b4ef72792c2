package pipeline

import "net/http"

type notFoundConfig struct {
	code    int
	message string
}

// NotFoundOption configures HandleNotFound
type NotFoundOption func(*notFoundConfig)

// WithNotFoundCode sets the response status. Defaults to 404.
func WithNotFoundCode(code int) NotFoundOption {
	return func(c *notFoundConfig) {
		if validCode(code) {
			c.code = code
		}
	}
}

// WithNotFoundMessage sets the error message. Defaults to "Not Found".
func WithNotFoundMessage(message string) NotFoundOption {
	return func(c *notFoundConfig) {
		c.message = message
	}
}

// HandleNotFound returns the terminal handler for requests no route matched.
// It overwrites status, body and content type whatever they were before.
func HandleNotFound(opts ...NotFoundOption) HandlerFunc {
	cfg := notFoundConfig{code: http.StatusNotFound, message: http.StatusText(http.StatusNotFound)}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(c *Context) error {
		return c.JSON(cfg.code, ErrorBody{Code: cfg.code, Error: cfg.message})
	}
}

// HandleMethodNotAllowed returns the terminal handler for paths that exist
// under other methods only
func HandleMethodNotAllowed() HandlerFunc {
	return HandleNotFound(
		WithNotFoundCode(http.StatusMethodNotAllowed),
		WithNotFoundMessage(http.StatusText(http.StatusMethodNotAllowed)),
	)
}
