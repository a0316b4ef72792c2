package pipeline

import "github.com/google/uuid"

// RequestIDKey is the context store key holding the request ID
const RequestIDKey = "request_id"

// RequestIDHeader carries the request ID on requests and responses
const RequestIDHeader = "X-Request-ID"

// RequestID returns middleware that gives each request an ID, reusing the
// one sent by the client if present. The ID is echoed in the response and
// stored on the context, where Logger picks it up.
func RequestID() MiddlewareFunc {
	return RequestIDWithGenerator(func() string { return uuid.New().String() })
}

// RequestIDWithGenerator is RequestID with a custom ID generator
func RequestIDWithGenerator(generate func() string) MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(c *Context) error {
			id := c.Header(RequestIDHeader)
			if id == "" {
				id = generate()
			}
			c.Set(RequestIDKey, id)
			c.SetHeader(RequestIDHeader, id)
			return next(c)
		}
	}
}
