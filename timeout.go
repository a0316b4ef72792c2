package pipeline

import (
	"context"
	"fmt"
	"time"
)

// Timeout returns middleware that puts a deadline on the request context.
// Handlers are expected to honor Context().Done(); if the chain returns after
// the context was cancelled, the result is replaced by an error wrapping
// ErrCancelled and the context error.
func Timeout(d time.Duration) MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(c *Context) error {
			parent := c.Context()
			ctx, cancel := context.WithTimeout(parent, d)
			defer cancel()

			c.WithContext(ctx)
			defer c.WithContext(parent)

			err := next(c)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("%w: %w", ErrCancelled, ctxErr)
			}
			return err
		}
	}
}
