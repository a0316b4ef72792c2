package pipeline

// HandlerFunc is the function signature for handlers and for the
// continuation a middleware receives. Calling it runs the remaining chain
// and the terminal handler; it returns once all of them have finished.
// A nil error means the exchange completed, anything else means it failed.
type HandlerFunc func(*Context) error

// MiddlewareFunc is the function signature for middleware.
// Middleware wraps a HandlerFunc and can perform actions before and/or after
// the handler executes. Each middleware calls next exactly once and waits for
// it, unless it fails before getting there, in which case it returns that
// failure so outer middleware can observe it.
//
// Execution order is onion-shaped: outer "before" code runs before inner
// "before" code, and outer "after" code runs after inner "after" code.
//
//	func audit(next pipeline.HandlerFunc) pipeline.HandlerFunc {
//	    return func(c *pipeline.Context) error {
//	        before := time.Now()
//	        err := next(c)
//	        log.Printf("%s %s took %v", c.Method(), c.Path(), time.Since(before))
//	        return err
//	    }
//	}
type MiddlewareFunc func(HandlerFunc) HandlerFunc

// Chain composes middleware into one. Chain(m1, m2, m3) results in m1
// wrapping m2 wrapping m3 wrapping the final handler.
func Chain(middleware ...MiddlewareFunc) MiddlewareFunc {
	return func(final HandlerFunc) HandlerFunc {
		for i := len(middleware) - 1; i >= 0; i-- {
			final = middleware[i](final)
		}
		return final
	}
}

// StackOptions groups the options of the default stack.
type StackOptions struct {
	Errors []ErrorOption
	Logger []LoggerOption
	Timing []TimingOption
}

// DefaultStack returns error translation, logging and response timing, outer
// to inner. Logger must wrap ResponseTime to see the timing header, and logs
// failures with the default code HandleError answers with.
func DefaultStack(opts StackOptions) []MiddlewareFunc {
	errorCode := newErrorSettings(opts.Errors).code
	loggerOpts := append([]LoggerOption{WithLogErrorCode(errorCode)}, opts.Logger...)

	return []MiddlewareFunc{
		HandleError(opts.Errors...),
		Logger(loggerOpts...),
		ResponseTime(opts.Timing...),
	}
}
