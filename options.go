package pipeline

// RouteOption is a functional option for configuring routes
type RouteOption interface {
	applyToRoute(*routeConfig)
}

// routeConfig holds the configuration for a route
type routeConfig struct {
	middleware []MiddlewareFunc
}

// routeMiddleware is an option that adds middleware to a route
type routeMiddleware []MiddlewareFunc

func (m routeMiddleware) applyToRoute(cfg *routeConfig) {
	cfg.middleware = append(cfg.middleware, m...)
}

// WithMiddleware adds middleware to a specific route. It runs inside the
// global and group middleware, closest to the handler.
func WithMiddleware(middleware ...MiddlewareFunc) RouteOption {
	return routeMiddleware(middleware)
}

// parseRouteOptions extracts the route middleware from route options
func parseRouteOptions(opts []RouteOption) []MiddlewareFunc {
	cfg := &routeConfig{}
	for _, opt := range opts {
		opt.applyToRoute(cfg)
	}
	return cfg.middleware
}
