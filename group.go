package pipeline

import "net/http"

// Group represents a group of routes with a common prefix and middleware
type Group struct {
	router     *Router
	prefix     string
	middleware []MiddlewareFunc
}

// Group creates a new route group with the given prefix
func (r *Router) Group(prefix string, middleware ...MiddlewareFunc) *Group {
	return &Group{
		router:     r,
		prefix:     prefix,
		middleware: middleware,
	}
}

// Use adds middleware to the group
func (g *Group) Use(middleware ...MiddlewareFunc) {
	g.middleware = append(g.middleware, middleware...)
}

// Handle registers a route with the group's prefix. Group middleware runs
// before route-specific middleware.
func (g *Group) Handle(method, path string, handler HandlerFunc, middleware ...MiddlewareFunc) {
	all := make([]MiddlewareFunc, 0, len(g.middleware)+len(middleware))
	all = append(all, g.middleware...)
	all = append(all, middleware...)

	g.router.Handle(method, g.prefix+path, handler, all...)
}

// HTTP method helpers for groups
func (g *Group) Get(path string, handler HandlerFunc, opts ...RouteOption) {
	g.Handle(http.MethodGet, path, handler, parseRouteOptions(opts)...)
}

func (g *Group) Post(path string, handler HandlerFunc, opts ...RouteOption) {
	g.Handle(http.MethodPost, path, handler, parseRouteOptions(opts)...)
}

func (g *Group) Put(path string, handler HandlerFunc, opts ...RouteOption) {
	g.Handle(http.MethodPut, path, handler, parseRouteOptions(opts)...)
}

func (g *Group) Patch(path string, handler HandlerFunc, opts ...RouteOption) {
	g.Handle(http.MethodPatch, path, handler, parseRouteOptions(opts)...)
}

func (g *Group) Delete(path string, handler HandlerFunc, opts ...RouteOption) {
	g.Handle(http.MethodDelete, path, handler, parseRouteOptions(opts)...)
}

// Group creates a nested group with combined prefix and middleware
func (g *Group) Group(prefix string, middleware ...MiddlewareFunc) *Group {
	all := make([]MiddlewareFunc, 0, len(g.middleware)+len(middleware))
	all = append(all, g.middleware...)
	all = append(all, middleware...)

	return &Group{
		router:     g.router,
		prefix:     g.prefix + prefix,
		middleware: all,
	}
}
