package pipeline

import (
	"net/http"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/douglasgreyling/pipeline/internal/tree"
)

// Params holds route parameters extracted from the URL
type Params map[string]string

// route is what the tree stores for each registered pattern
type route struct {
	handler    HandlerFunc
	middleware []MiddlewareFunc
}

// Router is the server boundary of the pipeline. It builds a Context for
// every request, picks the terminal handler, runs it inside the middleware
// chain and serializes the resulting response.
type Router struct {
	routes *tree.Tree[*route]

	// Global middleware applied to every request, matched or not
	middleware []MiddlewareFunc

	// NotFound handles requests no route matched
	NotFound HandlerFunc

	// MethodNotAllowed handles paths registered under other methods only
	MethodNotAllowed HandlerFunc

	// ErrorHandler handles errors that escape the middleware chain. With
	// HandleError installed nothing escapes and it is never called.
	ErrorHandler func(*Context, error)

	// Log receives failures to serialize a response
	Log zerolog.Logger
}

// New creates a new Router instance
func New() *Router {
	return &Router{
		routes:           tree.New[*route](),
		NotFound:         HandleNotFound(),
		MethodNotAllowed: HandleMethodNotAllowed(),
		ErrorHandler: func(c *Context, err error) {
			resolved := resolveFailure(err, DefaultErrorCode, DefaultErrorMessage)
			_ = c.JSON(resolved.code, ErrorBody{Code: resolved.code, Error: resolved.message})
		},
		Log: zerolog.Nop(),
	}
}

// Use adds global middleware to the router
func (r *Router) Use(middleware ...MiddlewareFunc) {
	r.middleware = append(r.middleware, middleware...)
}

// Handle registers a new route with the given method and path.
// It panics on malformed patterns, as registration happens at startup.
func (r *Router) Handle(method, path string, handler HandlerFunc, middleware ...MiddlewareFunc) {
	if err := r.routes.Add(method, path, &route{handler: handler, middleware: middleware}); err != nil {
		panic(err)
	}
}

// HTTP method helpers
func (r *Router) Get(path string, handler HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodGet, path, handler, parseRouteOptions(opts)...)
}

func (r *Router) Post(path string, handler HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodPost, path, handler, parseRouteOptions(opts)...)
}

func (r *Router) Put(path string, handler HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodPut, path, handler, parseRouteOptions(opts)...)
}

func (r *Router) Patch(path string, handler HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodPatch, path, handler, parseRouteOptions(opts)...)
}

func (r *Router) Delete(path string, handler HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodDelete, path, handler, parseRouteOptions(opts)...)
}

func (r *Router) Head(path string, handler HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodHead, path, handler, parseRouteOptions(opts)...)
}

func (r *Router) Options(path string, handler HandlerFunc, opts ...RouteOption) {
	r.Handle(http.MethodOptions, path, handler, parseRouteOptions(opts)...)
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	c := NewContext(req)

	// Global middleware wraps every terminal so unmatched requests are
	// timed, logged and translated like any other
	handler := Chain(r.middleware...)(r.terminal(c))

	if err := handler(c); err != nil && r.ErrorHandler != nil {
		r.ErrorHandler(c, err)
	}

	body, err := c.encodeBody()
	if err != nil {
		r.Log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("failed to encode response")
		_ = c.JSON(DefaultErrorCode, ErrorBody{Code: DefaultErrorCode, Error: DefaultErrorMessage})
		body, _ = c.encodeBody()
	}

	if err := c.writeTo(w, body); err != nil {
		r.Log.Debug().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("failed to write response")
	}
}

// terminal resolves the handler for c and records the route on it
func (r *Router) terminal(c *Context) HandlerFunc {
	path := c.Path()

	if m, ok := r.routes.Find(c.Method(), path); ok {
		if m.Params != nil {
			c.Params = m.Params
		}
		c.route = m.Pattern
		return Chain(m.Value.middleware...)(m.Value.handler)
	}

	if methods := r.routes.Methods(path); len(methods) > 0 {
		sort.Strings(methods)
		c.SetHeader("Allow", strings.Join(methods, ", "))
		return r.MethodNotAllowed
	}

	return r.NotFound
}
