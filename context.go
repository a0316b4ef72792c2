package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// MIME types set by the response helpers
const (
	MIMEJSON  = "application/json"
	MIMEText  = "text/plain; charset=utf-8"
	MIMEHTML  = "text/html; charset=utf-8"
	mimeJSONs = "+json"
)

// Headers is a response header map with case-insensitive keys.
// Keys are stored lower-cased.
type Headers map[string]string

// Set stores value under key
func (h Headers) Set(key, value string) {
	h[strings.ToLower(key)] = value
}

// Get returns the value stored under key, or ""
func (h Headers) Get(key string) string {
	return h[strings.ToLower(key)]
}

// Lookup returns the value stored under key and whether it was present
func (h Headers) Lookup(key string) (string, bool) {
	v, ok := h[strings.ToLower(key)]
	return v, ok
}

// Del removes key
func (h Headers) Del(key string) {
	delete(h, strings.ToLower(key))
}

// Response is the buffered response of one exchange. Middleware mutate it;
// the router serializes it once the outermost middleware has returned.
type Response struct {
	Status      int
	Body        any
	ContentType string
	Headers     Headers
}

// Context is the per-request exchange state passed through the middleware
// chain. A Context belongs to exactly one in-flight request.
type Context struct {
	Request  *http.Request
	Response Response
	Params   Params
	route    string
	ctx      context.Context
	store    map[string]any
}

// NewContext creates a Context for req. The router calls it for every
// request; tests use it to drive middleware directly.
func NewContext(req *http.Request) *Context {
	return &Context{
		Request: req,
		Response: Response{
			Status:  http.StatusOK,
			Headers: make(Headers),
		},
		Params: make(Params),
		ctx:    req.Context(),
		store:  make(map[string]any),
	}
}

// Context returns the request-scoped context.Context
func (c *Context) Context() context.Context {
	return c.ctx
}

// WithContext replaces the request-scoped context.Context
func (c *Context) WithContext(ctx context.Context) {
	c.ctx = ctx
	c.Request = c.Request.WithContext(ctx)
}

// Route returns the matched route pattern, or "" when no route matched
func (c *Context) Route() string {
	return c.route
}

// Method returns the HTTP method
func (c *Context) Method() string {
	return c.Request.Method
}

// Path returns the request path
func (c *Context) Path() string {
	return c.Request.URL.Path
}

// Param returns a route parameter by name
func (c *Context) Param(name string) string {
	return c.Params[name]
}

// Query returns a URL query parameter by name
func (c *Context) Query(name string) string {
	return c.Request.URL.Query().Get(name)
}

// Header returns a request header value
func (c *Context) Header(key string) string {
	return c.Request.Header.Get(key)
}

// ClientIP returns the client's IP address
func (c *Context) ClientIP() string {
	if ip := c.Request.Header.Get("X-Forwarded-For"); ip != "" {
		if i := strings.IndexByte(ip, ','); i >= 0 {
			ip = ip[:i]
		}
		return strings.TrimSpace(ip)
	}
	if ip := c.Request.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return c.Request.RemoteAddr
}

// Set stores a value in the context
func (c *Context) Set(key string, value any) {
	c.store[key] = value
}

// Get retrieves a value from the context
func (c *Context) Get(key string) any {
	return c.store[key]
}

// GetString retrieves a string value from the context
func (c *Context) GetString(key string) string {
	if val, ok := c.store[key].(string); ok {
		return val
	}
	return ""
}

// SetHeader sets a response header
func (c *Context) SetHeader(key, value string) {
	c.Response.Headers.Set(key, value)
}

// ResponseHeader returns a response header value
func (c *Context) ResponseHeader(key string) string {
	return c.Response.Headers.Get(key)
}

// Status sets the response status code
func (c *Context) Status(code int) {
	c.Response.Status = code
}

// GetStatus returns the response status code. Defaults to 200.
func (c *Context) GetStatus() int {
	return c.Response.Status
}

// JSON sets a JSON response
func (c *Context) JSON(status int, data any) error {
	c.Response.Status = status
	c.Response.ContentType = MIMEJSON
	c.Response.Body = data
	return nil
}

// String sets a plain text response
func (c *Context) String(status int, format string, values ...any) error {
	c.Response.Status = status
	c.Response.ContentType = MIMEText
	if len(values) == 0 {
		c.Response.Body = format
	} else {
		c.Response.Body = fmt.Sprintf(format, values...)
	}
	return nil
}

// HTML sets an HTML response
func (c *Context) HTML(status int, html string) error {
	c.Response.Status = status
	c.Response.ContentType = MIMEHTML
	c.Response.Body = html
	return nil
}

// Data sets raw bytes as the response
func (c *Context) Data(status int, contentType string, data []byte) error {
	c.Response.Status = status
	c.Response.ContentType = contentType
	c.Response.Body = data
	return nil
}

// NoContent sets a response with no body
func (c *Context) NoContent(status int) error {
	c.Response.Status = status
	c.Response.Body = nil
	return nil
}

// isJSON reports whether contentType names a JSON media type
func isJSON(contentType string) bool {
	mt := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	return mt == MIMEJSON || strings.HasSuffix(mt, mimeJSONs)
}

// encodeBody renders the buffered body for the wire
func (c *Context) encodeBody() ([]byte, error) {
	switch b := c.Response.Body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case string:
		if isJSON(c.Response.ContentType) {
			break
		}
		return []byte(b), nil
	}
	if c.Response.ContentType == "" {
		c.Response.ContentType = MIMEJSON
	}
	if !isJSON(c.Response.ContentType) {
		return []byte(fmt.Sprint(c.Response.Body)), nil
	}
	data, err := json.Marshal(c.Response.Body)
	if err != nil {
		return nil, fmt.Errorf("encode response body: %w", err)
	}
	return data, nil
}

// writeTo writes headers, status and the encoded body onto w
func (c *Context) writeTo(w http.ResponseWriter, body []byte) error {
	h := w.Header()
	for k, v := range c.Response.Headers {
		h.Set(k, v)
	}
	if c.Response.ContentType != "" {
		h.Set("Content-Type", c.Response.ContentType)
	}

	status := c.Response.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if len(body) == 0 || c.Request.Method == http.MethodHead || !bodyAllowed(status) {
		return nil
	}
	_, err := w.Write(body)
	return err
}

func bodyAllowed(status int) bool {
	return !(status >= 100 && status < 200) && status != http.StatusNoContent && status != http.StatusNotModified
}
