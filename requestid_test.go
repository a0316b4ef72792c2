package pipeline

import (
	"bytes"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/rs/zerolog"
)

func TestRequestIDGenerates(t *testing.T) {
	c := newTestContext("GET", "/")
	var seen string

	err := RequestID()(func(c *Context) error {
		seen = c.GetString(RequestIDKey)
		return nil
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	uuidPattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	if !uuidPattern.MatchString(seen) {
		t.Errorf("Expected a UUID, got %q", seen)
	}
	if got := c.ResponseHeader(RequestIDHeader); got != seen {
		t.Errorf("Expected response header %q, got %q", seen, got)
	}
}

func TestRequestIDReusesInbound(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	c := NewContext(req)

	_ = RequestIDWithGenerator(func() string {
		t.Error("Expected generator not to be called")
		return ""
	})(func(c *Context) error { return nil })(c)

	if got := c.GetString(RequestIDKey); got != "abc-123" {
		t.Errorf("Expected inbound ID, got %q", got)
	}
}

func TestRequestIDReachesLogger(t *testing.T) {
	var buf bytes.Buffer
	r := New()
	r.Use(
		Logger(WithLogOutput(zerolog.New(&buf)), WithLogFormatter(PlainFormatter)),
		RequestIDWithGenerator(func() string { return "fixed-id" }),
	)
	r.Get("/", func(c *Context) error { return c.NoContent(204) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Header().Get(RequestIDHeader) != "fixed-id" {
		t.Errorf("Expected request ID header, got %q", w.Header().Get(RequestIDHeader))
	}
	lines := parseLogLines(t, &buf)
	if len(lines) != 1 || lines[0].RequestID != "fixed-id" {
		t.Errorf("Expected request ID in log line, got %+v", lines)
	}
}
