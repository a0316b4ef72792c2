package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTracedRouter(t *testing.T, opts ...TracingOption) (*Router, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	r := New()
	r.Use(Tracing(append([]TracingOption{WithTracerProvider(tp)}, opts...)...))
	r.Get("/items/:id", func(c *Context) error {
		if !trace.SpanContextFromContext(c.Context()).IsValid() {
			t.Error("Expected the span to be on the request context")
		}
		return c.JSON(200, c.Param("id"))
	})
	r.Get("/health", func(c *Context) error {
		if trace.SpanContextFromContext(c.Context()).IsValid() {
			t.Error("Expected no span for a skipped path")
		}
		return c.NoContent(204)
	})
	r.Get("/fail", func(c *Context) error {
		return NewError(503, "Unavailable")
	})
	r.Get("/cancelled", func(c *Context) error {
		return fmt.Errorf("%w: %w", ErrCancelled, context.Canceled)
	})
	return r, exporter
}

func spanAttr(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingCreatesSpan(t *testing.T) {
	r, exporter := newTracedRouter(t, WithServiceName("items"))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/items/7", nil))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("Expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != "GET /items/:id" {
		t.Errorf("Expected span name 'GET /items/:id', got %q", span.Name)
	}
	if span.SpanKind != trace.SpanKindServer {
		t.Errorf("Expected server span, got %v", span.SpanKind)
	}
	if span.Status.Code != codes.Ok {
		t.Errorf("Expected Ok status, got %v", span.Status.Code)
	}
	if v, ok := spanAttr(span.Attributes, "http.status_code"); !ok || v.AsInt64() != 200 {
		t.Errorf("Expected status code attribute 200, got %v", v)
	}
	if v, ok := spanAttr(span.Attributes, "service.name"); !ok || v.AsString() != "items" {
		t.Errorf("Expected service name attribute, got %v", v)
	}
}

func TestTracingRecordsErrors(t *testing.T) {
	r, exporter := newTracedRouter(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/fail", nil))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("Expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Status.Code != codes.Error {
		t.Errorf("Expected Error status, got %v", span.Status.Code)
	}
	if len(span.Events) == 0 {
		t.Error("Expected error event on span")
	}
	if v, _ := spanAttr(span.Attributes, "http.status_code"); v.AsInt64() != 503 {
		t.Errorf("Expected status code 503, got %v", v)
	}
}

func TestTracingMarksCancellation(t *testing.T) {
	r, exporter := newTracedRouter(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/cancelled", nil))

	span := exporter.GetSpans()[0]
	if v, ok := spanAttr(span.Attributes, "http.cancelled"); !ok || !v.AsBool() {
		t.Error("Expected http.cancelled attribute")
	}
}

func TestTracingSkipPaths(t *testing.T) {
	r, exporter := newTracedRouter(t, WithSkipPaths("/health"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != 204 {
		t.Errorf("Expected skipped path to still be served, got %d", w.Code)
	}
	if n := len(exporter.GetSpans()); n != 0 {
		t.Errorf("Expected no spans, got %d", n)
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/items/1", nil))
	if n := len(exporter.GetSpans()); n != 1 {
		t.Errorf("Expected other paths to be traced, got %d spans", n)
	}
}

func TestTracingUsesPathForUnmatched(t *testing.T) {
	r, exporter := newTracedRouter(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nowhere", nil))

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != "GET /nowhere" {
		t.Errorf("Unexpected spans %+v", spans)
	}
}

func TestTracingMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	r := New()
	r.Use(Tracing(WithTracerProvider(sdktrace.NewTracerProvider()), WithMeterProvider(mp)))
	r.Get("/ok", func(c *Context) error { return nil })
	r.Get("/fail", func(c *Context) error { return errors.New("boom") })

	for _, path := range []string{"/ok", "/ok", "/fail"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}

	if totals["http.server.requests"] != 3 {
		t.Errorf("Expected 3 requests, got %d", totals["http.server.requests"])
	}
	if totals["http.server.errors"] != 1 {
		t.Errorf("Expected 1 error, got %d", totals["http.server.errors"])
	}
}
