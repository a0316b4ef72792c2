package pipeline

import (
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/douglasgreyling/pipeline"

// TracingOption configures the tracing middleware
type TracingOption func(*tracingConfig)

type tracingConfig struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	serviceName    string
	skipPaths      map[string]bool
}

// WithTracerProvider sets a custom tracer provider
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *tracingConfig) {
		c.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom meter provider
func WithMeterProvider(mp metric.MeterProvider) TracingOption {
	return func(c *tracingConfig) {
		c.meterProvider = mp
	}
}

// WithServiceName sets the service name recorded on spans and metrics
func WithServiceName(name string) TracingOption {
	return func(c *tracingConfig) {
		c.serviceName = name
	}
}

// WithSkipPaths disables tracing for the given request paths
func WithSkipPaths(paths ...string) TracingOption {
	return func(c *tracingConfig) {
		for _, p := range paths {
			c.skipPaths[p] = true
		}
	}
}

// Tracing returns middleware that wraps each request in a server span and
// records request count, duration and errors. Place it inside HandleError to
// see failures as errors, or outside to see the translated status codes.
func Tracing(opts ...TracingOption) MiddlewareFunc {
	cfg := &tracingConfig{
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
		serviceName:    "pipeline",
		skipPaths:      make(map[string]bool),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	tracer := cfg.tracerProvider.Tracer(instrumentationName, trace.WithInstrumentationVersion("1.0.0"))
	meter := cfg.meterProvider.Meter(instrumentationName, metric.WithInstrumentationVersion("1.0.0"))

	requestCounter, _ := meter.Int64Counter(
		"http.server.requests",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	requestDuration, _ := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("ms"),
	)
	errorCounter, _ := meter.Int64Counter(
		"http.server.errors",
		metric.WithDescription("Total number of failed HTTP requests"),
		metric.WithUnit("{error}"),
	)

	return func(next HandlerFunc) HandlerFunc {
		return func(c *Context) error {
			if cfg.skipPaths[c.Path()] {
				return next(c)
			}

			route := c.Route()
			if route == "" {
				route = c.Path()
			}

			ctx, span := tracer.Start(c.Context(), c.Method()+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", c.Method()),
					attribute.String("http.route", route),
					attribute.String("service.name", cfg.serviceName),
				),
			)
			defer span.End()

			parent := c.Context()
			c.WithContext(ctx)
			defer c.WithContext(parent)

			attrs := []attribute.KeyValue{
				attribute.String("http.method", c.Method()),
				attribute.String("http.route", route),
				attribute.String("service.name", cfg.serviceName),
			}
			requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

			start := time.Now()
			err := next(c)
			requestDuration.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attrs...))

			status := c.GetStatus()
			if err != nil {
				status = resolveFailure(err, http.StatusInternalServerError, "").code
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				if errors.Is(err, ErrCancelled) {
					span.SetAttributes(attribute.Bool("http.cancelled", true))
				}
			} else if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			} else {
				span.SetStatus(codes.Ok, "")
			}
			span.SetAttributes(attribute.Int("http.status_code", status))

			if err != nil || status >= http.StatusInternalServerError {
				errorCounter.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.Int("http.status_code", status))...))
			}
			return err
		}
	}
}
