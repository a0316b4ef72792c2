package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/douglasgreyling/pipeline/internal/colors"
)

// ServeConfig holds configuration for the Serve method
type ServeConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
	Wrap            func(http.Handler) http.Handler
	Log             zerolog.Logger
	Formatter       Formatter
}

// ServeOption is a functional option for configuring Serve
type ServeOption func(*ServeConfig)

// WithAddr sets the server address
func WithAddr(addr string) ServeOption {
	return func(c *ServeConfig) {
		c.Addr = addr
	}
}

// WithShutdownTimeout bounds how long Serve waits for in-flight requests
// once ctx is done
func WithShutdownTimeout(d time.Duration) ServeOption {
	return func(c *ServeConfig) {
		c.ShutdownTimeout = d
	}
}

// WithHandlerWrapper wraps the router before it is handed to http.Server,
// e.g. with otelhttp.NewHandler
func WithHandlerWrapper(wrap func(http.Handler) http.Handler) ServeOption {
	return func(c *ServeConfig) {
		c.Wrap = wrap
	}
}

// WithServerLogger sets the logger for server lifecycle messages
func WithServerLogger(l zerolog.Logger) ServeOption {
	return func(c *ServeConfig) {
		c.Log = l
	}
}

// Serve starts the HTTP server and blocks until ctx is done or the listener
// fails. Defaults: addr=":3000", shutdown timeout 10s.
//
//	r.Serve(ctx)                    // Use all defaults
//	r.Serve(ctx, WithAddr(":8080")) // Custom port only
func (r *Router) Serve(ctx context.Context, opts ...ServeOption) error {
	config := &ServeConfig{
		Addr:            ":3000",
		ShutdownTimeout: 10 * time.Second,
		Log:             zerolog.New(os.Stdout).With().Timestamp().Logger(),
		Formatter:       colors.For(os.Stdout),
	}
	for _, opt := range opts {
		opt(config)
	}

	var handler http.Handler = r
	if config.Wrap != nil {
		handler = config.Wrap(handler)
	}

	ln, err := net.Listen("tcp", config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", config.Addr, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	host, port, _ := net.SplitHostPort(ln.Addr().String())
	LogServerStart(config.Log, config.Formatter, host, port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	config.Log.Info().Msg("server stopped")
	return nil
}

// LogServerStart writes the "Start listening on" line
func LogServerStart(l zerolog.Logger, f Formatter, host, port string) {
	if f == nil {
		f = PlainFormatter
	}
	if host == "" || host == "::" || host == "0.0.0.0" {
		host = "localhost"
	}
	url := "http://" + net.JoinHostPort(host, port)
	l.Info().
		Str("addr", url).
		Msg(f.Format(colors.Emphasis, "Start listening on ") + f.Format(colors.Location, url))
}
