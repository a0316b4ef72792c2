package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/douglasgreyling/pipeline"
	"github.com/douglasgreyling/pipeline/internal/config"
	"github.com/douglasgreyling/pipeline/internal/telemetry"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	logger := newLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Info().Str("mode", cfg.Mode).Msg("starting pipeline demo")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(cfg.Telemetry.ServiceName, os.Stderr, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize tracer")
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error().Err(err).Msg("failed to shut down tracer")
			}
		}()
	}

	r := newRouter(cfg, logger)

	serveOpts := []pipeline.ServeOption{
		pipeline.WithAddr(cfg.Server.Addr),
		pipeline.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		pipeline.WithServerLogger(logger),
	}
	if cfg.Telemetry.Enabled {
		serveOpts = append(serveOpts, pipeline.WithHandlerWrapper(func(h http.Handler) http.Handler {
			return otelhttp.NewHandler(h, cfg.Telemetry.ServiceName)
		}))
	}

	if err := r.Serve(ctx, serveOpts...); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func newLogger() zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:     os.Stdout,
		NoColor: !isatty.IsTerminal(os.Stdout.Fd()),
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

func newRouter(cfg *config.Config, logger zerolog.Logger) *pipeline.Router {
	r := pipeline.New()
	r.Log = logger
	r.NotFound = pipeline.HandleNotFound(cfg.NotFoundOptions()...)

	errorOpts := append(cfg.ErrorOptions(), pipeline.WithErrorLogger(logger))
	loggerOpts := append(cfg.LoggerOptions(), pipeline.WithLogOutput(logger))

	r.Use(pipeline.DefaultStack(pipeline.StackOptions{
		Errors: errorOpts,
		Logger: loggerOpts,
		Timing: cfg.TimingOptions(),
	})...)
	r.Use(pipeline.RequestID())
	if cfg.Telemetry.Enabled {
		r.Use(pipeline.Tracing(pipeline.WithServiceName(cfg.Telemetry.ServiceName)))
	}
	if cfg.Server.Timeout > 0 {
		r.Use(pipeline.Timeout(cfg.Server.Timeout))
	}
	if cfg.RateLimit.Enabled {
		r.Use(pipeline.RateLimit(cfg.RateLimit.Rate, cfg.RateLimit.Burst, pipeline.WithRateLimitLogger(logger)))
	}

	r.Get("/items", func(c *pipeline.Context) error {
		return c.JSON(http.StatusOK, []item{{ID: "1", Name: "widget"}, {ID: "2", Name: "gadget"}})
	})
	r.Get("/items/:id", func(c *pipeline.Context) error {
		if c.Param("id") != "1" {
			return pipeline.Errorf(http.StatusNotFound, "item %s not found", c.Param("id"))
		}
		return c.JSON(http.StatusOK, item{ID: "1", Name: "widget"})
	})
	r.Get("/forbidden", func(c *pipeline.Context) error {
		return pipeline.NewError(http.StatusForbidden, "Forbidden")
	})
	r.Get("/boom", func(c *pipeline.Context) error {
		return errors.New("boom")
	})

	return r
}
