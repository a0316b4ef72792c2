package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/douglasgreyling/pipeline"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Mode != pipeline.ModeProduction {
		t.Errorf("Expected production mode, got %q", cfg.Mode)
	}
	if cfg.Server.Addr != ":3000" {
		t.Errorf("Expected :3000, got %q", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Expected 10s shutdown timeout, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Timing.Header != pipeline.DefaultTimingHeader {
		t.Errorf("Expected default timing header, got %q", cfg.Timing.Header)
	}
	if cfg.Errors.Code != 500 || cfg.Errors.Message != "Server Error" {
		t.Errorf("Unexpected error defaults %+v", cfg.Errors)
	}
	if cfg.Errors.StackTrace != nil {
		t.Error("Expected stack trace to follow the mode by default")
	}
	if cfg.NotFound.Code != 404 || cfg.NotFound.Message != "Not Found" {
		t.Errorf("Unexpected not found defaults %+v", cfg.NotFound)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Errorf("Expected a missing file to be skipped, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
mode: development
server:
  addr: ":8080"
  timeout: 2s
timing:
  header: x-elapsed
errors:
  message: Oops
  log_errors: true
rate_limit:
  enabled: true
  rate: 5
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Mode != pipeline.ModeDevelopment {
		t.Errorf("Expected development, got %q", cfg.Mode)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.Timeout != 2*time.Second {
		t.Errorf("Unexpected server config %+v", cfg.Server)
	}
	if cfg.Timing.Header != "x-elapsed" {
		t.Errorf("Expected x-elapsed, got %q", cfg.Timing.Header)
	}
	if cfg.Errors.Message != "Oops" || !cfg.Errors.LogErrors || cfg.Errors.Code != 500 {
		t.Errorf("Unexpected errors config %+v", cfg.Errors)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.Rate != 5 || cfg.RateLimit.Burst != 200 {
		t.Errorf("Unexpected rate limit config %+v", cfg.RateLimit)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected an error for malformed YAML")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":8080\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PIPELINE_SERVER__ADDR", ":9090")
	t.Setenv("PIPELINE_ERRORS__STACK_TRACE", "true")
	t.Setenv("PIPELINE_NOT_FOUND__MESSAGE", "Nope")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("Expected env to win, got %q", cfg.Server.Addr)
	}
	if cfg.Errors.StackTrace == nil || !*cfg.Errors.StackTrace {
		t.Error("Expected stack trace forced on")
	}
	if cfg.NotFound.Message != "Nope" {
		t.Errorf("Expected 'Nope', got %q", cfg.NotFound.Message)
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"PIPELINE_MODE":                "mode",
		"PIPELINE_SERVER__ADDR":        "server.addr",
		"PIPELINE_RATE_LIMIT__ENABLED": "rate_limit.enabled",
	}

	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOptionBuilders(t *testing.T) {
	stack := true
	cfg := &Config{
		Mode:     pipeline.ModeDevelopment,
		Timing:   TimingConfig{Header: "x-elapsed"},
		Errors:   ErrorsConfig{Code: 503, Message: "Later", StackTrace: &stack},
		NotFound: NotFoundConfig{Code: 410, Message: "Gone"},
	}

	if cfg.ModeProvider().Mode() != pipeline.ModeDevelopment {
		t.Error("Expected the configured mode")
	}
	if n := len(cfg.ErrorOptions()); n != 5 {
		t.Errorf("Expected 5 error options with stack trace set, got %d", n)
	}
	cfg.Errors.StackTrace = nil
	if n := len(cfg.ErrorOptions()); n != 4 {
		t.Errorf("Expected 4 error options without stack trace, got %d", n)
	}
	if len(cfg.TimingOptions()) != 1 || len(cfg.LoggerOptions()) != 1 || len(cfg.NotFoundOptions()) != 2 {
		t.Error("Unexpected option counts")
	}
}
