package pipeline

import "os"

// Runtime modes
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// ModeProvider reports the runtime mode. The error middleware asks it once,
// at construction, when stack trace inclusion was not set explicitly.
type ModeProvider interface {
	Mode() string
}

// ModeFunc adapts a function to ModeProvider
type ModeFunc func() string

func (f ModeFunc) Mode() string { return f() }

// StaticMode always reports mode
func StaticMode(mode string) ModeProvider {
	return ModeFunc(func() string { return mode })
}

// EnvMode reads the mode from the environment variable key. An unset or
// empty variable reads as production.
func EnvMode(key string) ModeProvider {
	return ModeFunc(func() string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return ModeProduction
	})
}

func isDevelopment(p ModeProvider) bool {
	return p != nil && p.Mode() == ModeDevelopment
}
