// Package colors renders short log fragments for terminals.
//
// The pipeline treats rendering as an opaque service: callers pass a Hint
// describing what a fragment is, and the Formatter decides how it looks.
package colors

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Hint names the role of a rendered fragment.
type Hint uint8

const (
	Neutral Hint = iota
	Success
	Redirect
	Failure
	Method
	Path
	Timing
	Emphasis
	Location
)

// Formatter renders text for a hint.
type Formatter interface {
	Format(h Hint, s string) string
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(h Hint, s string) string

func (f FormatterFunc) Format(h Hint, s string) string { return f(h, s) }

const (
	reset  = "\x1b[0m"
	bold   = "\x1b[1m"
	red    = "\x1b[31m"
	green  = "\x1b[32m"
	yellow = "\x1b[33m"
	cyan   = "\x1b[36m"
	white  = "\x1b[37m"
)

var sequences = map[Hint]string{
	Neutral:  white,
	Success:  green,
	Redirect: yellow,
	Failure:  red,
	Method:   red,
	Path:     cyan,
	Timing:   yellow + bold,
	Emphasis: bold,
	Location: yellow,
}

// ANSI renders fragments with ANSI escape sequences.
type ANSI struct{}

func (ANSI) Format(h Hint, s string) string {
	seq, ok := sequences[h]
	if !ok {
		seq = white
	}
	return seq + s + reset
}

// Plain returns fragments unchanged.
type Plain struct{}

func (Plain) Format(_ Hint, s string) string { return s }

// For picks ANSI when w is a terminal and Plain otherwise. NO_COLOR
// disables colors unconditionally.
func For(w io.Writer) Formatter {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return Plain{}
	}
	f, ok := w.(*os.File)
	if !ok {
		return Plain{}
	}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return ANSI{}
	}
	return Plain{}
}
