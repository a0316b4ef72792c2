package pipeline

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// ErrCancelled marks a failure caused by the request context being cancelled
// or running past its deadline.
var ErrCancelled = errors.New("request cancelled")

// HandlerError is the error shape the error middleware understands. Code is
// used as the response status when it is a valid HTTP status, Message as the
// client-facing message when it is not empty. Any other error is rendered
// with the configured defaults.
type HandlerError struct {
	Code    int
	Message string
	Stack   string
	Err     error
}

// NewError returns a HandlerError with the caller's stack attached
func NewError(code int, message string) *HandlerError {
	return &HandlerError{Code: code, Message: message, Stack: string(debug.Stack())}
}

// Errorf is NewError with a formatted message
func Errorf(code int, format string, args ...any) *HandlerError {
	return &HandlerError{Code: code, Message: fmt.Sprintf(format, args...), Stack: string(debug.Stack())}
}

// WrapError returns a HandlerError carrying err as its cause
func WrapError(code int, message string, err error) *HandlerError {
	return &HandlerError{Code: code, Message: message, Err: err, Stack: string(debug.Stack())}
}

func (e *HandlerError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("status %d", e.Code)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// validCode reports whether code can be used as a response status
func validCode(code int) bool {
	return code >= 100 && code <= 599
}

// failure is a resolved error: what the client sees plus what gets logged
type failure struct {
	code    int
	message string
	stack   string
	err     error
}

// resolveFailure computes the response code and message for err from the
// given defaults. Only a HandlerError in err's chain can override them, and
// only with a valid status code and a non-empty message.
func resolveFailure(err error, defaultCode int, defaultMessage string) failure {
	f := failure{code: defaultCode, message: defaultMessage, err: err}

	var he *HandlerError
	if errors.As(err, &he) {
		if validCode(he.Code) {
			f.code = he.Code
		}
		if strings.TrimSpace(he.Message) != "" {
			f.message = he.Message
		}
		f.stack = he.Stack
	}
	if f.stack == "" {
		var pe *panicError
		if errors.As(err, &pe) {
			f.stack = pe.stack
		}
	}
	return f
}

// panicError carries a value recovered from a panic below the error
// middleware
type panicError struct {
	value any
	stack string
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func (e *panicError) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}

// stackLines splits a raw stack into trimmed, non-empty lines. The result is
// never nil so it always renders as a JSON array.
func stackLines(stack string) []string {
	lines := make([]string, 0)
	for _, line := range strings.Split(stack, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
