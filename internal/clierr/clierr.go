// Package clierr carries process exit codes through ordinary error returns so
// that only main decides how the process ends.
package clierr

import (
	"errors"
	"fmt"
)

const (
	// CodeGate is returned when fail-on-error is set and a check or an
	// aggregation ended worse than success.
	CodeGate = 255
	// CodeFatal covers unreadable inputs, unreachable collaborators and
	// usage errors.
	CodeFatal = 2
)

type ExitCoder interface {
	error
	ExitCode() int
}

// ExitError is an error with an explicit exit code. It unwraps to its cause.
type ExitError struct {
	code  int
	msg   string
	cause error
}

func (e *ExitError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.cause)
}

func (e *ExitError) ExitCode() int { return e.code }

func (e *ExitError) Unwrap() error { return e.cause }

func New(code int, msg string) error {
	return &ExitError{code: normalize(code), msg: msg}
}

func Newf(code int, format string, args ...any) error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches code to cause. A nil cause yields a plain New.
func Wrap(code int, msg string, cause error) error {
	if cause == nil {
		return New(code, msg)
	}
	return &ExitError{code: normalize(code), msg: msg, cause: cause}
}

func Wrapf(code int, cause error, format string, args ...any) error {
	return Wrap(code, fmt.Sprintf(format, args...), cause)
}

// ExitCodeOf returns 0 for nil, the carried code for an ExitCoder anywhere in
// the chain, and 1 otherwise.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return 1
}

func normalize(code int) int {
	if code <= 0 {
		return 1
	}
	return code
}
