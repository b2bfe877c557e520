package error

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	pkgerr "github.com/pkg/errors"
)

//
// Create a new wrapped error.
// The first (odd) string in `kvpair` is the description.
func New(m string, kvpair ...interface{}) error {
	return wrap(errors.New(m), kvpair)
}

//
// Wrap an error.
// Returns `nil` when `err` is nil. An *Error is not
// wrapped again, the context is appended instead.
func Wrap(err error, kvpair ...interface{}) error {
	return wrap(err, kvpair)
}

//
// Unwrap an error.
// Returns the root cause.
func Unwrap(err error) (out error) {
	if err == nil {
		return
	}
	out = err
	for {
		switch wrapped := out.(type) {
		case interface{ Unwrap() error }:
			next := wrapped.Unwrap()
			if next == nil {
				return
			}
			out = next
		case interface{ Cause() error }:
			next := wrapped.Cause()
			if next == nil || next == out {
				return
			}
			out = next
		default:
			return
		}
	}
}

//
// Error.
// Wraps a root cause error and captures the stack.
type Error struct {
	// Original error.
	wrapped error
	// Description.
	description string
	// Context key/value pairs.
	context []interface{}
	// Collected stack.
	stack []string
}

//
// Error description.
func (e *Error) Error() string {
	if len(e.description) > 0 {
		return e.description + " caused by: " + e.wrapped.Error()
	}

	return e.wrapped.Error()
}

//
// Get the description.
func (e *Error) Description() string {
	return e.description
}

//
// Get the context.
func (e *Error) Context() []interface{} {
	return e.context
}

//
// Get the stack trace.
func (e *Error) Stack() string {
	return strings.Join(e.stack, "\n")
}

//
// Unwrap the error.
func (e *Error) Unwrap() error {
	return pkgerr.Cause(e.wrapped)
}

//
// Add context.
func (e *Error) append(kvpair []interface{}) {
	if len(kvpair) == 0 {
		return
	}
	if len(kvpair)%2 != 0 {
		if description, cast := kvpair[0].(string); cast {
			if len(e.description) > 0 {
				e.description = description + " " + e.description
			} else {
				e.description = description
			}
		}
		kvpair = kvpair[1:]
	}

	e.context = append(e.context, kvpair...)
}

func wrap(err error, kvpair []interface{}) error {
	if err == nil {
		return nil
	}
	if le, cast := err.(*Error); cast {
		le.append(kvpair)
		return le
	}
	bfr := make([]uintptr, 50)
	n := runtime.Callers(3, bfr)
	frames := runtime.CallersFrames(bfr[:n])
	stack := []string{}
	for {
		f, hasNext := frames.Next()
		stack = append(
			stack,
			fmt.Sprintf(
				"%s()\n\t%s:%d",
				f.Function,
				f.File,
				f.Line))
		if !hasNext {
			break
		}
	}
	le := &Error{
		wrapped: err,
		stack:   stack,
	}
	le.append(kvpair)

	return le
}
