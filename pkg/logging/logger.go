package logging

import (
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	liberr "github.com/konveyor/filequeue/pkg/error"
)

//
// Stack and error keys.
const (
	Error = "error"
	Stack = "stacktrace"
)

//
// Real logger factory.
var Factory = func(name string) logr.Logger {
	builder := &ZapBuilder{}
	return builder.New().WithName(name)
}

//
// Unique name generator.
// Used by Reset() so loggers created by independent
// processes (or cursors) are distinguishable.
var NameGenerator = func(name string) string {
	return name + "|" + uuid.New().String()[:8]
}

//
// Logger.
// Wraps a logr.Logger and expands liberr errors into
// key/value pairs (context, error, stack).
type Logger struct {
	// Real logger.
	Real logr.Logger
	// Logger name.
	name string
}

//
// Get named logger.
func WithName(name string) Logger {
	return Logger{
		Real: Factory(name),
		name: name,
	}
}

//
// Reset the logger.
// Rebuild the real logger with a generated name.
func (l *Logger) Reset() {
	l.Real = Factory(NameGenerator(l.name))
}

//
// Logger name.
func (l Logger) Name() string {
	return l.name
}

//
// Info message.
func (l Logger) Info(message string, kvpair ...interface{}) {
	l.Real.Info(message, kvpair...)
}

//
// Error.
// Nil errors are ignored.
func (l Logger) Error(err error, message string, kvpair ...interface{}) {
	if err == nil {
		return
	}
	le, wrapped := err.(*liberr.Error)
	if wrapped {
		kvpair = append(
			append([]interface{}{}, le.Context()...),
			kvpair...)
		kvpair = append(
			kvpair,
			Error,
			le.Error(),
			Stack,
			le.Stack())
		l.Real.Info(message, kvpair...)
		return
	}

	l.Real.Error(err, message, kvpair...)
}

//
// Trace error.
// The message is the error description when available.
func (l Logger) Trace(err error, kvpair ...interface{}) {
	if err == nil {
		return
	}
	message := err.Error()
	if le, wrapped := err.(*liberr.Error); wrapped {
		if d := le.Description(); len(d) > 0 {
			message = d
		}
	}

	l.Error(err, message, kvpair...)
}

//
// Get a logger with values.
func (l Logger) WithValues(kvpair ...interface{}) Logger {
	l.Real = l.Real.WithValues(kvpair...)
	return l
}

//
// Get a debug logger.
// Messages are discarded unless the level is enabled.
func (l Logger) V(level int) Logger {
	if Settings.atDebug(level) {
		builder := &ZapBuilder{}
		l.Real = builder.V(level, l.Real)
	} else {
		l.Real = &nop{}
	}

	return l
}

//
// Discards everything.
type nop struct{}

func (*nop) Enabled() bool { return false }
func (*nop) Info(string, ...interface{}) {}
func (*nop) Error(error, string, ...interface{}) {}
func (n *nop) V(int) logr.Logger { return n }
func (n *nop) WithValues(...interface{}) logr.Logger { return n }
func (n *nop) WithName(string) logr.Logger { return n }
