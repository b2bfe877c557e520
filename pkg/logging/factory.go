package logging

import (
	"os"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//
// Builder.
type Builder interface {
	New() logr.Logger
	V(int, logr.Logger) logr.Logger
}

//
// Opened sinks keyed by Settings.Output.
var sinks = struct {
	sync.Mutex
	opened map[string]zapcore.WriteSyncer
}{
	opened: map[string]zapcore.WriteSyncer{},
}

//
// Zap builder factory.
type ZapBuilder struct {
	// Destination.
	// Settings.Output is used when not set.
	Sink zapcore.WriteSyncer
}

//
// Build new logger.
// The zap level is enabled through Settings.Level so that
// V(n) entries reach the sink only when debugging at n.
func (b *ZapBuilder) New() (l logr.Logger) {
	sinker := b.sinker()
	encoder, options := b.encoder()
	level := zap.NewAtomicLevelAt(zapcore.Level(-Settings.Level))
	options = append(
		options,
		zap.AddCallerSkip(1),
		zap.ErrorOutput(sinker))
	log := zap.New(
		zapcore.NewCore(
			encoder,
			sinker,
			level))
	log = log.WithOptions(options...)
	l = zapr.NewLogger(log)

	return
}

//
// Debug logger.
func (b *ZapBuilder) V(level int, in logr.Logger) (l logr.Logger) {
	if Settings.atDebug(level) {
		l = in.V(level)
	} else {
		l = in.V(0)
	}

	return
}

//
// Encoder and options.
// Development is console encoded with stack traces on errors.
// Otherwise JSON, sampled.
func (b *ZapBuilder) encoder() (encoder zapcore.Encoder, options []zap.Option) {
	if Settings.Development {
		cfg := zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(cfg)
		options = append(
			options,
			zap.Development(),
			zap.AddStacktrace(zap.ErrorLevel))
		return
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder = zapcore.NewJSONEncoder(cfg)
	options = append(
		options,
		zap.AddStacktrace(zap.DPanicLevel),
		zap.WrapCore(
			func(core zapcore.Core) zapcore.Core {
				return zapcore.NewSampler(
					core,
					time.Second,
					100,
					100)
			}))

	return
}

//
// Destination.
// Settings.Output is stderr, stdout or a file path; each is
// opened once. Stderr is used when the file cannot be opened.
func (b *ZapBuilder) sinker() zapcore.WriteSyncer {
	if b.Sink != nil {
		return b.Sink
	}
	output := Settings.Output
	if output == "" {
		output = "stderr"
	}
	sinks.Lock()
	defer sinks.Unlock()
	if sink, found := sinks.opened[output]; found {
		return sink
	}
	sink, _, err := zap.Open(output)
	if err != nil {
		return zapcore.Lock(os.Stderr)
	}
	sinks.opened[output] = sink

	return sink
}
