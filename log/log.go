package log

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"
)

// Logger wraps a [slog.Logger] with level methods that take typed attrs
// and a configuration that can be derived with [Logger.Wrap].
//
// The zero Logger discards everything.
type Logger struct {
	*slog.Logger
	config
}

// Make returns a [Logger] writing to w, configured by [WithDefaults] and
// then opts.
func Make(w io.Writer, opts ...Option) Logger {
	return newLogger(makeConfig(w, opts...))
}

func newLogger(cfg config) Logger {
	return Logger{config: cfg, Logger: slog.New(cfg.handler())}
}

// Wrap returns a new [Logger] using the current configuration as its base,
// with opts applied on top. Attributes added with [Logger.With] are not
// carried over.
func (l Logger) Wrap(opts ...Option) Logger {
	if l.mutex == nil {
		return Make(io.Discard, opts...)
	}

	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return newLogger(l.clone(opts...))
}

// With returns a new [Logger] that includes attrs in each log message.
func (l Logger) With(attrs ...slog.Attr) Logger {
	if l.Logger == nil {
		return l
	}

	l.mutex.RLock()
	cfg := l.clone()
	l.mutex.RUnlock()

	return Logger{
		config: cfg,
		Logger: slog.New(l.Handler().WithAttrs(attrs)),
	}
}

// read calls fn with the configuration locked for reading.
func (l Logger) read(fn func(config)) {
	if l.mutex != nil {
		l.mutex.RLock()
		defer l.mutex.RUnlock()
	}

	fn(l.config)
}

// Level reports the minimum level that is logged.
func (l Logger) Level() Level {
	if l.Logger == nil {
		return DefaultLevel
	}

	var level Level

	l.read(func(c config) { level = c.level })

	return level
}

// Format reports how records are encoded.
func (l Logger) Format() Format {
	if l.Logger == nil {
		return DefaultFormat
	}

	var format Format

	l.read(func(c config) { format = c.format })

	return format
}

// Output returns the writer receiving log messages.
func (l Logger) Output() io.Writer {
	if l.Logger == nil {
		return io.Discard
	}

	var w io.Writer

	l.read(func(c config) { w = c.output })

	return w
}

// The methods below log msg with attrs at the level they name. Those without
// a context argument use [DefaultContextProvider].

func (l Logger) TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelTrace, msg, attrs)
}

func (l Logger) DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelDebug, msg, attrs)
}

func (l Logger) InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelInfo, msg, attrs)
}

func (l Logger) WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelWarn, msg, attrs)
}

func (l Logger) ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelError, msg, attrs)
}

func (l Logger) Trace(msg string, attrs ...slog.Attr) {
	l.emit(DefaultContextProvider(), LevelTrace, msg, attrs)
}

func (l Logger) Debug(msg string, attrs ...slog.Attr) {
	l.emit(DefaultContextProvider(), LevelDebug, msg, attrs)
}

func (l Logger) Info(msg string, attrs ...slog.Attr) {
	l.emit(DefaultContextProvider(), LevelInfo, msg, attrs)
}

func (l Logger) Warn(msg string, attrs ...slog.Attr) {
	l.emit(DefaultContextProvider(), LevelWarn, msg, attrs)
}

func (l Logger) Error(msg string, attrs ...slog.Attr) {
	l.emit(DefaultContextProvider(), LevelError, msg, attrs)
}

// callerSkip drops runtime.Callers, emit, and the exported method from the
// reported source location.
const callerSkip = 3

func (l Logger) emit(ctx context.Context, level Level, msg string, attrs []slog.Attr) {
	if l.Logger == nil {
		return
	}

	if ctx == nil {
		ctx = DefaultContextProvider()
	}

	if !l.Enabled(ctx, slog.Level(level)) {
		return
	}

	var pc [1]uintptr

	runtime.Callers(callerSkip, pc[:])

	rec := slog.NewRecord(time.Now(), slog.Level(level), msg, pc[0])
	rec.AddAttrs(attrs...)

	_ = l.Handler().Handle(ctx, rec)
}
