// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// Loggers are built with functional options applied at creation time:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithTimeLayout("RFC3339Nano"),
//		log.WithCaller(true))
//
// Attributes are always typed [slog.Attr] values:
//
//	logger = logger.With(slog.Int("block", 2))
//	logger.Warn("block failed", slog.Any("error", err))
//
// # Levels
//
// Five levels are supported: [LevelTrace], [LevelDebug], [LevelInfo],
// [LevelWarn], and [LevelError]. Trace sits below slog's debug level and is
// rendered as TRACE.
//
// # Output
//
// Records are written as [FormatText] or [FormatJSON]. With [WithPretty]
// the output is styled for a terminal; the styling degrades to plain text
// when the writer is not one.
//
// # Package-level logger
//
// The package-level functions log through a default logger writing to
// standard error. [Config] and [SetDefault] replace it. Functions without a
// context argument use [DefaultContextProvider].
package log
