package cmd

import (
	"errors"
	"log/slog"
)

// Error is a command failure. Sentinels are declared once with [NewError]
// and specialized per call site with [Error.Wrap] and [Error.With].
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
}

// NewError returns an Error with the given message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

func (e *Error) Error() string {
	switch {
	case e.err == nil:
		return e.msg
	case e.msg == "":
		return e.err.Error()
	default:
		return e.msg + ": " + e.err.Error()
	}
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target was derived from the same sentinel as e.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t.msg == "" {
		return false
	}

	return t.msg == e.msg
}

// LogValue implements [slog.LogValuer].
func (e *Error) LogValue() slog.Value {
	var attrs []slog.Attr

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.Any("cause", e.err))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap returns a copy of e wrapping err.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, attrs: e.attrs}
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: append(e.attrs[:len(e.attrs):len(e.attrs)], attrs...),
	}
}

var (
	ErrYAMLMarshal = NewError("marshal YAML")
	ErrWriteConfig = NewError("write configuration file")
	ErrWriteFile   = NewError("write file")
	ErrFileExists  = NewError("file exists (use --force to overwrite)")
	ErrGlob        = NewError("invalid path pattern")
	ErrWatch       = NewError("watch documents")
	ErrWatchClosed = NewError("watcher closed")
)
