package lang

import (
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

var (
	ErrUnmatchedBrace     = NewError("unmatched closing brace")
	ErrUnclosedBlock      = NewError("block is never closed")
	ErrUnsupportedFor     = NewError("three-clause for loops are not supported (use for (x of a..b))")
	ErrMalformedFunction  = NewError("malformed function declaration")
	ErrMalformedStatement = NewError("malformed statement")
	ErrElseWithoutIf      = NewError("else without matching if")
	ErrMisplacedFlow      = NewError("control statement outside of its construct")
	ErrExprCompile        = NewError("expression compilation failed")
	ErrExprEvaluate       = NewError("expression evaluation failed")
	ErrReservedName       = NewError("cannot rebind reserved name")
	ErrInvalidTarget      = NewError("invalid assignment target")
	ErrMaxDepthExceeded   = NewError("maximum call depth exceeded")
	ErrNotIterable        = NewError("value is not iterable")
	ErrNotCallable        = NewError("function called outside of a running block")
	ErrFileClosed         = NewError("file is closed")
	ErrFileMode           = NewError("invalid file mode")
	ErrReadInput          = NewError("failed to read input")
	ErrPanic              = NewError("panic")
)

// Error is an interpreter failure that carries slog attributes describing
// where it happened. Sentinels are compared by message, so errors.Is matches
// any error derived from one with [Error.Wrap] or [Error.With].
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
}

// NewError returns a sentinel with the given message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError returns err as an *Error, wrapping it in an anonymous one if it
// is not one already.
func WrapError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{err: err}
}

func (e *Error) Error() string {
	if e.err == nil {
		return e.msg
	}

	if e.msg == "" {
		return e.err.Error()
	}

	return e.msg + ": " + e.err.Error()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an Error derived from the same sentinel.
// Wrap and With copy the message, so every derived error matches its origin.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t.msg == "" {
		return false
	}

	return e.msg == t.msg
}

// LogValue groups the message, the cause, and the attached attrs.
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

// Wrap returns a copy of e caused by err.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.err = err

	return &c
}

// With returns a copy of e with attrs appended. e itself is unchanged.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := *e
	c.attrs = slices.Concat(e.attrs, attrs)

	return &c
}

// SyntaxError reports a rewrite-stage failure at a position in a block.
type SyntaxError struct {
	Err    error
	Source string // block body
	Line   int    // 1-based line within the block
	Column int    // 1-based column, or 0 if unknown
}

func newSyntaxError(err error, src string, line, col int) *SyntaxError {
	return &SyntaxError{Err: err, Source: src, Line: line, Column: col}
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	var buf strings.Builder

	buf.WriteString(e.Err.Error())
	buf.WriteString(" (line ")
	buf.WriteString(strconv.Itoa(e.Line))

	if e.Column > 0 {
		buf.WriteString(", column ")
		buf.WriteString(strconv.Itoa(e.Column))
	}

	buf.WriteString(")")

	return buf.String()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *SyntaxError) Unwrap() error { return e.Err }

// Snippet returns the offending source line with a marker under the column.
func (e *SyntaxError) Snippet() string {
	lines := strings.Split(e.Source, "\n")
	if e.Line <= 0 || e.Line > len(lines) {
		return ""
	}

	var src strings.Builder

	num := strconv.Itoa(e.Line)

	src.WriteString("  ")
	src.WriteString(num)
	src.WriteString(" | ")
	src.WriteString(lines[e.Line-1])
	src.WriteRune('\n')

	if e.Column > 0 {
		// 2 leading spaces + " | "
		src.WriteString(strings.Repeat(" ", len(num)+5+e.Column-1))
		src.WriteString("^\n")
	}

	return src.String()
}

// LogValue implements slog.LogValuer.
func (e *SyntaxError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("error", e.Err),
		slog.Int("line", e.Line),
		slog.Int("column", e.Column),
	)
}

// Frame is one entry of a runtime traceback.
type Frame struct {
	Func   string // empty for block level
	Block  int    // 1-based block number within the document
	Line   int    // 1-based line within the block
	Source string
}

func (f Frame) String() string {
	var buf strings.Builder

	if f.Func == "" {
		buf.WriteString("block ")
		buf.WriteString(strconv.Itoa(f.Block))
	} else {
		buf.WriteString("in ")
		buf.WriteString(f.Func)
	}

	buf.WriteString(", line ")
	buf.WriteString(strconv.Itoa(f.Line))

	if f.Source != "" {
		buf.WriteString(": ")
		buf.WriteString(f.Source)
	}

	return buf.String()
}

// RuntimeError is an evaluation failure with the call stack active when it
// was raised, outermost frame first.
type RuntimeError struct {
	Err   error
	Trace []Frame
	Stack []byte // Go stack, set only for recovered panics
}

// Error implements the error interface.
func (e *RuntimeError) Error() string { return e.Err.Error() }

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RuntimeError) Unwrap() error { return e.Err }

// LogValue implements slog.LogValuer.
func (e *RuntimeError) LogValue() slog.Value {
	attrs := []slog.Attr{slog.Any("error", e.Err)}

	if n := len(e.Trace); n > 0 {
		attrs = append(attrs,
			slog.Int("line", e.Trace[n-1].Line),
			slog.Int("depth", n),
		)
	}

	return slog.GroupValue(attrs...)
}

// FormatError renders err as the text returned in place of a block's result.
func FormatError(err error) string {
	var buf strings.Builder

	buf.WriteString("Error: ")
	buf.WriteString(err.Error())

	var (
		se *SyntaxError
		re *RuntimeError
	)

	switch {
	case errors.As(err, &re):
		buf.WriteString("\nTraceback (most recent call last):")
		writeTrace(&buf, re.Trace)

	case errors.As(err, &se):
		if snip := se.Snippet(); snip != "" {
			buf.WriteString("\n")
			buf.WriteString(strings.TrimRight(snip, "\n"))
		}
	}

	return buf.String()
}

// repeatedFrames is how many identical consecutive frames are listed before
// the rest are summarized on one line.
const repeatedFrames = 3

func writeTrace(buf *strings.Builder, trace []Frame) {
	for i := 0; i < len(trace); {
		run := 1
		for i+run < len(trace) && trace[i+run] == trace[i] {
			run++
		}

		line := trace[i].String()

		for range min(run, repeatedFrames) {
			buf.WriteString("\n  ")
			buf.WriteString(line)
		}

		if n := run - repeatedFrames; n > 0 {
			buf.WriteString("\n  [Previous line repeated ")
			buf.WriteString(strconv.Itoa(n))
			buf.WriteString(" more times]")
		}

		i += run
	}
}
