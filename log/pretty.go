package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles used for each kind of value. Styles render as
// plain text when the output does not support color.
type palette struct {
	key, text, number, yes, no, duration, stamp, null lipgloss.Style
	trace, debug, info, warn, fail                    lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	color := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return palette{
		key:      color("8"),
		text:     color("6"),
		number:   color("3"),
		yes:      color("2"),
		no:       color("1"),
		duration: color("5"),
		stamp:    color("4"),
		null:     color("8"),
		trace:    color("8"),
		debug:    color("4"),
		info:     color("2"),
		warn:     color("3").Bold(true),
		fail:     color("1").Bold(true),
	}
}

func (p palette) level(level slog.Level) lipgloss.Style {
	switch {
	case level >= slog.LevelError:
		return p.fail
	case level >= slog.LevelWarn:
		return p.warn
	case level >= slog.LevelInfo:
		return p.info
	case level >= slog.LevelDebug:
		return p.debug
	default:
		return p.trace
	}
}

// prettyHandler writes styled records for a terminal, either as key=value
// text or as indented JSON-like objects.
type prettyHandler struct {
	opts       slog.HandlerOptions
	mu         *sync.Mutex
	w          io.Writer
	pal        palette
	formatTime FormatTime
	json       bool
	attrs      []slog.Attr // resolved, keys already group-qualified
	prefix     string
}

func newPrettyTextHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	formatTime FormatTime,
) *prettyHandler {
	return newPrettyHandler(w, opts, formatTime, false)
}

func newPrettyJSONHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	formatTime FormatTime,
) *prettyHandler {
	return newPrettyHandler(w, opts, formatTime, true)
}

func newPrettyHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	formatTime FormatTime,
	json bool,
) *prettyHandler {
	if formatTime == nil {
		formatTime = makeFormatTimeFunc(DefaultTimeLayout)
	}

	return &prettyHandler{
		opts:       *opts,
		mu:         &sync.Mutex{},
		w:          w,
		pal:        newPalette(w),
		formatTime: formatTime,
		json:       json,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	floor := slog.LevelInfo
	if h.opts.Level != nil {
		floor = h.opts.Level.Level()
	}

	return level >= floor
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]field, 0, 4+len(h.attrs)+r.NumAttrs())

	if !r.Time.IsZero() {
		if stamp := h.formatTime(r.Time); stamp != "" {
			fields = append(fields, field{slog.TimeKey, h.pal.stamp.Render(stamp)})
		}
	}

	fields = append(fields, field{
		slog.LevelKey,
		h.pal.level(r.Level).Render(strings.ToUpper(Level(r.Level).String())),
	})

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			fields = append(fields, field{
				slog.SourceKey,
				h.pal.text.Render(src.File + ":" + strconv.Itoa(src.Line)),
			})
		}
	}

	fields = append(fields, field{slog.MessageKey, h.pal.text.Render(r.Message)})

	for _, a := range h.attrs {
		fields = h.appendAttr(fields, "", a)
	}

	r.Attrs(func(a slog.Attr) bool {
		fields = h.appendAttr(fields, h.prefix, a)

		return true
	})

	buf := new(bytes.Buffer)

	if h.json {
		h.writeObject(buf, fields)
	} else {
		h.writeLine(buf, fields)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	c := *h
	c.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], qualify(h.prefix, attrs)...)

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

// qualify prefixes each attribute key with the open groups.
func qualify(prefix string, attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, len(attrs))

	for i, a := range attrs {
		out[i] = slog.Attr{Key: prefix + a.Key, Value: a.Value}
	}

	return out
}

type field struct {
	key, value string
}

func (h *prettyHandler) appendAttr(
	fields []field,
	prefix string,
	a slog.Attr,
) []field {
	a.Value = a.Value.Resolve()

	if a.Equal(slog.Attr{}) {
		return fields
	}

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if a.Key != "" {
			prefix += a.Key + "."
		}

		for _, g := range group {
			fields = h.appendAttr(fields, prefix, g)
		}

		return fields
	}

	return append(fields, field{prefix + a.Key, h.value(a.Value)})
}

func (h *prettyHandler) value(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return h.pal.text.Render(v.String())

	case slog.KindInt64:
		return h.pal.number.Render(strconv.FormatInt(v.Int64(), 10))

	case slog.KindUint64:
		return h.pal.number.Render(strconv.FormatUint(v.Uint64(), 10))

	case slog.KindFloat64:
		return h.pal.number.Render(
			strconv.FormatFloat(v.Float64(), 'g', -1, 64),
		)

	case slog.KindBool:
		if v.Bool() {
			return h.pal.yes.Render("true")
		}

		return h.pal.no.Render("false")

	case slog.KindDuration:
		return h.pal.duration.Render(v.Duration().String())

	case slog.KindTime:
		return h.pal.stamp.Render(v.Time().Format(time.RFC3339))

	case slog.KindAny:
		switch val := v.Any().(type) {
		case nil:
			return h.pal.null.Render("null")
		case slog.Level:
			return h.pal.level(val).Render(Level(val).String())
		case error:
			return h.pal.no.Render(val.Error())
		default:
			return h.pal.text.Render(fmt.Sprint(val))
		}

	default:
		return h.pal.text.Render(v.String())
	}
}

func (h *prettyHandler) writeLine(buf *bytes.Buffer, fields []field) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(h.pal.key.Render(f.key))
		buf.WriteByte('=')
		buf.WriteString(f.value)
	}

	buf.WriteByte('\n')
}

func (h *prettyHandler) writeObject(buf *bytes.Buffer, fields []field) {
	buf.WriteString("{\n")

	for i, f := range fields {
		if i > 0 {
			buf.WriteString(",\n")
		}

		buf.WriteString("  ")
		buf.WriteString(h.pal.key.Render(f.key))
		buf.WriteString(": ")
		buf.WriteString(f.value)
	}

	buf.WriteString("\n}\n")
}
