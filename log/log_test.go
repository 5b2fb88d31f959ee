package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestLogger_WithLevel_FiltersMessages(t *testing.T) {
	tests := []struct {
		name   string
		log    func(Logger, string, ...slog.Attr)
		floor  Level
		logged bool
	}{
		{"trace at trace", Logger.Trace, LevelTrace, true},
		{"trace at debug", Logger.Trace, LevelDebug, false},
		{"debug at debug", Logger.Debug, LevelDebug, true},
		{"debug at info", Logger.Debug, LevelInfo, false},
		{"info at warn", Logger.Info, LevelWarn, false},
		{"warn at warn", Logger.Warn, LevelWarn, true},
		{"error at debug", Logger.Error, LevelDebug, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			tt.log(Make(&buf, WithLevel(tt.floor)), "message")

			if got := buf.Len() > 0; got != tt.logged {
				t.Errorf("logged = %v, want %v", got, tt.logged)
			}
		})
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf,
		WithFormat(FormatJSON),
		WithPretty(false),
		WithLevel(LevelTrace),
	)
	logger.Trace("message", slog.String("key", "value"))

	var entry map[string]any

	err := json.Unmarshal(buf.Bytes(), &entry)
	if err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}

	if entry["msg"] != "message" || entry["key"] != "value" {
		t.Errorf("unexpected entry: %v", entry)
	}

	if entry["level"] != "TRACE" {
		t.Errorf("level = %v, want TRACE", entry["level"])
	}
}

func TestLogger_Pretty(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		want   []string
	}{
		{
			name:   "text",
			format: FormatText,
			want: []string{
				"level=WARN", "msg=message", "block=2",
				"ok=true", "scope.key=value",
			},
		},
		{
			name:   "json",
			format: FormatJSON,
			want: []string{
				"{\n", "  level: WARN", "  msg: message",
				"  block: 2", "  scope.key: value", "\n}\n",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			logger := Make(&buf,
				WithFormat(tt.format),
				WithPretty(true),
				WithTimeLayout("none"),
			).With(slog.Int("block", 2))

			logger.Warn("message",
				slog.Bool("ok", true),
				slog.Group("scope", slog.String("key", "value")),
			)

			out := buf.String()
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("output %q missing %q", out, s)
				}
			}

			if strings.Contains(out, "\x1b[") {
				t.Errorf("styled output written to a non-terminal: %q", out)
			}
		})
	}
}

func TestLogger_WithCaller(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithCaller(true), WithPretty(false), WithLevel(LevelInfo)).
		Info("message")

	if !strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("caller missing from %q", buf.String())
	}
}

func TestLogger_Wrap(t *testing.T) {
	var buf bytes.Buffer

	base := Make(&buf, WithLevel(LevelError))
	wrapped := base.Wrap(WithLevel(LevelDebug))

	if base.Level() != LevelError {
		t.Errorf("base level = %v, want error", base.Level())
	}

	if wrapped.Level() != LevelDebug {
		t.Errorf("wrapped level = %v, want debug", wrapped.Level())
	}

	if wrapped.Output() != &buf {
		t.Error("wrapped logger does not share output")
	}

	wrapped.Debug("message")

	if !strings.Contains(buf.String(), "message") {
		t.Error("wrapped logger dropped message")
	}
}

func TestLogger_ZeroValue(t *testing.T) {
	var l Logger

	l.Trace("message")
	l.ErrorContext(context.Background(), "message")

	if l.With(slog.String("k", "v")).Logger != nil {
		t.Error("With on zero Logger returned a live logger")
	}

	if l.Level() != DefaultLevel || l.Format() != DefaultFormat {
		t.Error("zero Logger does not report defaults")
	}

	if l.Wrap().Logger == nil {
		t.Error("Wrap on zero Logger returned a nil logger")
	}
}

func TestLogger_ConcurrentCalls(t *testing.T) {
	var buf syncBuffer

	logger := Make(&buf, WithPretty(false), WithLevel(LevelInfo))

	var wg sync.WaitGroup

	for i := range 100 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			logger.With(slog.Int("id", i)).Info("message")
		}()
	}

	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 100 {
		t.Errorf("got %d lines, want 100", len(lines))
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func BenchmarkLogger_Info(b *testing.B) {
	var buf bytes.Buffer

	logger := Make(&buf, WithLevel(LevelInfo)).
		With(slog.String("component", "bench"))

	b.ResetTimer()

	for i := range b.N {
		logger.Info("message", slog.Int("iteration", i))
	}
}
