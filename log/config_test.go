package log

import (
	"slices"
	"testing"
	"time"
)

func TestConfig_Options(t *testing.T) {
	c := makeConfig(nil,
		WithLevel(LevelDebug),
		WithFormat(FormatJSON),
		WithCaller(true),
		WithPretty(false),
	)

	if c.level != LevelDebug {
		t.Errorf("level = %v, want %v", c.level, LevelDebug)
	}

	if c.format != FormatJSON {
		t.Errorf("format = %v, want %v", c.format, FormatJSON)
	}

	if !c.caller {
		t.Error("caller disabled, want enabled")
	}

	if c.pretty {
		t.Error("pretty enabled, want disabled")
	}

	if c.output == nil {
		t.Error("nil output, want io.Discard")
	}
}

func TestConfig_Defaults(t *testing.T) {
	c := makeConfig(nil)

	if c.level != DefaultLevel || c.format != DefaultFormat ||
		c.caller != DefaultCaller || c.pretty != DefaultPretty {
		t.Errorf("unexpected defaults: %+v", c)
	}
}

func TestConfig_CloneIsIndependent(t *testing.T) {
	base := makeConfig(nil, WithLevel(LevelInfo))
	derived := base.clone(WithLevel(LevelError))

	if base.level != LevelInfo {
		t.Errorf("base level = %v, want %v", base.level, LevelInfo)
	}

	if derived.level != LevelError {
		t.Errorf("derived level = %v, want %v", derived.level, LevelError)
	}

	if base.mutex == derived.mutex {
		t.Error("clone shares mutex with its base")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"debug", LevelDebug},
		{" info ", LevelInfo},
		{"WARN", LevelWarn},
		{"error", LevelError},
		{"bogus", DefaultLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"text", FormatText},
		{"yaml", DefaultFormat},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseFormat(tt.in); got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevels_RoundTrip(t *testing.T) {
	names := slices.Collect(Levels())

	want := []string{"trace", "debug", "info", "warn", "error"}
	if !slices.Equal(names, want) {
		t.Fatalf("Levels() = %v, want %v", names, want)
	}

	for _, name := range names {
		if got := ParseLevel(name).String(); got != name {
			t.Errorf("ParseLevel(%q).String() = %q", name, got)
		}
	}

	if got := Level(3).String(); got != "level(3)" {
		t.Errorf("Level(3).String() = %q", got)
	}
}

func TestFormats(t *testing.T) {
	names := slices.Collect(Formats())
	if !slices.Equal(names, []string{"text", "json"}) {
		t.Errorf("Formats() = %v", names)
	}
}

func TestConfig_formatTime(t *testing.T) {
	now := time.Date(2023, 10, 15, 14, 30, 45, 123456789, time.UTC)

	tests := []struct {
		name   string
		layout string
		want   string
	}{
		{"named", "RFC3339", "2023-10-15T14:30:45Z"},
		{"named nano", "rfc3339-nano", "2023-10-15T14:30:45.123456789Z"},
		{"kitchen", "Kitchen", "2:30PM"},
		{"custom", "2006/01/02", "2023/10/15"},
		{"none", "none", ""},
		{"empty", "", ""},
		{"whitespace", "  \t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := makeConfig(nil, WithTimeLayout(tt.layout))
			if got := c.formatTime(now); got != tt.want {
				t.Errorf("formatTime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func BenchmarkConfig_formatTime(b *testing.B) {
	c := makeConfig(nil, WithTimeLayout("RFC3339Nano"))
	now := time.Now()

	b.ResetTimer()

	for range b.N {
		_ = c.formatTime(now)
	}
}
