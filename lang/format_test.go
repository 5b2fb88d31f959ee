package lang

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "nil", value: nil, want: "null"},
		{name: "string", value: "plain", want: "plain"},
		{name: "int", value: 42, want: "42"},
		{name: "integral float", value: 3.0, want: "3"},
		{name: "float", value: 2.5, want: "2.5"},
		{name: "nan", value: math.NaN(), want: "NaN"},
		{name: "infinity", value: math.Inf(-1), want: "-Infinity"},
		{name: "bool", value: true, want: "true"},
		{
			name:  "array",
			value: []any{"a", 1, 2.5, true, nil},
			want:  `["a", 1, 2.5, true, null]`,
		},
		{name: "typed slice", value: []int{1, 2}, want: "[1, 2]"},
		{name: "empty array", value: []any{}, want: "[]"},
		{
			name:  "object",
			value: map[string]any{"b": "x", "a": []any{1}},
			want:  `{a: [1], b: "x"}`,
		},
		{name: "empty object", value: map[string]any{}, want: "{}"},
		{
			name:  "function",
			value: &Function{Name: "add", Params: []string{"a", "b"}},
			want:  "[function add(a, b)]",
		},
		{name: "host function", value: func() {}, want: "[function]"},
		{name: "error", value: errors.New("boom"), want: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.value); got != tt.want {
				t.Errorf("want %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{0, false},
		{7, true},
		{0.0, false},
		{math.NaN(), false},
		{"", false},
		{"x", true},
		{[]any{}, true},
		{map[string]any{}, true},
	}

	for _, tt := range tests {
		if got := truthy(tt.value); got != tt.want {
			t.Errorf("truthy(%#v): want %v, got %v", tt.value, tt.want, got)
		}
	}
}

func TestIterate(t *testing.T) {
	got, err := iterate("héy", false)
	if err != nil || FormatValue(got) != `["h", "é", "y"]` {
		t.Errorf("string values: got %v (%v)", got, err)
	}

	got, err = iterate([]any{"a", "b"}, true)
	if err != nil || FormatValue(got) != "[0, 1]" {
		t.Errorf("array keys: got %v (%v)", got, err)
	}

	got, err = iterate(3, false)
	if err != nil || FormatValue(got) != "[0, 1, 2]" {
		t.Errorf("count: got %v (%v)", got, err)
	}

	if _, err := iterate(true, false); !errors.Is(err, ErrNotIterable) {
		t.Errorf("expected ErrNotIterable, got %v", err)
	}
}

func TestFormatError(t *testing.T) {
	err := &RuntimeError{
		Err: ErrExprEvaluate.Wrap(errors.New("division by zero")),
		Trace: []Frame{
			{Block: 2, Line: 5, Source: "report()"},
			{Func: "report", Block: 2, Line: 2, Source: "return 1 / n"},
		},
	}

	want := "Error: expression evaluation failed: division by zero\n" +
		"Traceback (most recent call last):\n" +
		"  block 2, line 5: report()\n" +
		"  in report, line 2: return 1 / n"

	if got := FormatError(err); got != want {
		t.Errorf("format mismatch:\nwant: %q\ngot:  %q", want, got)
	}

	loop := Frame{Func: "f", Block: 1, Line: 2, Source: "return f(n + 1)"}
	err = &RuntimeError{
		Err: ErrMaxDepthExceeded,
		Trace: []Frame{
			{Block: 1, Line: 4, Source: "f(0)"},
			loop, loop, loop, loop, loop, loop,
			{Func: "g", Block: 1, Line: 7, Source: "g()"},
			{Func: "g", Block: 1, Line: 7, Source: "g()"},
		},
	}

	want = "Error: maximum call depth exceeded\n" +
		"Traceback (most recent call last):\n" +
		"  block 1, line 4: f(0)\n" +
		"  in f, line 2: return f(n + 1)\n" +
		"  in f, line 2: return f(n + 1)\n" +
		"  in f, line 2: return f(n + 1)\n" +
		"  [Previous line repeated 3 more times]\n" +
		"  in g, line 7: g()\n" +
		"  in g, line 7: g()"

	if got := FormatError(err); got != want {
		t.Errorf("format mismatch:\nwant: %q\ngot:  %q", want, got)
	}

	se := newSyntaxError(ErrUnmatchedBrace, "a()\n  }", 2, 3)

	want = "Error: unmatched closing brace (line 2, column 3)\n" +
		"  2 |   }\n" +
		strings.Repeat(" ", 8) + "^"

	if got := FormatError(se); got != want {
		t.Errorf("format mismatch:\nwant: %q\ngot:  %q", want, got)
	}
}
