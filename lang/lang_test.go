package lang

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// fakeRunner answers exec calls from a table.
type fakeRunner map[string]CommandResult

func (f fakeRunner) RunCommand(_ context.Context, command string) (CommandResult, error) {
	res, ok := f[command]
	if !ok {
		return CommandResult{}, errors.New("unknown command " + command)
	}

	return res, nil
}

func newTestInterpreter(opts ...Option) *Interpreter {
	base := []Option{
		WithFs(afero.NewMemMapFs()),
		WithStdin(strings.NewReader("")),
		WithStdout(io.Discard),
		WithCommandRunner(fakeRunner{}),
	}

	return New(append(base, opts...)...)
}

// runBlock runs code and returns its output without the rewritten listing.
func runBlock(t *testing.T, in *Interpreter, code string) string {
	t.Helper()

	out, err := in.RunBlock(t.Context(), code)
	if err != nil {
		t.Fatalf("block failed: %v\n%s", err, out)
	}

	prog, err := Parse(code)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	prefix := DebugMarker
	if listing := prog.Rewrite.String(); listing != "" {
		prefix += "\n" + listing
	}

	if !strings.HasPrefix(out, prefix) {
		t.Fatalf("output does not begin with the rewritten listing:\n%s", out)
	}

	return strings.TrimPrefix(strings.TrimPrefix(out, prefix), "\n")
}

func TestExecuteBlock_Print(t *testing.T) {
	in := newTestInterpreter()

	got := in.ExecuteBlock(t.Context(), `print("hi")`)
	want := DebugMarker + "\n" + `print("hi")` + "\nhi"

	if got != want {
		t.Errorf("result mismatch:\nwant: %q\ngot:  %q", want, got)
	}
}

func TestExecuteBlock_Comment(t *testing.T) {
	in := newTestInterpreter()

	got := in.ExecuteBlock(t.Context(), "// hello")
	if want := DebugMarker + "\n# hello"; got != want {
		t.Errorf("result mismatch:\nwant: %q\ngot:  %q", want, got)
	}

	if in.Namespace().Len() != 0 {
		t.Errorf("comment bound names: %v", in.Namespace().Names())
	}
}

func TestExecute_NoBlocks(t *testing.T) {
	in := newTestInterpreter()

	if got := in.Execute(t.Context(), "# Just prose\n"); got != NoBlocksMessage {
		t.Errorf("want %q, got %q", NoBlocksMessage, got)
	}
}

func TestExecute_NamespacePersists(t *testing.T) {
	in := newTestInterpreter()

	doc := "```plainmark\nlet x = 41\n```\n\n```plainmark\nprint(x + 1)\n```\n"

	got := in.Execute(t.Context(), doc)
	if !strings.HasSuffix(got, "\n42") {
		t.Errorf("expected second block to print 42, got:\n%s", got)
	}

	if strings.Count(got, DebugMarker) != 2 {
		t.Errorf("expected one debug dump per block, got:\n%s", got)
	}

	// Bindings survive into later calls on the same interpreter.
	got = in.ExecuteBlock(t.Context(), "print(x * 2)")
	if !strings.HasSuffix(got, "\n82") {
		t.Errorf("expected 82, got:\n%s", got)
	}

	if v, ok := in.Namespace().Get("x"); !ok || v != 41 {
		t.Errorf("namespace x: want 41, got %v (%T)", v, v)
	}
}

func TestExecute_FailureIsLocal(t *testing.T) {
	in := newTestInterpreter()

	doc := "```plainmark\nlet y = 1\nprint(\"before\")\nmissing()\n```\n" +
		"```plainmark\nprint(\"after\")\n```\n"

	got := in.Execute(t.Context(), doc)

	for _, want := range []string{
		"before\nError: ",
		"Traceback (most recent call last):",
		"block 1, line 3: missing()",
		"\nafter",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("result missing %q:\n%s", want, got)
		}
	}

	if _, ok := in.Namespace().Get("y"); ok {
		t.Error("failed block should not write back its bindings")
	}
}

func TestExecuteBlock_FunctionTrace(t *testing.T) {
	in := newTestInterpreter()

	got := in.ExecuteBlock(t.Context(), "function boom() {\n"+
		"  return missing + 1\n"+
		"}\n"+
		"boom()")

	for _, want := range []string{
		"block 1, line 4: boom()",
		"in boom, line 2: return missing + 1",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("traceback missing %q:\n%s", want, got)
		}
	}
}

func TestExecuteBlock_SyntaxError(t *testing.T) {
	in := newTestInterpreter()

	got := in.ExecuteBlock(t.Context(), "if (x) {\n  print(1)")
	if !strings.HasPrefix(got, "Error: "+ErrUnclosedBlock.Error()) {
		t.Errorf("unexpected result:\n%s", got)
	}

	if strings.Contains(got, DebugMarker) {
		t.Errorf("a block that fails to rewrite has no debug dump:\n%s", got)
	}

	got = in.ExecuteBlock(t.Context(), "for (let i = 0; i < 3; i++) {\n}")
	if !strings.Contains(got, "for (x of a..b)") {
		t.Errorf("expected a hint for three-clause loops, got:\n%s", got)
	}
}

func TestRunBlock_Statements(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{
			name: "if else",
			code: "let x = 2\nif (x > 3) {\n  print(\"big\")\n} else {\n  print(\"small\")\n}",
			want: "small",
		},
		{
			name: "while break",
			code: "let i = 0\nwhile (true) {\n  i++\n  if (i >= 3) break\n}\nprint(i)",
			want: "3",
		},
		{
			name: "continue",
			code: "for (n of 1..5) {\n  if (n % 2 == 0) continue\n  print(n)\n}",
			want: "1\n3\n5",
		},
		{
			name: "for of array",
			code: "let total = 0\nfor (const v of [1, 2, 3]) {\n  total += v\n}\nprint(total)",
			want: "6",
		},
		{
			name: "for in object",
			code: "let o = {b: 2, a: 1}\nfor (k in o) print(k, o[k])",
			want: "a 1\nb 2",
		},
		{
			name: "recursion",
			code: "function fact(n) {\n  if (n <= 1) {\n    return 1\n  }\n  return n * fact(n - 1)\n}\nprint(fact(5))",
			want: "120",
		},
		{
			name: "arrow function",
			code: "const sq = (n) => n * n\nprint(sq(7))",
			want: "49",
		},
		{
			name: "missing arguments are nil",
			code: "function f(a, b) {\n  return b == nil\n}\nprint(f(1))",
			want: "true",
		},
		{
			name: "template literal",
			code: "let name = \"Bob\"\nlet items = [1, \"two\"]\nprint(`Hello ${name}: ${items}`)",
			want: "Hello Bob: [1, \"two\"]",
		},
		{
			name: "member assignment",
			code: "let o = {a: 1}\no.b = 2\no.a += 10\nprint(o)",
			want: "{a: 11, b: 2}",
		},
		{
			name: "index assignment",
			code: "let arr = [1, 2]\narr[2] = 3\narr[0] = 0\narr[-1] *= 2\nprint(arr)",
			want: "[0, 2, 6]",
		},
		{
			name: "logical assignment",
			code: "let a = nil\na ??= 5\nlet b = 0\nb ||= 7\nprint(a, b)",
			want: "5 7",
		},
		{
			name: "methods",
			code: "print(\"abc\".toUpperCase(), \"a,b\".split(\",\"), [1, 2, 3].length)",
			want: "ABC [\"a\", \"b\"] 3",
		},
		{
			name: "console",
			code: "console.log(\"one\")\nconsole.warn(\"two\")\nerror(\"three\")",
			want: "one\nWarning: two\nError: three",
		},
		{
			name: "json",
			code: "print(json.stringify({b: 1, a: [true, nil]}))\nlet v = json.parse('{\"n\": 2, \"f\": 1.5}')\nprint(v.n + 1, v.f)",
			want: "{\"a\":[true,null],\"b\":1}\n3 1.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newTestInterpreter()

			if got := runBlock(t, in, tt.code); got != tt.want {
				t.Errorf("output mismatch:\nwant: %q\ngot:  %q", tt.want, got)
			}
		})
	}
}

func TestRunBlock_FunctionsPersist(t *testing.T) {
	in := newTestInterpreter()

	runBlock(t, in, "function greet(who) {\n  return \"hi \" + who\n}")

	if got := runBlock(t, in, "print(greet(\"there\"))"); got != "hi there" {
		t.Errorf("want %q, got %q", "hi there", got)
	}
}

func TestRunBlock_FunctionLocals(t *testing.T) {
	in := newTestInterpreter()

	got := runBlock(t, in, "let count = 0\n"+
		"function bump(step) {\n"+
		"  let tmp = step * 2\n"+
		"  count += tmp\n"+
		"}\n"+
		"bump(1)\n"+
		"bump(2)\n"+
		"print(count)")
	if got != "6" {
		t.Errorf("want 6, got %q", got)
	}

	if _, ok := in.Namespace().Get("tmp"); ok {
		t.Error("function locals leaked into the namespace")
	}
}

func TestRunBlock_ReservedName(t *testing.T) {
	in := newTestInterpreter()

	_, err := in.RunBlock(t.Context(), "let print = 1")
	if !errors.Is(err, ErrReservedName) {
		t.Errorf("expected ErrReservedName, got %v", err)
	}
}

func TestRunBlock_MaxDepth(t *testing.T) {
	in := newTestInterpreter(WithMaxCallDepth(10))

	out, err := in.RunBlock(t.Context(), "function f(n) { return f(n + 1) }\nf(0)")
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Fatalf("expected ErrMaxDepthExceeded, got %v\n%s", err, out)
	}

	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RuntimeError, got %T", err)
	}

	// block frame plus ten calls
	if len(re.Trace) != 11 {
		t.Errorf("expected 11 frames, got %d", len(re.Trace))
	}
}

func TestExecuteBlock_RecursionTrace(t *testing.T) {
	in := newTestInterpreter(WithMaxCallDepth(50))

	got := in.ExecuteBlock(t.Context(), "function f(n) {\n  return f(n + 1)\n}\nf(0)")

	if !strings.Contains(got, "[Previous line repeated 47 more times]") {
		t.Errorf("repeated frames not collapsed:\n%s", got)
	}

	if n := strings.Count(got, "in f, line 2:"); n != 3 {
		t.Errorf("expected 3 listed recursive frames, got %d:\n%s", n, got)
	}
}

func TestRunBlock_Vars(t *testing.T) {
	in := newTestInterpreter()

	// Writes through vars are immediate, even when the block fails.
	_, err := in.RunBlock(t.Context(), "vars.z = 5\nmissing()")
	if err == nil {
		t.Fatal("expected failure")
	}

	if got := runBlock(t, in, "print(z, vars.z)"); got != "5 5" {
		t.Errorf("want %q, got %q", "5 5", got)
	}
}

func TestRunBlock_Input(t *testing.T) {
	var stdout bytes.Buffer

	in := newTestInterpreter(
		WithStdin(strings.NewReader("Ada\nLovelace\n")),
		WithStdout(&stdout),
	)

	got := runBlock(t, in, "let first = input(\"first? \")\nlet last = input()\nprint(first + \" \" + last)")
	if got != "Ada Lovelace" {
		t.Errorf("want %q, got %q", "Ada Lovelace", got)
	}

	if stdout.String() != "first? " {
		t.Errorf("prompt: want %q, got %q", "first? ", stdout.String())
	}
}

func TestRunBlock_Exec(t *testing.T) {
	in := newTestInterpreter(WithCommandRunner(fakeRunner{
		"echo hi": {Stdout: "hi\n"},
		"false":   {Stderr: "failed", ExitCode: 1},
	}))

	got := runBlock(t, in, "print(exec(\"echo hi\").trim())\nprint(exec(\"false\"))")
	if want := "hi\nError: failed"; got != want {
		t.Errorf("want %q, got %q", want, got)
	}
}

func TestRunBlock_Open(t *testing.T) {
	fs := afero.NewMemMapFs()
	in := newTestInterpreter(WithFs(fs))

	got := runBlock(t, in, "let f = open(\"out.txt\", \"w\")\n"+
		"f.write(\"line one\\n\")\n"+
		"f.write(42)\n"+
		"f.close()\n"+
		"let g = open(\"out.txt\")\n"+
		"print(g.lines())\n"+
		"let h = open(\"left-open.txt\", \"a\")\n"+
		"h.write(\"x\")")
	if want := "[\"line one\", \"42\"]"; got != want {
		t.Errorf("want %q, got %q", want, got)
	}

	data, err := afero.ReadFile(fs, "left-open.txt")
	if err != nil || string(data) != "x" {
		t.Errorf("expected handle flushed at block end, got %q (%v)", data, err)
	}
}

func TestRunBlock_Echo(t *testing.T) {
	var stdout bytes.Buffer

	in := newTestInterpreter(WithStdout(&stdout), WithEcho(true))

	runBlock(t, in, "print(\"live\")")

	if !strings.HasSuffix(stdout.String(), "live\n") {
		t.Errorf("expected echoed output, got %q", stdout.String())
	}
}

func TestExecute_Canceled(t *testing.T) {
	in := newTestInterpreter()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	got := in.Execute(ctx, "```plainmark\nwhile (true) {}\n```")
	if !strings.Contains(got, context.Canceled.Error()) {
		t.Errorf("expected cancellation error, got %q", got)
	}
}

func TestExecuteFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	err := afero.WriteFile(fs, "doc.md", []byte("```plainmark\nprint(\"from file\")\n```\n"), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	in := newTestInterpreter(WithFs(fs))

	if got := in.ExecuteFile(t.Context(), "doc.md"); !strings.HasSuffix(got, "\nfrom file") {
		t.Errorf("unexpected result:\n%s", got)
	}

	want := "Error: File 'missing.md' not found."
	if got := in.ExecuteFile(t.Context(), "missing.md"); got != want {
		t.Errorf("want %q, got %q", want, got)
	}
}

func TestExecuteFile_Large(t *testing.T) {
	fs := afero.NewMemMapFs()

	// prose spanning several read-ahead buffers before the only block
	doc := strings.Repeat("filler text line\n", 1<<18) +
		"```plainmark\nprint(\"end of file\")\n```\n"

	if err := afero.WriteFile(fs, "big.md", []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	in := newTestInterpreter(WithFs(fs))

	if got := in.ExecuteFile(t.Context(), "big.md"); !strings.HasSuffix(got, "\nend of file") {
		t.Errorf("unexpected result tail: %q", got[max(0, len(got)-80):])
	}
}

func TestExecuteReader(t *testing.T) {
	in := newTestInterpreter()

	got := in.ExecuteReader(t.Context(), strings.NewReader("```plainmark\nprint(1 + 1)\n```"))
	if !strings.HasSuffix(got, "\n2") {
		t.Errorf("unexpected result:\n%s", got)
	}
}

func TestResults_Stop(t *testing.T) {
	in := newTestInterpreter()

	doc := "```plainmark\nlet a = 1\n```\n```plainmark\nlet b = 2\n```\n"

	for b := range in.Results(t.Context(), doc) {
		if b.Index != 0 {
			t.Fatalf("iteration continued to block %d", b.Index)
		}

		break
	}

	if _, ok := in.Namespace().Get("b"); ok {
		t.Error("stopped iteration still executed the second block")
	}
}
