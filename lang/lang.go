package lang

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/plain-mark/markdown2app/log"
)

// NoBlocksMessage is the result of executing a document without any
// dialect blocks.
const NoBlocksMessage = "No plainmark code blocks found in the file."

// DebugMarker prefixes the rewritten listing emitted before each block runs.
const DebugMarker = "# DEBUG: Converted code:"

// DefaultMaxCallDepth bounds nested user function calls.
const DefaultMaxCallDepth = 256

type options struct {
	logger       log.Logger
	label        string
	fs           afero.Fs
	stdin        io.Reader
	stdout       io.Writer
	commands     CommandRunner
	maxCallDepth int
	echo         bool
}

// Option configures an [Interpreter].
type Option func(*options)

// WithLogger sets the logger used for execution diagnostics.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithLabel sets the fence label that selects dialect blocks.
func WithLabel(label string) Option {
	return func(o *options) {
		if label = strings.TrimSpace(label); label != "" {
			o.label = label
		}
	}
}

// WithFs sets the filesystem used by documents and the open capability.
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		if fs != nil {
			o.fs = fs
		}
	}
}

// WithStdin sets the reader consumed by the input capability.
func WithStdin(r io.Reader) Option {
	return func(o *options) {
		if r != nil {
			o.stdin = r
		}
	}
}

// WithStdout sets the writer for input prompts and echoed output.
func WithStdout(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.stdout = w
		}
	}
}

// WithEcho writes printed lines to stdout as they are produced, in addition
// to capturing them in the block result.
func WithEcho(echo bool) Option {
	return func(o *options) { o.echo = echo }
}

// WithCommandRunner sets the runner behind the exec capability.
func WithCommandRunner(runner CommandRunner) Option {
	return func(o *options) {
		if runner != nil {
			o.commands = runner
		}
	}
}

// WithMaxCallDepth bounds nested user function calls.
func WithMaxCallDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxCallDepth = depth
		}
	}
}

func defaultOptions() options {
	return options{
		logger:       log.Make(io.Discard),
		label:        DefaultLabel,
		fs:           afero.NewOsFs(),
		stdin:        os.Stdin,
		stdout:       os.Stdout,
		commands:     SystemShell{},
		maxCallDepth: DefaultMaxCallDepth,
	}
}

// Interpreter executes dialect blocks against a persistent [Namespace].
//
// The namespace lives as long as the Interpreter: every block executed by
// it, across any number of calls, sees the bindings left by earlier blocks.
// An Interpreter is not safe for concurrent use.
//
// Evaluated code has the full capability of the host process, including
// shell command execution. Only trusted documents should be executed.
type Interpreter struct {
	opts   options
	logger log.Logger
	ns     *Namespace
	caps   map[string]any
	stdin  *bufio.Reader
	active *runner
	blocks int // blocks executed so far, for tracebacks
}

// New returns an Interpreter with an empty namespace.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		opts: defaultOptions(),
		ns:   NewNamespace(),
	}

	for _, opt := range opts {
		opt(&in.opts)
	}

	in.logger = in.opts.logger.With(slog.String("label", in.opts.label))
	in.caps = in.capabilities()

	return in
}

// Namespace returns the interpreter's persistent variable namespace.
func (in *Interpreter) Namespace() *Namespace { return in.ns }

// Lookup resolves a dotted name, such as "os.platform" or "config.port",
// against the capabilities and then the namespace.
func (in *Interpreter) Lookup(name string) (any, bool) {
	head, rest, _ := strings.Cut(name, ".")
	if head == formatHelper {
		return nil, false
	}

	v, ok := in.caps[head]
	if !ok {
		v, ok = in.ns.Get(head)
	}

	for ok && rest != "" {
		var seg string

		seg, rest, _ = strings.Cut(rest, ".")

		m, isMap := v.(map[string]any)
		if !isMap {
			return nil, false
		}

		v, ok = m[seg]
	}

	return v, ok
}

// Label returns the fence label selecting dialect blocks.
func (in *Interpreter) Label() string { return in.opts.label }

// Execute runs every dialect block of document in order and returns the
// non-empty block results joined by newlines. A failing block contributes
// its formatted error and does not stop later blocks.
func (in *Interpreter) Execute(ctx context.Context, document string) string {
	if len(Extract(document, in.opts.label)) == 0 {
		in.logger.DebugContext(ctx, "no blocks found")

		return NoBlocksMessage
	}

	var results []string

	for _, out := range in.Results(ctx, document) {
		if out != "" {
			results = append(results, out)
		}
	}

	return strings.Join(results, "\n")
}

// ExecuteBlock runs one block body and returns its output. On failure the
// output captured before the fault is followed by the formatted error.
func (in *Interpreter) ExecuteBlock(ctx context.Context, code string) string {
	out, err := in.RunBlock(ctx, code)
	if err == nil {
		return out
	}

	if out == "" {
		return FormatError(err)
	}

	return out + "\n" + FormatError(err)
}

// RunBlock runs one block body. It returns the captured output together
// with any rewrite or evaluation error. Bindings are written back to the
// namespace only when err is nil.
func (in *Interpreter) RunBlock(ctx context.Context, code string) (string, error) {
	in.blocks++

	prog, err := ParseCached(code)
	if err != nil {
		in.logger.WarnContext(ctx, "rewrite failed",
			slog.Int("block", in.blocks),
			slog.Any("error", err),
		)

		return "", err
	}

	for _, d := range prog.Rewrite.Directives {
		in.logger.DebugContext(ctx, "directive",
			slog.Int("line", d.Line),
			slog.String("text", d.Text),
		)
	}

	listing := prog.Rewrite.String()

	in.logger.TraceContext(ctx, "rewritten", slog.String("code", listing))

	r := newRunner(ctx, in, in.blocks)
	r.emit(DebugMarker)

	if listing != "" {
		r.emit(listing)
	}

	err = r.run(prog)
	if err != nil {
		in.logger.WarnContext(ctx, "block failed",
			slog.Int("block", in.blocks),
			slog.Any("error", err),
		)

		return r.output(), err
	}

	n := in.ns.Merge(r.global.vars)

	in.logger.DebugContext(ctx, "block complete",
		slog.Int("block", in.blocks),
		slog.Int("bindings", n),
	)

	return r.output(), nil
}

// ExecuteFile reads the document at path from the interpreter's filesystem
// and executes it. Read failures are reported in the returned string.
func (in *Interpreter) ExecuteFile(ctx context.Context, path string) string {
	f, err := in.opts.fs.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "Error: File '" + path + "' not found."
		}

		return "Error: " + err.Error()
	}
	defer f.Close()

	return in.ExecuteReader(ctx, f)
}

// emit records one printed line for the running block. Outside of a block
// the line goes straight to stdout.
func (in *Interpreter) emit(line string) {
	if r := in.active; r != nil {
		r.emit(line)

		return
	}

	_, _ = io.WriteString(in.opts.stdout, line+"\n")
}

// context returns the context of the running block.
func (in *Interpreter) context() context.Context {
	if r := in.active; r != nil {
		return r.ctx
	}

	return context.Background()
}
