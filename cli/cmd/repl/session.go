package repl

import (
	"context"
	"reflect"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/goccy/go-yaml"

	"github.com/plain-mark/markdown2app/lang"
)

// Commands recognized when typed alone on a line.
const (
	cmdClear = "clear"
	cmdEdit  = "edit"
	cmdExit  = "exit"
	cmdHelp  = "help"
	cmdQuit  = "quit"
	cmdRun   = "run"
	cmdShow  = "show"
	cmdVars  = "vars"
)

var commands = []string{
	cmdClear, cmdEdit, cmdExit, cmdHelp, cmdQuit, cmdRun, cmdShow, cmdVars,
}

// parseCommand reports whether line is a session command.
func parseCommand(line string) (string, bool) {
	c := strings.ToLower(strings.TrimSpace(line))
	if slices.Contains(commands, c) {
		return c, true
	}

	return "", false
}

// Messages printed by session commands.
const (
	resultHeader = "\nResult:"
	clearedMsg   = "Markdown cleared"
	emptyMsg     = "Markdown buffer is empty"
	noVarsMsg    = "No variables defined"
	showHeader   = "\nCurrent Markdown:"
)

// session is the Markdown buffer accumulated by the REPL together with the
// interpreter that runs it. The interpreter namespace outlives clear.
type session struct {
	in    *lang.Interpreter
	lines []string
}

func newSession(in *lang.Interpreter) *session {
	return &session{in: in}
}

func (s *session) add(line string) { s.lines = append(s.lines, line) }

func (s *session) clear() { s.lines = nil }

func (s *session) len() int { return len(s.lines) }

func (s *session) document() string {
	if len(s.lines) == 0 {
		return ""
	}

	return strings.Join(s.lines, "\n") + "\n"
}

// reset replaces the buffer with the lines of document.
func (s *session) reset(document string) {
	document = strings.TrimRight(document, "\n")
	if document == "" {
		s.lines = nil

		return
	}

	s.lines = strings.Split(document, "\n")
}

// blocks returns the number of dialect blocks in the buffer.
func (s *session) blocks() int {
	return len(lang.Extract(s.document(), s.in.Label()))
}

// run executes the buffer and returns the report printed for it.
func (s *session) run(ctx context.Context) string {
	return resultHeader + "\n" + s.in.Execute(ctx, s.document())
}

// show renders the buffer as terminal Markdown. It falls back to the raw
// text when rendering fails.
func (s *session) show(width int) string {
	if len(s.lines) == 0 {
		return emptyMsg
	}

	doc := s.document()

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		var out string

		out, err = r.Render(doc)
		if err == nil {
			return showHeader + "\n" + strings.TrimRight(out, "\n")
		}
	}

	return showHeader + "\n" + strings.TrimRight(doc, "\n")
}

// vars renders the namespace as YAML.
func (s *session) vars() (string, error) {
	ns := s.in.Namespace()
	if ns.Len() == 0 {
		return noVarsMsg, nil
	}

	var doc yaml.MapSlice

	for name, value := range ns.All() {
		doc = append(doc, yaml.MapItem{Key: name, Value: plainValue(value)})
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}

	return strings.TrimRight(string(data), "\n"), nil
}

// plainValue replaces functions with their display form and orders maps, so
// that bindings marshal deterministically.
func plainValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil

	case *lang.Function:
		return val.String()

	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}

		slices.Sort(keys)

		out := make(yaml.MapSlice, len(keys))
		for i, k := range keys {
			out[i] = yaml.MapItem{Key: k, Value: plainValue(val[k])}
		}

		return out

	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = plainValue(e)
		}

		return out
	}

	if reflect.TypeOf(v).Kind() == reflect.Func {
		return "[function]"
	}

	return v
}
