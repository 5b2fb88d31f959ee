package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/plain-mark/markdown2app/lang"
	"github.com/plain-mark/markdown2app/log"
	"github.com/plain-mark/markdown2app/pkg"
)

// Config holds the REPL dependencies.
type Config struct {
	// Interpreter runs the buffer. Its namespace persists across runs.
	Interpreter *lang.Interpreter
	// History is the path of the history file. Empty keeps history in memory.
	History string
	// Stdin and Stdout default to the terminal when nil.
	Stdin  io.Reader
	Stdout io.Writer
}

// editMsg is sent when editing completes with a valid document.
type editMsg struct{ document string }

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after a rewrite
// error.
type editDeclinedMsg struct{}

// errorMsg is sent when an external command fails.
type errorMsg struct{ err error }

// ranMsg is sent when the buffer has been executed.
type ranMsg struct{}

const prompt = "➜ "

const exitMessage = "\nExiting..."

func banner() string {
	return fmt.Sprintf(
		"%s %s interactive mode\nType Markdown with ```%s code blocks. Type %q for commands.\n",
		pkg.Name, pkg.Version, lang.DefaultLabel, cmdHelp,
	)
}

const helpMessage = `
A line holding only one of these words is a command:

  run    execute every code block in the buffer
  show   render the buffer as Markdown
  vars   list variables left behind by earlier runs
  edit   open the buffer in $VISUAL or $EDITOR (also Ctrl+E)
  clear  empty the buffer
  help   print this message
  exit   leave the REPL (also quit, Ctrl+D, Ctrl+C on an empty line)

Any other line is appended to the buffer. Variables survive clear and
persist until the REPL exits.

Candidates are listed below the prompt while typing. Tab and Shift+Tab
step through them, Space or Enter keeps the selection, Esc restores what
was typed. Up and Down recall earlier lines.`

// echoLine reproduces an accepted line above the input.
func echoLine(line string) tea.Cmd {
	return tea.Println(promptStyle.Render(prompt) + echoStyle.Render(line))
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc      func() context.Context
	input        textinput.Model
	session      *session
	logger       log.Logger
	history      *History
	historyIdx   int
	matches      fuzzy.Matches // current fuzzy match results
	candidates   []string      // backing candidate list
	parent       string        // member-access path of the current word
	wordStart    int           // byte offset of current word start
	wordEnd      int           // byte offset of current word end
	suggIdx      int           // selected candidate index
	tabActive    bool          // whether user is tab-cycling
	preTabText   string        // input text before tab-cycling began
	preTabCursor int           // cursor position before tab-cycling began
	width        int           // terminal width for ellipsization
	quitting     bool
}

// Run starts the REPL. Lines typed by the user accumulate into a Markdown
// buffer that the run command executes with cfg.Interpreter.
func Run(ctx context.Context, cfg Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if cfg.Interpreter == nil {
		return ErrNoInterpreter
	}

	logger := log.Default()

	logger.TraceContext(
		ctx,
		"repl start",
		slog.String("history", cfg.History),
		slog.String("label", cfg.Interpreter.Label()),
	)

	history := NewHistory(cfg.History)
	if err := history.Load(); err != nil {
		logger.WarnContext(
			ctx,
			"could not load history",
			slog.String("path", cfg.History),
			slog.Any("error", err),
		)
	}

	logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.Stdin != nil {
		opts = append(opts, tea.WithInput(cfg.Stdin))
	}

	if cfg.Stdout != nil {
		opts = append(opts, tea.WithOutput(cfg.Stdout))
	}

	m := newModel(ctx, newSession(cfg.Interpreter), history, logger)

	_, err = tea.NewProgram(m, opts...).Run()

	if cfg.Stdout != nil {
		fmt.Fprintln(cfg.Stdout, exitMessage)
	}

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	s *session,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(prompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    s,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.Println(hintStyle.Render(banner())))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(prompt) - 2

		return m, nil

	case editMsg:
		m.session.reset(msg.document)
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl edit complete",
			slog.Int("lines", m.session.len()),
		)

		return m, tea.Println(okStyle.Render(
			fmt.Sprintf("✔ buffer updated (%d blocks)", m.session.blocks()),
		))

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("🗴 edit cancelled"))

	case editDeclinedMsg:
		return m, tea.Println(hintStyle.Render("🗴 edit discarded"))

	case errorMsg:
		return m, tea.Println(failStyle.Render("🗴 error: " + msg.err.Error()))

	case ranMsg:
		return m, nil
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()
	viewingHistory := m.historyIdx < m.history.Len()
	funcCall := detectFunctionCall(input, m.input.Position())

	switch {
	case viewingHistory:
		b.WriteString(hintStyle.Render(
			fmt.Sprintf("history %d/%d", m.historyIdx+1, m.history.Len()),
		))

	case strings.TrimSpace(input) == "":
		b.WriteString(hintStyle.Render(m.emptyHint()))

	case funcCall.inCall:
		signature, params := getSignature(m.session.in, funcCall.name)
		if signature != "" {
			b.WriteString(renderSignatureHint(signature, params, funcCall.argIndex))
		} else {
			b.WriteString(m.candidateBar())
		}

	default:
		b.WriteString(m.candidateBar())
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) emptyHint() string {
	n := m.session.len()
	if n == 0 {
		return "Type Markdown, or " + strings.Join(commands, ", ")
	}

	return fmt.Sprintf(
		"%d lines buffered, %d blocks (type %q to execute)",
		n, m.session.blocks(), cmdRun,
	)
}

func (m model) candidateBar() string {
	return renderCandidateBar(
		m.matches, m.suggIdx, m.tabActive, m.width,
		func(name string) bool { return callable(m.session.in, m.parent, name) },
	)
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		m.rematch(false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyCtrlE:
		return m.handleEdit()

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}
		// Lock in the current tab candidate without executing.
		m.tabActive = false
		m.rematch(true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1)

	case tea.KeyShiftTab:
		return m.cycle(-1)

	case tea.KeyUp:
		return m.recall(-1)

	case tea.KeyDown:
		return m.recall(1)

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			m.rematch(false)
		}

		return m, nil

	case tea.KeyRunes, tea.KeySpace:
		// Space is a "breaking" key while tab-cycling.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		m.rematch(true)

		return m, cmd
	}

	// For any other key (backspace, delete, arrows, etc.),
	// update input and recompute matches without auto-confirm.
	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	m.rematch(false)

	return m, cmd
}

// cycle moves the tab selection by step, wrapping around. A single candidate
// is completed and confirmed immediately.
func (m model) cycle(step int) (model, tea.Cmd) {
	n := len(m.matches)
	if n == 0 {
		return m, nil
	}

	if n == 1 {
		m.complete(m.matches[0].Str)
		m.dismiss()

		return m, nil
	}

	switch {
	case m.tabActive:
		m.suggIdx = (m.suggIdx + step + n) % n
	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if step < 0 {
			m.suggIdx = n - 1
		}
	}

	m.complete(m.matches[m.suggIdx].Str)

	return m, nil
}

// complete substitutes word for the word under the cursor and moves the
// cursor to its end.
func (m *model) complete(word string) {
	line := m.input.Value()
	end := m.wordStart + len(word)

	m.input.SetValue(line[:m.wordStart] + word + line[m.wordEnd:])
	m.input.SetCursor(end)
	m.wordEnd = end
}

// rematch recomputes the candidates for the word under the cursor. With
// confirm set, a word that already equals its only candidate dismisses the
// bar. Edits that delete text or move the cursor never confirm.
func (m *model) rematch(confirm bool) {
	m.matches, m.candidates, m.parent, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if confirm && len(m.matches) == 1 &&
		m.input.Value()[m.wordStart:m.wordEnd] == m.matches[0].Str {
		m.dismiss()
	}
}

func (m *model) dismiss() {
	m.tabActive = false
	m.suggIdx = -1
	m.matches = nil
}

// executeInput dispatches a session command or appends the line to the
// buffer.
func (m model) executeInput() (model, tea.Cmd) {
	line := m.input.Value()

	m.input.SetValue("")
	m.matches = nil

	if strings.TrimSpace(line) != "" {
		_, _ = m.history.Write(line)
	}

	m.historyIdx = m.history.Len()

	if cmd, ok := parseCommand(line); ok {
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl command",
			slog.String("command", cmd),
		)

		return m.executeCommand(cmd)
	}

	m.session.add(line)

	return m, echoLine(line)
}

func (m model) executeCommand(name string) (model, tea.Cmd) {
	echo := echoLine(name)

	switch name {
	case cmdExit, cmdQuit:
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case cmdHelp:
		return m, tea.Sequence(echo, tea.Println(helpMessage))

	case cmdClear:
		m.session.clear()

		return m, tea.Sequence(echo, tea.Println(okStyle.Render(clearedMsg)))

	case cmdShow:
		return m, tea.Sequence(echo, tea.Println(m.session.show(m.width)))

	case cmdVars:
		out, err := m.session.vars()
		if err != nil {
			return m, tea.Sequence(
				echo,
				tea.Println(failStyle.Render("error: "+err.Error())),
			)
		}

		return m, tea.Sequence(echo, tea.Println(out))

	case cmdEdit:
		var edit tea.Cmd

		m, edit = m.handleEdit()

		return m, tea.Sequence(echo, edit)

	case cmdRun:
		run := &runCommand{session: m.session, ctxFunc: m.ctxFunc}

		return m, tea.Sequence(echo, tea.Exec(run, func(err error) tea.Msg {
			if err != nil {
				return errorMsg{err: err}
			}

			return ranMsg{}
		}))
	}

	return m, nil
}

func (m model) handleEdit() (model, tea.Cmd) {
	cmd := &editCommand{
		document: m.session.document(),
		label:    m.session.in.Label(),
		ctxFunc:  m.ctxFunc,
		logger:   m.logger,
	}

	return m, tea.Exec(cmd, func(err error) tea.Msg {
		if errors.Is(err, ErrEditDeclined) {
			return editDeclinedMsg{}
		}

		if err != nil {
			return errorMsg{err: err}
		}

		if !cmd.changed {
			return editCancelledMsg{}
		}

		return editMsg{document: cmd.edited}
	})
}

// recall moves through history by delta. Moving past the newest entry
// returns to an empty line.
func (m model) recall(delta int) (model, tea.Cmd) {
	idx := m.historyIdx + delta
	if idx < 0 {
		return m, nil
	}

	line, err := m.history.GetLine(idx)
	if err != nil {
		idx, line = m.history.Len(), ""
	}

	m.historyIdx = idx
	m.input.SetValue(line)
	m.input.SetCursor(len(line))
	m.rematch(false)

	return m, nil
}

// runCommand implements [tea.ExecCommand] so that the buffer runs with the
// terminal released, letting scripts prompt for input.
type runCommand struct {
	session *session
	ctxFunc func() context.Context
	stdout  io.Writer
}

// SetStdin is a no-op; scripts read from the interpreter's own input.
func (c *runCommand) SetStdin(io.Reader) {}

// SetStdout sets the writer receiving the run report.
func (c *runCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr is a no-op.
func (c *runCommand) SetStderr(io.Writer) {}

// Run executes the buffer and prints the report.
func (c *runCommand) Run() error {
	w := c.stdout
	if w == nil {
		w = io.Discard
	}

	_, err := fmt.Fprintln(w, c.session.run(c.ctxFunc()))

	return err
}
