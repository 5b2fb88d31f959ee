package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/plain-mark/markdown2app/lang"
	"github.com/plain-mark/markdown2app/log"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand] for the edit-validate-retry loop.
// It writes the buffer to a temp file, opens the user's editor, and checks
// every dialect block of the result. On a rewrite error the user is prompted
// to re-edit; declining keeps the buffer unchanged.
type editCommand struct {
	document string
	label    string
	ctxFunc  func() context.Context
	logger   log.Logger
	edited   string
	changed  bool
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. It returns [ErrEditDeclined] when the user
// declines to fix an invalid document.
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	f, err := os.CreateTemp(os.TempDir(), "plainmark-repl-*.md")
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Chmod(0o600); err != nil {
		f.Close()

		return err
	}

	f.Close()

	content := c.document

	for {
		if err := os.WriteFile(tmpPath, []byte(content), 0o600); err != nil {
			return err
		}

		data, err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath)
		if err != nil {
			return err
		}

		if strings.TrimSpace(data) == "" {
			return nil
		}

		checkErr := checkDocument(data, c.label)

		c.logger.TraceContext(
			ctx,
			"editor check",
			slog.Int("content_length", len(data)),
			slog.Bool("success", checkErr == nil),
		)

		if checkErr == nil {
			c.edited = data
			c.changed = true

			return nil
		}

		fmt.Fprintf(c.stderr, "\n%s\n", checkErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if response == "n" || response == "no" {
			return ErrEditDeclined
		}

		content = data
	}
}

// checkDocument rewrites every dialect block of document and returns the
// first failure, qualified by its block number and fence line.
func checkDocument(document, label string) error {
	for _, b := range lang.Extract(document, label) {
		if _, err := lang.ParseCached(b.Code); err != nil {
			return fmt.Errorf("block %d (line %d): %w", b.Index+1, b.Line, err)
		}
	}

	return nil
}

// runEditor launches the user's editor on the file at path and returns the
// edited content.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) (string, error) {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}

	if editor == "" {
		editor = defaultEditor
	}

	args := strings.Fields(editor)
	if len(args) == 0 {
		return "", ErrNoEditor
	}

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
