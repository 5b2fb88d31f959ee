package lang

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// fileModes maps open modes to afero open flags.
var fileModes = map[string]int{
	"r":  os.O_RDONLY,
	"w":  os.O_WRONLY | os.O_CREATE | os.O_TRUNC,
	"a":  os.O_WRONLY | os.O_CREATE | os.O_APPEND,
	"x":  os.O_WRONLY | os.O_CREATE | os.O_EXCL,
	"r+": os.O_RDWR,
	"w+": os.O_RDWR | os.O_CREATE | os.O_TRUNC,
	"a+": os.O_RDWR | os.O_CREATE | os.O_APPEND,
}

const defaultFileMode = 0o644

// fileHandle is a file opened by a script.
type fileHandle struct {
	file   afero.File
	name   string
	mode   string
	closed bool
}

// open implements the open capability. The returned handle exposes
// read, lines, write, and close.
func (in *Interpreter) open(path string, mode ...string) (map[string]any, error) {
	m := "r"
	if len(mode) > 0 && mode[0] != "" {
		m = strings.ReplaceAll(mode[0], "b", "")
	}

	flag, ok := fileModes[m]
	if !ok {
		return nil, ErrFileMode.Wrap(NewError(m))
	}

	f, err := in.opts.fs.OpenFile(path, flag, defaultFileMode)
	if err != nil {
		return nil, err
	}

	h := &fileHandle{file: f, name: path, mode: m}

	if r := in.active; r != nil {
		r.files = append(r.files, h)
	}

	in.logger.DebugContext(in.context(), "open",
		slog.String("path", path),
		slog.String("mode", m),
	)

	return h.object(), nil
}

func (h *fileHandle) object() map[string]any {
	return map[string]any{
		"name":  h.name,
		"mode":  h.mode,
		"read":  h.read,
		"lines": h.lines,
		"write": h.write,
		"close": h.close,
	}
}

func (h *fileHandle) read() (string, error) {
	if h.closed {
		return "", ErrFileClosed.Wrap(NewError(h.name))
	}

	data, err := io.ReadAll(h.file)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func (h *fileHandle) lines() ([]any, error) {
	if h.closed {
		return nil, ErrFileClosed.Wrap(NewError(h.name))
	}

	var out []any

	s := bufio.NewScanner(h.file)
	for s.Scan() {
		out = append(out, s.Text())
	}

	return out, s.Err()
}

func (h *fileHandle) write(v any) (int, error) {
	if h.closed {
		return 0, ErrFileClosed.Wrap(NewError(h.name))
	}

	return io.WriteString(h.file, FormatValue(v))
}

func (h *fileHandle) close() (bool, error) {
	if h.closed {
		return false, nil
	}

	h.closed = true

	return true, h.file.Close()
}
