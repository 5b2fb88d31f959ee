package lang

// This file defines the capability set visible to every expression. The
// static host facts are computed once per process; the capabilities that
// touch interpreter state (output, input, files, commands, the namespace)
// are bound per Interpreter.

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"reflect"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/ardnew/mung"
	"github.com/spf13/afero"
)

// Capability names. They are reserved and cannot be rebound by scripts.
const (
	CapPrint   = "print"
	CapInput   = "input"
	CapOpen    = "open"
	CapExec    = "exec"
	CapJSON    = "json"
	CapOS      = "os"
	CapVars    = "vars"
	CapError   = "error"
	CapConsole = "console"
)

// Capabilities returns the capability names in sorted order.
func Capabilities() []string {
	return []string{
		CapConsole, CapError, CapExec, CapInput, CapJSON,
		CapOpen, CapOS, CapPrint, CapVars,
	}
}

// IsReserved reports whether name is a capability or internal helper name.
func IsReserved(name string) bool {
	return name == formatHelper || slices.Contains(Capabilities(), name)
}

// capabilities builds the capability map bound to in.
func (in *Interpreter) capabilities() map[string]any {
	emitWith := func(prefix string) func(args ...any) any {
		return func(args ...any) any {
			in.emit(prefix + joinValues(args))

			return nil
		}
	}

	return map[string]any{
		CapPrint: emitWith(""),
		CapError: emitWith("Error: "),
		CapConsole: map[string]any{
			"log":   emitWith(""),
			"info":  emitWith(""),
			"debug": emitWith(""),
			"warn":  emitWith("Warning: "),
			"error": emitWith("Error: "),
		},
		CapInput: in.input,
		CapOpen:  in.open,
		CapExec:  in.exec,
		CapJSON: map[string]any{
			"stringify": jsonStringify,
			"parse":     jsonParse,
			"dumps":     jsonStringify,
			"loads":     jsonParse,
		},
		CapOS:        in.osFacilities(),
		CapVars:      in.ns.Map(),
		formatHelper: FormatValue,
	}
}

// CapabilityMembers returns the member names of a capability handle, for
// completion. It returns nil for capabilities that are plain functions.
func CapabilityMembers(name string) []string {
	var in Interpreter

	in.ns = NewNamespace()

	m, ok := in.capabilities()[name].(map[string]any)
	if !ok || name == CapVars {
		return nil
	}

	return sortedKeys(m)
}

func joinValues(args []any) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = FormatValue(arg)
	}

	return strings.Join(parts, " ")
}

// ---------------------------------------------------------------------------
// Line input
// ---------------------------------------------------------------------------

func (in *Interpreter) input(prompt ...any) (string, error) {
	if len(prompt) > 0 {
		_, _ = io.WriteString(in.opts.stdout, joinValues(prompt))
	}

	if in.stdin == nil {
		in.stdin = bufio.NewReader(in.opts.stdin)
	}

	line, err := in.stdin.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", ErrReadInput.Wrap(err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// ---------------------------------------------------------------------------
// Command execution
// ---------------------------------------------------------------------------

func (in *Interpreter) exec(command string) string {
	ctx := in.context()

	res, err := in.opts.commands.RunCommand(ctx, command)

	in.logger.DebugContext(ctx, "exec",
		slog.String("command", command),
		slog.Int("exit", res.ExitCode),
	)

	return execResult(res, err)
}

// ---------------------------------------------------------------------------
// JSON
// ---------------------------------------------------------------------------

func jsonStringify(v any, indent ...int) (string, error) {
	var (
		data []byte
		err  error
	)

	plain := jsonValue(v)

	if len(indent) > 0 && indent[0] > 0 {
		data, err = json.MarshalIndent(plain, "", strings.Repeat(" ", indent[0]))
	} else {
		data, err = json.Marshal(plain)
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}

// jsonValue drops function values, which have no JSON form.
func jsonValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))

		for k, e := range val {
			if !isFunc(e) {
				out[k] = jsonValue(e)
			}
		}

		return out

	case []any:
		out := make([]any, len(val))

		for i, e := range val {
			if isFunc(e) {
				out[i] = nil
			} else {
				out[i] = jsonValue(e)
			}
		}

		return out
	}

	if isFunc(v) {
		return nil
	}

	return v
}

func jsonParse(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any

	err := dec.Decode(&v)
	if err != nil {
		return nil, err
	}

	if dec.More() {
		return nil, errors.New("unexpected data after JSON value")
	}

	return jsonNumbers(v), nil
}

// jsonNumbers replaces json.Number with int where exact, float64 otherwise.
func jsonNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := strconv.Atoi(val.String()); err == nil {
			return i
		}

		f, _ := val.Float64()

		return f

	case map[string]any:
		for k, e := range val {
			val[k] = jsonNumbers(e)
		}

	case []any:
		for i, e := range val {
			val[i] = jsonNumbers(e)
		}
	}

	return v
}

// ---------------------------------------------------------------------------
// OS facilities
// ---------------------------------------------------------------------------

func (in *Interpreter) osFacilities() map[string]any {
	host := hostInfo()
	fs := in.opts.fs

	return map[string]any{
		"platform": host.platform.OS,
		"arch":     host.platform.Arch,
		"target":   host.target,
		"hostname": host.hostname,
		"user":     host.user,
		"shell":    host.shell,
		"sep":      string(filepath.Separator),

		"cwd":     getCwd,
		"getenv":  os.Getenv,
		"setenv":  setenv,
		"environ": environ,

		"exists": func(path string) bool {
			ok, err := afero.Exists(fs, path)

			return ok && err == nil
		},
		"isDir": func(path string) bool {
			ok, err := afero.IsDir(fs, path)

			return ok && err == nil
		},
		"isRegular": func(path string) bool {
			info, err := fs.Stat(path)

			return err == nil && info.Mode().IsRegular()
		},
		"isSymlink": func(path string) bool {
			lst, ok := fs.(afero.Lstater)
			if !ok {
				return false
			}

			info, _, err := lst.LstatIfPossible(path)

			return err == nil && info.Mode()&os.ModeSymlink != 0
		},
		"listdir": func(path string) ([]any, error) {
			entries, err := afero.ReadDir(fs, path)
			if err != nil {
				return nil, err
			}

			names := make([]any, len(entries))
			for i, e := range entries {
				names[i] = e.Name()
			}

			return names, nil
		},

		"abs":        pathAbs,
		"join":       filepath.Join,
		"rel":        pathRel,
		"pathPrefix": pathPrefix,
	}
}

// target contains string identifiers for a target operating system and
// instruction set architecture.
type target struct {
	OS   string
	Arch string
}

func (t target) String() string { return t.Arch + "-" + t.OS }

type host struct {
	platform target
	target   target
	hostname string
	user     *user.User
	shell    string
}

var hostInfo = sync.OnceValue(func() host {
	u := getUser()

	return host{
		platform: getPlatform(),
		target:   getTarget(),
		hostname: getHostname(),
		user:     u,
		shell:    getShell(u),
	}
})

// getTarget returns the host target using GNU GCC/LLVM naming conventions.
func getTarget() target {
	t := getPlatform()

	switch t.Arch {
	case "386":
		t.Arch = "i386"
	case "amd64":
		t.Arch = "x86_64"
	case "arm":
		arm, ok := os.LookupEnv("GOARM")
		if ok {
			arm, _, _ = strings.Cut(arm, ",")
			switch strings.TrimSpace(arm) {
			case "5", "6", "7":
				t.Arch = "armv" + arm
			}
		}
	case "arm64":
		if t.OS != "darwin" {
			t.Arch = "aarch64"
		}
	case "mipsle":
		t.Arch = "mipsel"
	}

	return t
}

// getPlatform returns the host target using Go conventions.
func getPlatform() target {
	return target{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}

	return hostname
}

func getUser() *user.User {
	u, err := user.Current()
	if err != nil {
		return nil
	}

	return u
}

// getShell returns $SHELL, falling back to the login shell in /etc/passwd.
func getShell(u *user.User) string {
	shell, ok := os.LookupEnv("SHELL")
	if ok {
		return shell
	}

	if u == nil || u.Username == "" {
		return ""
	}

	data, err := os.ReadFile("/etc/passwd")
	if err != nil {
		return ""
	}

	for line := range bytes.Lines(data) {
		e := strings.Split(strings.TrimSpace(string(line)), ":")
		if len(e) > 6 && e[0] == u.Username {
			return e[6]
		}
	}

	return ""
}

func getCwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return pathAbs(".")
	}

	return cwd
}

func setenv(key string, value any) (bool, error) {
	err := os.Setenv(key, FormatValue(value))

	return err == nil, err
}

func environ() map[string]any {
	env := make(map[string]any)

	for _, entry := range os.Environ() {
		key, value, ok := strings.Cut(entry, "=")
		if ok {
			env[key] = value
		}
	}

	return env
}

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return filepath.Join(from, to)
	}

	return p
}

// pathPrefix prepends items to a PATH-like list, removing duplicates.
func pathPrefix(list string, items ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(items...),
	).String()
}

func isFunc(v any) bool {
	if _, ok := v.(*Function); ok {
		return true
	}

	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}
