package lang

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// CommandResult is the outcome of one shell command.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner executes shell command strings for the exec capability.
// Commands are passed verbatim; there is no sandbox or allow-list.
type CommandRunner interface {
	RunCommand(ctx context.Context, command string) (CommandResult, error)
}

// VirtualShell runs commands with an in-process POSIX shell interpreter.
// External programs are still executed by the host.
type VirtualShell struct {
	Dir string   // working directory; empty for the process working directory
	Env []string // KEY=VALUE pairs; nil for the process environment
}

// RunCommand implements [CommandRunner].
func (s VirtualShell) RunCommand(ctx context.Context, command string) (CommandResult, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "exec")
	if err != nil {
		return CommandResult{ExitCode: 2, Stderr: err.Error()}, nil
	}

	env := s.Env
	if env == nil {
		env = os.Environ()
	}

	var stdout, stderr bytes.Buffer

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, &stdout, &stderr),
	}

	if s.Dir != "" {
		opts = append(opts, interp.Dir(s.Dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return CommandResult{}, err
	}

	result := CommandResult{}

	err = runner.Run(ctx, prog)
	if err != nil {
		var status interp.ExitStatus
		if !errors.As(err, &status) {
			return CommandResult{}, err
		}

		result.ExitCode = int(status)
	}

	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	return result, nil
}

// SystemShell runs commands through the host shell binary.
type SystemShell struct {
	Shell string // defaults to /bin/sh
	Dir   string
}

// RunCommand implements [CommandRunner].
func (s SystemShell) RunCommand(ctx context.Context, command string) (CommandResult, error) {
	shell := s.Shell
	if shell == "" {
		shell = "/bin/sh"
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Dir = s.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return CommandResult{}, err
		}

		result.ExitCode = exitErr.ExitCode()
	}

	return result, nil
}

// NewCommandRunner returns the runner registered for name: "system" (the
// default) or "virtual".
func NewCommandRunner(name string) CommandRunner {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "virtual":
		return VirtualShell{}
	default:
		return SystemShell{}
	}
}

// CommandRunners lists the accepted runner names.
func CommandRunners() []string { return []string{"system", "virtual"} }

// execResult converts a command outcome into the string seen by scripts.
func execResult(res CommandResult, err error) string {
	switch {
	case err != nil:
		return "Error: " + err.Error()
	case res.ExitCode != 0:
		return "Error: " + res.Stderr
	default:
		return res.Stdout
	}
}
