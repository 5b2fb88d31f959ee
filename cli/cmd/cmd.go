package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/spf13/afero"

	"github.com/plain-mark/markdown2app/lang"
	"github.com/plain-mark/markdown2app/log"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok {
		return nil
	}

	return ktx
}

// Env holds the process resources commands act on. Commands receive it as
// a kong binding so tests can substitute an in-memory filesystem and
// buffers.
type Env struct {
	Fs     afero.Fs
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// OSEnv returns the Env of the running process.
func OSEnv() *Env {
	return &Env{
		Fs:     afero.NewOsFs(),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Interp holds the global flags that configure every interpreter.
type Interp struct {
	Label string `default:"${labelDefault}" help:"Fence label selecting code blocks." short:"l"`
	Shell string `default:"system" enum:"${shellEnum}" help:"Runner behind exec(): ${enum}."`
	Echo  bool   `help:"Write printed lines to stdout as they are produced."`
}

// Vars returns the kong variables referenced by the Interp flags.
func (Interp) Vars() kong.Vars {
	return kong.Vars{
		"labelDefault": lang.DefaultLabel,
		"shellEnum":    strings.Join(lang.CommandRunners(), ","),
	}
}

// New returns an interpreter configured by the flags, reading and writing
// through env.
func (o *Interp) New(env *Env, opts ...lang.Option) *lang.Interpreter {
	if o == nil {
		o = &Interp{}
	}

	logger := log.Default().With(slog.String("shell", o.shell()))

	return lang.New(append([]lang.Option{
		lang.WithLogger(logger),
		lang.WithLabel(o.Label),
		lang.WithCommandRunner(lang.NewCommandRunner(o.shell())),
		lang.WithEcho(o.Echo),
		lang.WithFs(env.Fs),
		lang.WithStdin(env.Stdin),
		lang.WithStdout(env.Stdout),
	}, opts...)...)
}

func (o *Interp) shell() string {
	if o.Shell == "" {
		return lang.CommandRunners()[0]
	}

	return o.Shell
}
