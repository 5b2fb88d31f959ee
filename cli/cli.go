package cli

import (
	"context"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/plain-mark/markdown2app/cli/cmd"
	"github.com/plain-mark/markdown2app/cli/cmd/repl"
	"github.com/plain-mark/markdown2app/pkg"
)

// CLI is the top-level command-line interface for plainmark.
type CLI struct {
	Log    logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof  pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`
	Interp cmd.Interp  `embed:""`

	Run     cmd.Run     `cmd:"" default:"withargs" help:"Execute the code blocks of Markdown documents"`
	Example cmd.Example `cmd:""                    help:"Write an example document"`
	Repl    cmd.Repl    `cmd:""                    help:"Start an interactive session"`
	Init    cmd.Init    `cmd:""                    help:"Initialize configuration file"`
	Version cmd.Version `cmd:""                    help:"Print version information"`
}

// legacyFlags maps the flag spellings of earlier releases to subcommands.
var legacyFlags = map[string]string{
	"--example": "example",
	"--repl":    "repl",
	"--version": "version",
	"-V":        "version",
}

// rewriteArgs translates legacy flags to subcommands. Without arguments the
// usage is printed.
func rewriteArgs(args []string) []string {
	if len(args) == 0 {
		return []string{"--help"}
	}

	out := make([]string, len(args))

	for i, arg := range args {
		if sub, ok := legacyFlags[arg]; ok {
			out[i] = sub
		} else {
			out[i] = arg
		}
	}

	return out
}

// Run executes the plainmark CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	return run(ctx, cmd.OSEnv(), exit, args...)
}

func run(
	ctx context.Context,
	env *cmd.Env,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := ensureUserDirs()
	if err != nil {
		return err
	}

	args = rewriteArgs(args)

	vars := kong.Vars{
		cmd.ConfigIdentifier:  configPath(configYAML),
		cmd.CacheIdentifier:   pkg.CacheDir(),
		cmd.HistoryIdentifier: filepath.Join(pkg.CacheDir(), repl.HistoryFile),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars()).
		CloneWith(cli.Interp.Vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless of
	// flag position. TextUnmarshaler on logFormat/logLevel handles those flags
	// during normal parsing, but this early scan also catches boolean flags
	// like --log-pretty.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.Writers(env.Stdout, env.Stderr),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.Bind(env, &cli.Interp),
		// The provider runs when a command is invoked, after ctx carries the
		// parsed kong context.
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configPath(configJSON)),
		kong.Configuration(resolveYAML, configPath(configYAML)),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	cli.Log.start(ctx)

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run()
}
