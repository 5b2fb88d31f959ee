package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/plain-mark/markdown2app/lang"
	"github.com/plain-mark/markdown2app/log"
)

// Run executes the dialect blocks of one or more Markdown documents.
type Run struct {
	Paths    []string      `arg:"" help:"Markdown documents or doublestar patterns (e.g. docs/**/*.md)." name:"path"`
	Watch    bool          `help:"Re-run a document whenever it changes."                              short:"w"`
	Debounce time.Duration `default:"200ms" help:"Quiet period before a changed document is re-run."`
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context, env *Env, opts *Interp) error {
	paths, err := expand(env.Fs, r.Paths)
	if err != nil {
		return err
	}

	for _, path := range paths {
		r.execute(ctx, env, opts, path, len(paths) > 1)
	}

	if !r.Watch {
		return nil
	}

	w, err := newWatcher(paths, r.Debounce)
	if err != nil {
		return ErrWatch.Wrap(err)
	}

	log.InfoContext(ctx, "watching documents", slog.Int("count", len(paths)))

	return w.run(ctx, func(ctx context.Context, changed []string) {
		// Edited blocks would otherwise accumulate across cycles.
		lang.ClearCache()

		for _, path := range changed {
			r.execute(ctx, env, opts, path, true)
		}
	})
}

// execute runs one document with a fresh interpreter and prints its result.
func (r *Run) execute(
	ctx context.Context,
	env *Env,
	opts *Interp,
	path string,
	header bool,
) {
	log.DebugContext(ctx, "run document", slog.String("path", path))

	if header {
		fmt.Fprintf(env.Stdout, "==> %s <==\n", path)
	}

	fmt.Fprintln(env.Stdout, opts.New(env).ExecuteFile(ctx, path))
}

// expand replaces each doublestar pattern with the files it matches, in
// lexical order. Plain paths and patterns without matches are kept as
// given, so the interpreter reports them as not found.
func expand(fsys afero.Fs, patterns []string) ([]string, error) {
	var out []string

	for _, p := range patterns {
		if !strings.ContainsAny(p, "*?[{") {
			out = append(out, p)

			continue
		}

		base, pattern := doublestar.SplitPattern(filepath.ToSlash(p))

		matches, err := doublestar.Glob(
			afero.NewIOFS(afero.NewBasePathFs(fsys, filepath.FromSlash(base))),
			pattern,
			doublestar.WithFilesOnly(),
		)
		if err != nil {
			return nil, ErrGlob.With(slog.String("pattern", p)).Wrap(err)
		}

		if len(matches) == 0 {
			out = append(out, p)

			continue
		}

		for _, m := range matches {
			out = append(out, filepath.Join(filepath.FromSlash(base), filepath.FromSlash(m)))
		}
	}

	return out, nil
}
