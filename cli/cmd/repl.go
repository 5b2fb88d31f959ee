package cmd

import (
	"context"
	"path/filepath"

	"github.com/plain-mark/markdown2app/cli/cmd/repl"
)

// Repl starts an interactive session.
type Repl struct {
	History string `default:"${historyFile}" help:"History file." type:"path"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context, env *Env, opts *Interp) error {
	ktx := kongContextFrom(ctx)

	history := r.History
	if history == "" && ktx != nil {
		history = filepath.Join(ktx.Model.Vars()[CacheIdentifier], repl.HistoryFile)
	}

	return repl.Run(ctx, repl.Config{
		Interpreter: opts.New(env),
		History:     history,
		Stdin:       env.Stdin,
		Stdout:      env.Stdout,
	})
}
