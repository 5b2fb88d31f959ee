//go:build pprof

package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/plain-mark/markdown2app/log"
	"github.com/plain-mark/markdown2app/pkg"
	"github.com/plain-mark/markdown2app/profile"
)

type pprofConfig struct {
	Mode string `default:""               enum:",${profileModes}" help:"Profile the run with the given mode" placeholder:"${enum}" short:"p"`
	Dir  string `default:"${profileDir}"                          help:"Directory receiving profile output"                      type:"path"`
}

func (pprofConfig) vars() kong.Vars {
	return kong.Vars{
		"profileModes": strings.Join(profile.Modes(), ","),
		"profileDir":   filepath.Join(pkg.CacheDir(), profile.Tag),
	}
}

func (pprofConfig) group() kong.Group {
	return kong.Group{Key: "pprof", Title: "Profiling (pprof)"}
}

// start begins a profiling session when a mode was selected. The returned
// func flushes it.
func (f pprofConfig) start(ctx context.Context) (stop func()) {
	if f.Mode == "" {
		return func() {}
	}

	p := profile.Profiler{Mode: f.Mode, Path: f.Dir, Quiet: true}
	s := p.Start()

	log.DebugContext(ctx, "profiling", slog.Any("session", p))

	return func() {
		s.Stop()
		log.DebugContext(ctx, "profile written", slog.Any("session", p))
	}
}
