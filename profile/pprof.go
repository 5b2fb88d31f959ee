//go:build pprof

package profile

import (
	"maps"
	"slices"

	"github.com/pkg/profile"

	_ "net/http/pprof" // /debug/pprof/ handlers
)

// byMode selects what pkg/profile records for each [Profiler.Mode].
var byMode = map[string]func(*profile.Profile){
	"cpu":       profile.CPUProfile,
	"mem":       profile.MemProfile,
	"heap":      profile.MemProfileHeap,
	"allocs":    profile.MemProfileAllocs,
	"block":     profile.BlockProfile,
	"mutex":     profile.MutexProfile,
	"clock":     profile.ClockProfile,
	"goroutine": profile.GoroutineProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
}

// Modes lists the accepted [Profiler.Mode] values, sorted.
func Modes() []string { return slices.Sorted(maps.Keys(byMode)) }

// options translates p into pkg/profile settings. It reports false when
// p.Mode is not recognized.
func (p Profiler) options() ([]func(*profile.Profile), bool) {
	mode, ok := byMode[p.Mode]
	if !ok {
		return nil, false
	}

	// The signal handler installed by default would race our own shutdown.
	opts := []func(*profile.Profile){mode, profile.NoShutdownHook}

	if p.Path != "" {
		opts = append(opts, profile.ProfilePath(p.Path))
	}

	if p.Quiet {
		opts = append(opts, profile.Quiet)
	}

	return opts, true
}

func start(p Profiler) Stopper {
	opts, ok := p.options()
	if !ok {
		return ignore{}
	}

	return profile.Start(opts...)
}
