package profile

import "log/slog"

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`

// Profiler describes one profiling session.
type Profiler struct {
	Mode  string // one of [Modes]; empty disables profiling
	Path  string // output directory
	Quiet bool   // suppress pkg/profile's own log lines
}

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Start begins profiling. It returns a no-op Stopper when the binary was
// built without the pprof tag, when Mode is empty, or when Mode is unknown.
// Stop is always safe to call.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

// LogValue reports the session settings.
func (p Profiler) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("mode", p.Mode),
		slog.String("dir", p.Path),
	)
}

type ignore struct{}

func (ignore) Stop() {}
