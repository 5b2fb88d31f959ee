// Package profile provides optional runtime profiling for plainmark.
//
// Profiling wraps [github.com/pkg/profile] and is compiled in only with the
// pprof build tag:
//
//	go build -tags pprof .
//	plainmark --pprof-mode=cpu run notes.md
//	go tool pprof -http=: ~/.cache/plainmark/pprof/cpu.pprof
//
// Without the tag, [Modes] is empty and [Profiler.Start] returns a no-op.
// With it, the package also imports [net/http/pprof] so a host that serves
// HTTP gets the /debug/pprof/ handlers.
package profile
