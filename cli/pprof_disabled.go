//go:build !pprof

package cli

import (
	"context"

	"github.com/alecthomas/kong"
)

// pprofConfig contributes no flags unless built with the pprof tag.
type pprofConfig struct{}

func (pprofConfig) vars() kong.Vars { return nil }

func (pprofConfig) group() kong.Group {
	return kong.Group{Key: "pprof", Title: "Profiling (pprof)"}
}

func (pprofConfig) start(context.Context) func() { return func() {} }
