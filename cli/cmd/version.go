package cmd

import (
	"fmt"
	"runtime"

	"github.com/plain-mark/markdown2app/pkg"
)

// Version prints the embedded version.
type Version struct {
	Verbose bool `help:"Include the Go toolchain and platform." short:"v"`
}

// Run executes the version command.
func (v *Version) Run(env *Env) error {
	if v.Verbose {
		fmt.Fprintf(env.Stdout, "%s %s (%s %s/%s)\n",
			pkg.Name, pkg.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)

		return nil
	}

	fmt.Fprintf(env.Stdout, "%s %s\n", pkg.Name, pkg.Version)

	return nil
}
