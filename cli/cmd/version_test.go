package cmd

import (
	"runtime"
	"strings"
	"testing"

	"github.com/plain-mark/markdown2app/pkg"
)

func TestVersionRun(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		want    []string
	}{
		{"plain", false, []string{pkg.Name + " " + pkg.Version + "\n"}},
		{"verbose", true, []string{pkg.Version, runtime.Version(), runtime.GOOS}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, stdout := newTestEnv("")

			if err := (&Version{Verbose: tt.verbose}).Run(env); err != nil {
				t.Fatal(err)
			}

			for _, want := range tt.want {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("output %q missing %q", stdout.String(), want)
				}
			}
		})
	}
}
