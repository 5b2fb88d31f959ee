package cmd

import (
	"bytes"
	"context"
	"strings"

	"github.com/spf13/afero"

	"github.com/plain-mark/markdown2app/lang"
)

// stubRunner answers every command with a fixed result.
type stubRunner struct {
	result lang.CommandResult
	seen   []string
}

func (s *stubRunner) RunCommand(_ context.Context, command string) (lang.CommandResult, error) {
	s.seen = append(s.seen, command)

	return s.result, nil
}

func newTestEnv(stdin string) (*Env, *bytes.Buffer) {
	var stdout bytes.Buffer

	return &Env{
		Fs:     afero.NewMemMapFs(),
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &bytes.Buffer{},
	}, &stdout
}

func testInterp() *Interp {
	return &Interp{Label: lang.DefaultLabel, Shell: "virtual"}
}
