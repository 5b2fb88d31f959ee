package cmd

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestExpand(t *testing.T) {
	fsys := afero.NewMemMapFs()

	for _, name := range []string{"/docs/a.md", "/docs/sub/b.md", "/docs/c.txt"} {
		if err := afero.WriteFile(fsys, name, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{
			name:     "plain",
			patterns: []string{"/plain.md", "/docs/c.txt"},
			want:     []string{"/plain.md", "/docs/c.txt"},
		},
		{
			name:     "doublestar",
			patterns: []string{"/docs/**/*.md"},
			want:     []string{"/docs/a.md", "/docs/sub/b.md"},
		},
		{
			name:     "single level",
			patterns: []string{"/docs/*.md"},
			want:     []string{"/docs/a.md"},
		},
		{
			name:     "no match kept",
			patterns: []string{"/none/*.md"},
			want:     []string{"/none/*.md"},
		},
		{
			name:     "alternatives",
			patterns: []string{"/docs/{a.md,c.txt}"},
			want:     []string{"/docs/a.md", "/docs/c.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expand(fsys, tt.patterns)
			if err != nil {
				t.Fatal(err)
			}

			if !slices.Equal(got, tt.want) {
				t.Errorf("expand(%q) = %q, want %q", tt.patterns, got, tt.want)
			}
		})
	}
}

func TestExpand_BadPattern(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := fsys.MkdirAll("/docs", 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := expand(fsys, []string{"/docs/[a.md"})
	if !errors.Is(err, ErrGlob) {
		t.Errorf("error = %v, want %v", err, ErrGlob)
	}
}

func TestRun_SingleDocument(t *testing.T) {
	env, stdout := newTestEnv("")

	doc := "# Title\n\n```plainmark\nprint(1 + 2)\n```\n"
	if err := afero.WriteFile(env.Fs, "/a.md", []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	r := &Run{Paths: []string{"/a.md"}}
	if err := r.Run(context.Background(), env, testInterp()); err != nil {
		t.Fatal(err)
	}

	out := stdout.String()
	if strings.Contains(out, "==>") {
		t.Errorf("header printed for a single document: %q", out)
	}

	if !slices.Contains(strings.Split(out, "\n"), "3") {
		t.Errorf("output = %q", out)
	}
}

func TestRun_DocumentsAreIsolated(t *testing.T) {
	env, stdout := newTestEnv("")

	files := map[string]string{
		"/a.md": "```plainmark\nlet shared = 1\nprint(\"a ran\")\n```\n",
		"/b.md": "```plainmark\nprint(shared)\n```\n",
	}

	for name, doc := range files {
		if err := afero.WriteFile(env.Fs, name, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	r := &Run{Paths: []string{"/a.md", "/b.md", "/missing.md"}}
	if err := r.Run(context.Background(), env, testInterp()); err != nil {
		t.Fatal(err)
	}

	out := stdout.String()

	for _, want := range []string{
		"==> /a.md <==",
		"a ran",
		"==> /b.md <==",
		"==> /missing.md <==",
		"Error: File '/missing.md' not found.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	_, b, _ := strings.Cut(out, "==> /b.md <==")
	b, _, _ = strings.Cut(b, "==> /missing.md <==")

	if !strings.Contains(b, "Error") {
		t.Errorf("second document saw the first document's bindings:\n%s", b)
	}
}

func TestRun_Echo(t *testing.T) {
	env, stdout := newTestEnv("")

	doc := "```plainmark\nprint(\"live\")\n```\n"
	if err := afero.WriteFile(env.Fs, "/a.md", []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := testInterp()
	opts.Echo = true

	r := &Run{Paths: []string{"/a.md"}}
	if err := r.Run(context.Background(), env, opts); err != nil {
		t.Fatal(err)
	}

	if n := strings.Count(stdout.String(), "live\n"); n != 2 {
		t.Errorf("echoed line appears %d times, want 2:\n%s", n, stdout.String())
	}
}
