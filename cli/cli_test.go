package cli

import (
	"bytes"
	"context"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/plain-mark/markdown2app/cli/cmd"
	"github.com/plain-mark/markdown2app/pkg"
)

func TestMain(m *testing.M) {
	// Keep configuration and cache directories out of the user's home.
	dir, err := os.MkdirTemp("", "plainmark-cli-*")
	if err != nil {
		panic(err)
	}

	os.Setenv("XDG_CONFIG_HOME", dir)
	os.Setenv("XDG_CACHE_HOME", dir)

	code := m.Run()

	os.RemoveAll(dir)
	os.Exit(code)
}

type testEnv struct {
	*cmd.Env

	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv() testEnv {
	var stdout, stderr bytes.Buffer

	return testEnv{
		Env: &cmd.Env{
			Fs:     afero.NewMemMapFs(),
			Stdin:  strings.NewReader(""),
			Stdout: &stdout,
			Stderr: &stderr,
		},
		stdout: &stdout,
		stderr: &stderr,
	}
}

func TestRewriteArgs(t *testing.T) {
	tests := []struct {
		args []string
		want []string
	}{
		{nil, []string{"--help"}},
		{[]string{"doc.md"}, []string{"doc.md"}},
		{[]string{"--example"}, []string{"example"}},
		{[]string{"--log-level", "debug", "--repl"}, []string{"--log-level", "debug", "repl"}},
		{[]string{"-V"}, []string{"version"}},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			if got := rewriteArgs(tt.args); !slices.Equal(got, tt.want) {
				t.Errorf("rewriteArgs(%q) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestRun_Version(t *testing.T) {
	env := newTestEnv()

	if err := run(context.Background(), env.Env, func(int) {}, "version"); err != nil {
		t.Fatal(err)
	}

	if got, want := env.stdout.String(), pkg.Name+" "+pkg.Version+"\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRun_Document(t *testing.T) {
	env := newTestEnv()

	doc := "# Doc\n\n```plainmark\nlet who = \"world\"\nprint(`hello ${who}`)\n```\n"
	if err := afero.WriteFile(env.Fs, "/doc.md", []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := run(context.Background(), env.Env, func(int) {}, "/doc.md"); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(env.stdout.String(), "hello world") {
		t.Errorf("output = %q", env.stdout.String())
	}
}

func TestRun_Label(t *testing.T) {
	env := newTestEnv()

	doc := "```plainmark\nprint(1)\n```\n\n```mark\nprint(\"custom\")\n```\n"
	if err := afero.WriteFile(env.Fs, "/doc.md", []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	err := run(context.Background(), env.Env, func(int) {}, "--label", "mark", "/doc.md")
	if err != nil {
		t.Fatal(err)
	}

	out := env.stdout.String()
	if !strings.Contains(out, "custom") || slices.Contains(strings.Split(out, "\n"), "1") {
		t.Errorf("label not applied: %q", out)
	}
}

func TestRun_MissingDocument(t *testing.T) {
	env := newTestEnv()

	if err := run(context.Background(), env.Env, func(int) {}, "/absent.md"); err != nil {
		t.Fatal(err)
	}

	if got, want := env.stdout.String(), "Error: File '/absent.md' not found.\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRun_LegacyExample(t *testing.T) {
	env := newTestEnv()

	err := run(context.Background(), env.Env, func(int) {}, "--example", "--output", "/ex.md")
	if err != nil {
		t.Fatal(err)
	}

	ok, err := afero.Exists(env.Fs, "/ex.md")
	if err != nil || !ok {
		t.Fatalf("example not written: %v", err)
	}

	if !strings.Contains(env.stdout.String(), "Created example file: /ex.md") {
		t.Errorf("output = %q", env.stdout.String())
	}

	// Running it again replaces the file.
	err = run(context.Background(), env.Env, func(int) {}, "--example", "--output", "/ex.md")
	if err != nil {
		t.Errorf("second --example: %v", err)
	}
}

func TestRun_Init(t *testing.T) {
	env := newTestEnv()

	if err := run(context.Background(), env.Env, func(int) {}, "init"); err != nil {
		t.Fatal(err)
	}

	data, err := afero.ReadFile(env.Fs, configPath(configYAML))
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"label: plainmark", "shell: system", "log-level: warn"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("config missing %q:\n%s", want, data)
		}
	}

	err = run(context.Background(), env.Env, func(int) {}, "init")
	if err == nil {
		t.Error("init overwrote an existing file without --force")
	}

	if err := run(context.Background(), env.Env, func(int) {}, "init", "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestRun_Help(t *testing.T) {
	env := newTestEnv()
	code := -1

	_ = run(context.Background(), env.Env, func(c int) { code = c })

	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}

	if !strings.Contains(env.stdout.String(), "Usage: "+pkg.Name) {
		t.Errorf("help not printed: %q", env.stdout.String())
	}
}
