package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/spf13/afero"
)

const testConfigPath = "/config/config.yaml"

type initCLI struct {
	Interp Interp `embed:""`
	Hidden string `hidden:""`
	Count  int    `default:"3"`

	Init Init `cmd:""`
}

func parseInit(t *testing.T, args ...string) (*initCLI, context.Context) {
	t.Helper()

	var cli initCLI

	parser, err := kong.New(&cli,
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
		kong.Vars{ConfigIdentifier: testConfigPath}.CloneWith(cli.Interp.Vars()),
	)
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(append([]string{"init"}, args...))
	if err != nil {
		t.Fatal(err)
	}

	return &cli, WithContext(context.Background(), ktx)
}

func TestInitRun(t *testing.T) {
	env, stdout := newTestEnv("")

	cli, ctx := parseInit(t, "--label", "doc", "--echo")

	if err := cli.Init.Run(ctx, env); err != nil {
		t.Fatal(err)
	}

	data, err := afero.ReadFile(env.Fs, testConfigPath)
	if err != nil {
		t.Fatal(err)
	}

	want := "label: doc\nshell: system\necho: true\ncount: 3\n"
	if string(data) != want {
		t.Errorf("config =\n%s\nwant\n%s", data, want)
	}

	if !strings.Contains(stdout.String(), "Created configuration file: "+testConfigPath) {
		t.Errorf("output = %q", stdout.String())
	}
}

func TestInitRun_Exists(t *testing.T) {
	env, _ := newTestEnv("")

	if err := afero.WriteFile(env.Fs, testConfigPath, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	cli, ctx := parseInit(t)

	err := cli.Init.Run(ctx, env)
	if !errors.Is(err, ErrWriteConfig) || !errors.Is(err, ErrFileExists) {
		t.Errorf("error = %v, want %v", err, ErrFileExists)
	}

	cli, ctx = parseInit(t, "--force")

	if err := cli.Init.Run(ctx, env); err != nil {
		t.Fatal(err)
	}

	data, _ := afero.ReadFile(env.Fs, testConfigPath)
	if string(data) == "old" {
		t.Error("--force did not overwrite")
	}
}

func TestYAMLValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"empty string", "", nil},
		{"string", "x", "x"},
		{"bool", false, false},
		{"int", 7, int64(7)},
		{"uint", uint8(7), uint64(7)},
		{"float", 1.5, 1.5},
		{"duration", 200 * time.Millisecond, "200ms"},
		{"empty slice", []string{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := yamlValue(tt.in); got != tt.want {
				t.Errorf("yamlValue(%#v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}

	list, ok := yamlValue([]string{"a", "b"}).([]any)
	if !ok || len(list) != 2 || list[1] != "b" {
		t.Errorf("yamlValue(slice) = %#v", list)
	}
}
