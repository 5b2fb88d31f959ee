package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/plain-mark/markdown2app/log"
	"github.com/plain-mark/markdown2app/profile"
)

// Init writes the current global flag values to the YAML configuration file.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context, env *Env) error {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		panic("internal error: kong context undefined")
	}

	path, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	data, err := yaml.Marshal(flagValues(ktx))
	if err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	err = writeFile(env.Fs, path, data, i.Force)
	if err != nil {
		return ErrWriteConfig.With(slog.String("file", path)).Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file",
		slog.String("path", path))

	fmt.Fprintf(env.Stdout, "Created configuration file: %s\n", path)

	return nil
}

// flagValues returns the application-level flags and their parsed values in
// declaration order. Help, profiling, and unset flags are skipped.
func flagValues(ktx *kong.Context) yaml.MapSlice {
	var out yaml.MapSlice

	skip := []string{"help", profile.Tag}

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(skip, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		if v := yamlValue(ktx.FlagValue(flag)); v != nil {
			out = append(out, yaml.MapItem{Key: flag.Name, Value: v})
		}
	}

	return out
}

// yamlValue converts a flag value to a plain YAML scalar or list. Empty
// strings and lists yield nil.
func yamlValue(v any) any {
	if v == nil {
		return nil
	}

	if d, ok := v.(time.Duration); ok {
		return d.String()
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.String:
		if rv.Len() == 0 {
			return nil
		}

		return rv.String()

	case reflect.Bool:
		return rv.Bool()

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()

	case reflect.Float32, reflect.Float64:
		return rv.Float()

	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return nil
		}

		out := make([]any, 0, rv.Len())
		for i := range rv.Len() {
			out = append(out, yamlValue(rv.Index(i).Interface()))
		}

		return out

	default:
		return fmt.Sprint(v)
	}
}
