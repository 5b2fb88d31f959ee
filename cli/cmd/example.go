package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/plain-mark/markdown2app/lang"
	"github.com/plain-mark/markdown2app/log"
)

// DefaultExample is the file written by the example command.
const DefaultExample = "example.md"

// Example writes a sample document demonstrating the dialect.
type Example struct {
	Output    string `default:"example.md" help:"Path of the generated document."       short:"o" type:"path"`
	NoClobber bool   `help:"Fail instead of replacing an existing file." short:"n"`
}

// Run executes the example command.
func (e *Example) Run(ctx context.Context, env *Env, opts *Interp) error {
	path := e.Output
	if path == "" {
		path = DefaultExample
	}

	label := lang.DefaultLabel
	if opts != nil && opts.Label != "" {
		label = opts.Label
	}

	err := writeFile(env.Fs, path, []byte(ExampleDocument(label)), !e.NoClobber)
	if err != nil {
		return err
	}

	log.DebugContext(ctx, "wrote example", slog.String("path", path))

	fmt.Fprintf(env.Stdout, "Created example file: %s\n", path)

	return nil
}

// writeFile writes data to path, refusing to replace an existing file
// unless force is set.
func writeFile(fsys afero.Fs, path string, data []byte, force bool) error {
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flag |= os.O_EXCL
	}

	f, err := fsys.OpenFile(path, flag, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrWriteFile.
				With(slog.String("file", path)).
				Wrap(ErrFileExists)
		}

		return ErrWriteFile.With(slog.String("file", path)).Wrap(err)
	}

	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return ErrWriteFile.With(slog.String("file", path)).Wrap(err)
	}

	return nil
}

// labelMark stands for the fence label in exampleDocument.
const labelMark = "@label@"

// ExampleDocument returns the sample document with blocks fenced by label.
func ExampleDocument(label string) string {
	return strings.ReplaceAll(exampleDocument, labelMark, label)
}

const exampleDocument = "# Example Plainmark Program\n" +
	"\n" +
	"This document demonstrates code blocks that run when the file is\n" +
	"executed. Text outside the blocks is ignored.\n" +
	"\n" +
	"```" + labelMark + "\n" +
	"// Define variables\n" +
	"let name = \"Plainmark User\"\n" +
	"const age = 30\n" +
	"\n" +
	"// Print a greeting\n" +
	"print(`Hello, ${name}!`)\n" +
	"print(`You are ${age} years old.`)\n" +
	"\n" +
	"// Define a function\n" +
	"function calculateArea(radius) {\n" +
	"  return 3.14159 * radius * radius\n" +
	"}\n" +
	"\n" +
	"// Use the function\n" +
	"let radius = 5\n" +
	"let area = calculateArea(radius)\n" +
	"print(`The area of a circle with radius ${radius} is ${round(area * 100) / 100}`)\n" +
	"```\n" +
	"\n" +
	"Variables and functions defined above are visible in later blocks.\n" +
	"\n" +
	"```js " + labelMark + "\n" +
	"for (let i of 1..3) {\n" +
	"  if (i % 2 == 0) {\n" +
	"    print(`${i} is even`)\n" +
	"  } else {\n" +
	"    print(`${i} is odd`)\n" +
	"  }\n" +
	"}\n" +
	"\n" +
	"// Get user input\n" +
	"let color = input(\"Enter your favorite color: \")\n" +
	"print(`Your favorite color is ${color}`)\n" +
	"\n" +
	"// Run a shell command\n" +
	"print(\"Files in current directory:\")\n" +
	"print(exec(\"ls\"))\n" +
	"```\n" +
	"\n" +
	"This was a demonstration of Plainmark's basic features.\n"
