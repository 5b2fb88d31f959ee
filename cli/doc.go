// Package cli contains the command line interface for plainmark.
//
// # Usage
//
//	plainmark [flags] <path> ...      run the code blocks of documents
//	plainmark example [-o file.md]    write an example document
//	plainmark repl                    start an interactive session
//	plainmark init                    write the configuration file
//	plainmark version                 print the version
//
// Running documents is the default command. A path may be a doublestar
// pattern, such as docs/**/*.md. The spellings --example and --repl of
// earlier releases are accepted for the example and repl commands.
//
// # Configuration
//
// Flags may be set in config.yaml or config.json in the user configuration
// directory (see [pkg.ConfigDir]). Keys are flag names; YAML files may nest
// prefixed flags:
//
//	label: plainmark
//	shell: system
//	log:
//	  level: debug
//
// Command-line flags override the configuration files. The init command
// writes the current flag values to config.yaml.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, none, ...)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o plainmark .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory
package cli
