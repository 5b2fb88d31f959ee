// Package cmd implements the plainmark subcommands.
//
// Each command is a kong node with a Run method. Commands receive the
// process resources as an [Env] and the interpreter flags as an [Interp],
// both bound by the caller, so tests run them against an in-memory
// filesystem and buffers.
package cmd

var (
	// CacheIdentifier is the kong variable holding the cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable holding the path of the YAML
	// configuration file written by [Init].
	ConfigIdentifier = "config"

	// HistoryIdentifier is the kong variable holding the default REPL
	// history file.
	HistoryIdentifier = "historyFile"
)
