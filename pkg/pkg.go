// Package pkg holds project metadata and the per-user directories shared by
// the command-line tools.
//
//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version embedded at build time.
var Version = strings.TrimSpace(version)

const (
	// Name is the command name. It appears in help text, the fence label of
	// generated documents, and the default config and cache paths.
	Name = "plainmark"
	// Description is a short summary used in help output.
	Description = "Run code blocks embedded in Markdown documents"
)

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the maintainers of the project.
var Author = []AuthorInfo{
	{"Tom Sapletta", "tom@sapletta.com"},
}
