package cli

import (
	"os"
	"path/filepath"

	"github.com/plain-mark/markdown2app/pkg"
)

// Configuration is read from config.json and config.yaml, in that order, in
// the user's configuration directory. Init writes the YAML form.
const (
	configJSON = "config.json"
	configYAML = "config.yaml"
)

// userDirMode restricts created directories to their owner.
const userDirMode os.FileMode = 0o700

// configPath joins name onto the configuration directory.
func configPath(name string) string {
	return filepath.Join(pkg.ConfigDir(), name)
}

// ensureUserDirs creates the configuration and cache directories if they do
// not yet exist.
func ensureUserDirs() error {
	if err := os.MkdirAll(pkg.ConfigDir(), userDirMode); err != nil {
		return err
	}

	return os.MkdirAll(pkg.CacheDir(), userDirMode)
}
