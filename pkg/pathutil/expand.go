// Package pathutil resolves the handful of filesystem paths sshdo's
// settings can name: the banner file, the policy file itself, and the
// glob patterns that locate rotated audit logs for learn/unlearn.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading "~" or "~/" in path to the home directory
// of the given user. An empty home leaves the path untouched.
func ExpandHome(path, home string) string {
	if path == "" || home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// ExpandHomeEnv expands "~" using the $HOME environment variable.
func ExpandHomeEnv(path string) string {
	return ExpandHome(path, os.Getenv("HOME"))
}
