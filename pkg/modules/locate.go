package modules

import (
	"os"
	"path/filepath"
)

// NodeModules is the directory installed packages live in
const NodeModules = "node_modules"

// Locate finds the installed directory of package name as seen from dir:
// dir/node_modules/name, then the same below every ancestor of dir. The
// returned path has symlinks evaluated so one package has one location.
func Locate(dir, name string) (string, bool) {
	current := filepath.Clean(dir)
	for {
		candidate := filepath.Join(current, NodeModules, filepath.FromSlash(name))
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return canonical(candidate), true
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}
