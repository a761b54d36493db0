package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extensions are the stylesheet extensions tried for extensionless imports.
// .css files are only considered when no .scss or .sass file matches.
var Extensions = []string{".scss", ".sass", ".css"}

func isStylesheetExt(ext string) bool {
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// findStylesheet maps an import target to one file. For "dir/name" it
// tries name and _name with each extension, then dir/name/index and
// _index. Several matches at the same step are ambiguous. No match returns
// "" and a nil error.
func findStylesheet(target string) (string, error) {
	dir, base := filepath.Split(target)
	if base == "" {
		return findIndex(target)
	}

	if isStylesheetExt(filepath.Ext(base)) {
		return pickOne(target, existing(target, filepath.Join(dir, "_"+base)))
	}

	if p, err := pickOne(target, existing(variants(dir, base, ".scss", ".sass")...)); p != "" || err != nil {
		return p, err
	}
	if p, err := pickOne(target, existing(variants(dir, base, ".css")...)); p != "" || err != nil {
		return p, err
	}
	return findIndex(target)
}

func findIndex(dir string) (string, error) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", nil
	}
	if p, err := pickOne(dir, existing(variants(dir, "index", ".scss", ".sass")...)); p != "" || err != nil {
		return p, err
	}
	return pickOne(dir, existing(variants(dir, "index", ".css")...))
}

func variants(dir, base string, exts ...string) []string {
	paths := make([]string, 0, len(exts)*2)
	for _, ext := range exts {
		paths = append(paths,
			filepath.Join(dir, base+ext),
			filepath.Join(dir, "_"+base+ext),
		)
	}
	return paths
}

func existing(paths ...string) []string {
	var found []string
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			found = append(found, p)
		}
	}
	return found
}

func pickOne(target string, found []string) (string, error) {
	switch len(found) {
	case 0:
		return "", nil
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%w: %q matches %s", ErrAmbiguousImport, target, strings.Join(found, ", "))
	}
}
