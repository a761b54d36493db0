package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Jakobo/eyeglass/pkg/descriptor"
	"github.com/Jakobo/eyeglass/pkg/modules"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

// newProject lays out a site depending on the theme module and on the
// uninstalled ghost package
func newProject(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, descriptor.Write(&descriptor.Descriptor{
		Name:         "site",
		Version:      "1.0.0",
		Dependencies: map[string]string{"theme": "^1.0.0", "ghost": "*"},
	}, root))
	writeFile(t, filepath.Join(root, "styles", "main.scss"), "@import \"theme\";\n.main { color: blue; }")
	writeFile(t, filepath.Join(root, "styles", "print.scss"), ".print { display: none; }")

	theme := filepath.Join(root, modules.NodeModules, "theme")
	require.NoError(t, os.MkdirAll(theme, 0755))
	require.NoError(t, descriptor.Write(&descriptor.Descriptor{
		Name:     "theme",
		Version:  "1.1.0",
		Eyeglass: &descriptor.ModuleInfo{SassDir: "sass", Main: "index.scss", AssetsDir: "assets"},
	}, theme))
	writeFile(t, filepath.Join(theme, "sass", "index.scss"), "@import \"theme/buttons\";\n.theme { color: red; }")
	writeFile(t, filepath.Join(theme, "sass", "_buttons.scss"), ".btn { padding: 0; }")
	writeFile(t, filepath.Join(theme, "assets", "logo.png"), "png")
	return root
}
