package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Jakobo/eyeglass/pkg/descriptor"
	"github.com/Jakobo/eyeglass/pkg/modules"
	"github.com/Jakobo/eyeglass/pkg/sass"
)

// tempDir returns a symlink free temporary directory
func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func writeFile(t *testing.T, path, contents string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func writeDescriptor(t *testing.T, dir string, d descriptor.Descriptor) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, descriptor.Write(&d, dir))
}

// project is an installed package tree:
//
//	app (root)          depends on foo, bar, ghost
//	  foo               module, sass/ holds its stylesheets, depends on baz
//	    baz             module nested below foo
//	  bar               plain package
//	  ghost             not installed
type project struct {
	root  string
	foo   string
	baz   string
	bar   string
	graph *modules.Graph
}

func newProject(t *testing.T) *project {
	t.Helper()
	root := tempDir(t)
	p := &project{
		root: root,
		foo:  filepath.Join(root, modules.NodeModules, "foo"),
		bar:  filepath.Join(root, modules.NodeModules, "bar"),
	}
	p.baz = filepath.Join(p.foo, modules.NodeModules, "baz")

	writeDescriptor(t, root, descriptor.Descriptor{
		Name:         "app",
		Version:      "1.0.0",
		Dependencies: map[string]string{"foo": "^1.0.0", "bar": "*", "ghost": "*"},
	})
	writeFile(t, filepath.Join(root, "main.scss"), `@import "foo";`)
	writeFile(t, filepath.Join(root, "partials", "_button.scss"), ".button{}")

	writeDescriptor(t, p.foo, descriptor.Descriptor{
		Name:         "foo",
		Version:      "1.2.0",
		Dependencies: map[string]string{"baz": "*"},
		Eyeglass:     &descriptor.ModuleInfo{SassDir: "sass", Main: "index.scss"},
	})
	writeFile(t, filepath.Join(p.foo, "sass", "index.scss"), `@import "foo/util";`)
	writeFile(t, filepath.Join(p.foo, "sass", "_util.scss"), ".util{}")
	writeFile(t, filepath.Join(p.foo, "sass", "ambiguous.scss"), "")
	writeFile(t, filepath.Join(p.foo, "sass", "_ambiguous.scss"), "")

	writeDescriptor(t, p.baz, descriptor.Descriptor{
		Name:     "baz",
		Version:  "2.0.0",
		Keywords: []string{descriptor.ModuleKeyword},
	})
	writeFile(t, filepath.Join(p.baz, "_colors.scss"), "$red: red;")
	writeFile(t, filepath.Join(p.baz, "index.sass"), "")

	writeDescriptor(t, p.bar, descriptor.Descriptor{Name: "bar", Version: "1.0.0"})
	writeFile(t, filepath.Join(p.bar, "_util.scss"), ".bar{}")

	graph, err := modules.Build(context.Background(), modules.BuildOptions{Root: root})
	require.NoError(t, err)
	p.graph = graph
	return p
}

// from builds an import request issued by the file at prev
func from(prev, uri string) *sass.Request {
	return &sass.Request{URI: uri, Prev: prev, Kind: sass.KindImport}
}
