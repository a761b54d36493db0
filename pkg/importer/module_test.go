package importer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jakobo/eyeglass/pkg/sass"
)

func moduleChain(p *project, strict bool) *Chain {
	return NewChain(Options{},
		NewModuleStage(p.graph, ModuleStageOptions{StrictModuleImports: strict}),
		NewFSStage(nil, nil),
	)
}

func TestModuleStage_ResolvesPartialInModule(t *testing.T) {
	p := newProject(t)
	chain := moduleChain(p, false)

	res, err := chain.Resolve(context.Background(), from(filepath.Join(p.root, "main.scss"), "foo/util"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.foo, "sass", "_util.scss"), res.Path)
	assert.Equal(t, ".util{}", res.Contents)
	assert.Equal(t, "foo/util", res.URI)
}

func TestModuleStage_BareNameImportsEntry(t *testing.T) {
	p := newProject(t)
	chain := moduleChain(p, false)

	res, err := chain.Resolve(context.Background(), from(sass.Stdin, "foo"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.foo, "sass", "index.scss"), res.Path)

	// baz declares no main stylesheet, so its index is used
	res, err = chain.Resolve(context.Background(), from(filepath.Join(p.foo, "sass", "index.scss"), "baz"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.baz, "index.sass"), res.Path)
}

func TestModuleStage_NonModuleNamedInError(t *testing.T) {
	p := newProject(t)
	chain := moduleChain(p, false)

	_, err := chain.Resolve(context.Background(), from(filepath.Join(p.root, "main.scss"), "bar/util"))
	require.Error(t, err)

	var resErr *ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "bar/util", resErr.URI)
	assert.ErrorIs(t, err, ErrModuleNotFound)
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.Contains(t, err.Error(), `no module named "bar"`)
}

func TestModuleStage_MissingDependencyIsTerminal(t *testing.T) {
	p := newProject(t)
	chain := moduleChain(p, false)

	_, err := chain.Resolve(context.Background(), from(sass.Stdin, "ghost/theme"))
	assert.ErrorIs(t, err, ErrModuleNotFound)

	var resErr *ResolutionError
	assert.False(t, errors.As(err, &resErr))
	assert.Contains(t, err.Error(), `"ghost"`)
}

func TestModuleStage_FileMissingInModuleIsTerminal(t *testing.T) {
	p := newProject(t)
	chain := moduleChain(p, false)

	_, err := chain.Resolve(context.Background(), from(sass.Stdin, "foo/nope"))
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.Contains(t, err.Error(), "module foo")

	_, err = chain.Resolve(context.Background(), from(sass.Stdin, "foo/../../secret"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestModuleStage_Ambiguous(t *testing.T) {
	p := newProject(t)
	chain := moduleChain(p, false)

	_, err := chain.Resolve(context.Background(), from(sass.Stdin, "foo/ambiguous"))
	assert.ErrorIs(t, err, ErrAmbiguousImport)
}

func TestModuleStage_StrictImports(t *testing.T) {
	p := newProject(t)
	lenient := moduleChain(p, false)
	strict := moduleChain(p, true)
	mainFile := filepath.Join(p.root, "main.scss")
	fooIndex := filepath.Join(p.foo, "sass", "index.scss")

	// app never declared baz
	_, err := lenient.Resolve(context.Background(), from(mainFile, "baz/colors"))
	assert.NoError(t, err)
	_, err = strict.Resolve(context.Background(), from(mainFile, "baz/colors"))
	assert.ErrorIs(t, err, ErrUndeclaredDependency)

	// foo declares baz and may import itself
	res, err := strict.Resolve(context.Background(), from(fooIndex, "baz/colors"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.baz, "_colors.scss"), res.Path)
	_, err = strict.Resolve(context.Background(), from(fooIndex, "foo/util"))
	assert.NoError(t, err)

	// an explicit context module overrides the importing file
	req := from(mainFile, "baz/colors")
	req.Context.Module = "foo"
	_, err = strict.Resolve(context.Background(), req)
	assert.NoError(t, err)
}

func TestModuleStage_URLRequestsSkipContents(t *testing.T) {
	p := newProject(t)
	chain := moduleChain(p, false)

	req := from(sass.Stdin, "foo/util")
	req.Kind = sass.KindURL
	res, err := chain.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, res.Contents)
	assert.Equal(t, filepath.Join(p.foo, "sass", "_util.scss"), res.Path)
}

func TestModuleStage_Idempotent(t *testing.T) {
	p := newProject(t)
	chain := moduleChain(p, false)

	first, err := chain.Resolve(context.Background(), from(sass.Stdin, "foo/util"))
	require.NoError(t, err)
	second, err := chain.Resolve(context.Background(), from(sass.Stdin, "foo/util"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSplitModuleURI(t *testing.T) {
	tests := []struct {
		uri  string
		name string
		rest string
		ok   bool
	}{
		{"foo", "foo", "", true},
		{"foo/bar/baz", "foo", "bar/baz", true},
		{"@scope/pkg", "@scope/pkg", "", true},
		{"@scope/pkg/util", "@scope/pkg", "util", true},
		{"@scope", "", "", false},
		{"./foo", "", "", false},
		{"../foo", "", "", false},
		{"/abs/foo", "", "", false},
		{"asset:img.png", "", "", false},
		{"theme.scss", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			name, rest, ok := splitModuleURI(tt.uri)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.rest, rest)
		})
	}
}
