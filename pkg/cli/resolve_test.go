package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jakobo/eyeglass/pkg/importer"
)

func TestResolveCommand_ModuleImport(t *testing.T) {
	root := newProject(t)
	var out bytes.Buffer

	require.NoError(t, newRootCommand(&out).ExecuteArgs([]string{
		"resolve", "--root", root, "--from", filepath.Join(root, "styles", "main.scss"), "theme/buttons",
	}))
	assert.Contains(t, out.String(), "path: "+filepath.Join(root, "node_modules", "theme", "sass", "_buttons.scss"))
}

func TestResolveCommand_AssetURL(t *testing.T) {
	root := newProject(t)
	var out bytes.Buffer

	require.NoError(t, newRootCommand(&out).ExecuteArgs([]string{
		"resolve", "--root", root, "--url", "asset:theme/logo.png",
	}))
	assert.Contains(t, out.String(), "path: "+filepath.Join(root, "node_modules", "theme", "assets", "logo.png"))
	assert.Contains(t, out.String(), "url: /theme/logo.png\n")
}

func TestResolveCommand_Unresolved(t *testing.T) {
	root := newProject(t)

	err := newRootCommand(&bytes.Buffer{}).ExecuteArgs([]string{"resolve", "--root", root, "nowhere/thing"})
	var resErr *importer.ResolutionError
	assert.ErrorAs(t, err, &resErr)
}

func TestResolveCommand_RequiresOneURI(t *testing.T) {
	err := newRootCommand(&bytes.Buffer{}).ExecuteArgs([]string{"resolve"})
	assert.EqualError(t, err, "resolve takes exactly one import uri")
}
