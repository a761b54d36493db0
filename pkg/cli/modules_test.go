package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestModulesCommand_Text(t *testing.T) {
	root := newProject(t)
	var out bytes.Buffer

	require.NoError(t, newRootCommand(&out).ExecuteArgs([]string{"modules", "--root", root}))

	text := out.String()
	assert.Contains(t, text, "site@1.0.0  "+root+"\n")
	assert.Contains(t, text, "  depends on: theme\n")
	assert.Contains(t, text, "theme@1.1.0")
	assert.Contains(t, text, "The following dependencies were not found:\n  ghost\n")
}

func TestModulesCommand_YAML(t *testing.T) {
	root := newProject(t)
	var out bytes.Buffer

	require.NoError(t, newRootCommand(&out).ExecuteArgs([]string{"modules", "--root", root, "--format", "yaml"}))

	var report graphReport
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &report))
	require.Len(t, report.Modules, 2)
	assert.Equal(t, "site", report.Modules[0].Name)
	assert.True(t, report.Modules[0].Root)
	assert.Equal(t, "theme", report.Modules[1].Name)
	assert.Equal(t, "1.1.0", report.Modules[1].Version)
	require.Len(t, report.Issues.Dependencies.Missing, 1)
	assert.Equal(t, "ghost", report.Issues.Dependencies.Missing[0].Name)
}

func TestModulesCommand_JSON(t *testing.T) {
	root := newProject(t)
	var out bytes.Buffer

	require.NoError(t, newRootCommand(&out).ExecuteArgs([]string{"modules", "--root", root, "--format", "json"}))

	var report graphReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Len(t, report.Modules, 2)
	assert.Equal(t, []string{"theme"}, report.Modules[0].Dependencies)
}

func TestModulesCommand_Errors(t *testing.T) {
	root := newProject(t)

	err := newRootCommand(&bytes.Buffer{}).ExecuteArgs([]string{"modules", "--root", root, "--format", "xml"})
	assert.ErrorContains(t, err, `unknown format "xml"`)

	err = newRootCommand(&bytes.Buffer{}).ExecuteArgs([]string{"modules", "--root", root + "/missing"})
	assert.ErrorContains(t, err, "failed to initialize eyeglass")
}
