package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Jakobo/eyeglass/pkg/eyeglass"
	"github.com/Jakobo/eyeglass/pkg/modules"
)

type moduleReport struct {
	Name         string   `json:"name" yaml:"name"`
	Version      string   `json:"version,omitempty" yaml:"version,omitempty"`
	Dir          string   `json:"dir" yaml:"dir"`
	Root         bool     `json:"root,omitempty" yaml:"root,omitempty"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

type graphReport struct {
	Modules []moduleReport `json:"modules" yaml:"modules"`
	Issues  modules.Issues `json:"issues" yaml:"issues"`
}

func newModulesCommand(out io.Writer) *Command {
	cmd := &Command{
		Name:        "modules",
		Description: "Print the module graph and any dependency issues",
		Flags:       flag.NewFlagSet("modules", flag.ContinueOnError),
	}
	common := addCommonFlags(cmd.Flags)
	format := cmd.Flags.String("format", "text", "Output format: text, yaml or json")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		eg, err := common.setup(context.Background())
		if err != nil {
			return err
		}
		return printGraph(out, eg, *format)
	}
	return cmd
}

func printGraph(out io.Writer, eg *eyeglass.Eyeglass, format string) error {
	graph := eg.Modules()
	report := graphReport{Issues: graph.Issues}
	for _, n := range graph.Nodes() {
		report.Modules = append(report.Modules, moduleReport{
			Name:         n.Name,
			Version:      n.VersionString(),
			Dir:          n.Dir,
			Root:         n.IsRoot,
			Dependencies: n.DependencyNames(),
		})
	}

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode graph: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "text":
	default:
		return fmt.Errorf("unknown format %q (want text, yaml or json)", format)
	}

	for _, m := range report.Modules {
		version := m.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(out, "%s@%s  %s\n", m.Name, version, m.Dir)
		if len(m.Dependencies) > 0 {
			fmt.Fprintf(out, "  depends on: %s\n", strings.Join(m.Dependencies, ", "))
		}
	}
	if warning := eyeglass.MissingDependenciesWarning(&graph.Issues); warning != "" {
		fmt.Fprintf(out, "\n%s\n", warning)
	}
	for _, w := range graph.Issues.Warnings() {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	return nil
}
