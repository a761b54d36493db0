package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Jakobo/eyeglass/pkg/eyeglass"
	"github.com/Jakobo/eyeglass/pkg/sass"
)

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// NewRootCommand creates the root command writing to stdout
func NewRootCommand() *Command {
	return newRootCommand(os.Stdout)
}

func newRootCommand(out io.Writer) *Command {
	root := &Command{
		Name:        "eyeglass",
		Description: "eyeglass - stylesheet modules and import resolution",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("eyeglass", flag.ContinueOnError),
	}
	root.Run = func(args []string) error { return root.usage(out) }

	for _, cmd := range []*Command{
		newModulesCommand(out),
		newResolveCommand(out),
		newCompileCommand(out),
		newWatchCommand(out),
		newServeCommand(out),
		newVersionCommand(out),
	} {
		root.Subcommands[cmd.Name] = cmd
	}
	return root
}

// Execute runs the command with the process arguments
func (c *Command) Execute() error {
	return c.ExecuteArgs(os.Args[1:])
}

// ExecuteArgs runs the subcommand named by args[0]
func (c *Command) ExecuteArgs(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		return c.Run(nil)
	}
	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}
	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage
func (c *Command) usage(out io.Writer) error {
	fmt.Fprintf(out, "Usage: %s <command> [args]\n\n", c.Name)
	fmt.Fprintf(out, "Commands:\n")
	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-15s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}

func newVersionCommand(out io.Writer) *Command {
	cmd := &Command{
		Name:        "version",
		Description: "Print the eyeglass and bundled engine versions",
		Flags:       flag.NewFlagSet("version", flag.ContinueOnError),
	}
	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		fmt.Fprintf(out, "eyeglass %s (%s %s)\n", eyeglass.Version, sass.BundlerName, sass.BundlerVersion)
		return nil
	}
	return cmd
}
