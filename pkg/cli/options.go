package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Jakobo/eyeglass/pkg/config"
	"github.com/Jakobo/eyeglass/pkg/eyeglass"
	"github.com/Jakobo/eyeglass/pkg/observability"
)

// listFlag collects a repeatable string flag
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// commonFlags are the options every command accepts
type commonFlags struct {
	fs         *flag.FlagSet
	configFile string
	root       string
	include    listFlag
	strict     bool
	importOnce bool
	logLevel   string
	logFormat  string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{fs: fs}
	fs.StringVar(&c.configFile, "config", "", "YAML configuration file")
	fs.StringVar(&c.root, "root", "", "Project root containing package.json")
	fs.Var(&c.include, "include", "Include path for imports (repeatable)")
	fs.BoolVar(&c.strict, "strict", false, "Only allow imports of declared module dependencies")
	fs.BoolVar(&c.importOnce, "import-once", false, "Inline each stylesheet at most once")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&c.logFormat, "log-format", "", "Log format: text or json")
	return c
}

// options layers defaults, the config file, the environment and the flags
// that were set explicitly
func (c *commonFlags) options() (*config.Options, error) {
	opts := config.Defaults()
	if c.configFile != "" {
		loaded, err := config.LoadFile(c.configFile)
		if err != nil {
			return nil, err
		}
		opts = loaded
	}
	opts.ApplyEnv()

	c.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "root":
			opts.Root = c.root
		case "include":
			opts.IncludePaths = append(opts.IncludePaths, c.include...)
		case "strict":
			opts.StrictModuleImports = c.strict
		case "import-once":
			opts.EnableImportOnce = c.importOnce
		case "log-level":
			opts.Log.Level = c.logLevel
		case "log-format":
			opts.Log.Format = c.logFormat
		}
	})
	return opts, nil
}

func newLogger(opts *config.Options) *logrus.Logger {
	return observability.NewLogger(observability.ParseLogLevel(opts.Log.Level), os.Stderr, opts.Log.Format)
}

// setup loads options and builds an eyeglass instance
func (c *commonFlags) setup(ctx context.Context, extra ...eyeglass.Option) (*eyeglass.Eyeglass, error) {
	opts, err := c.options()
	if err != nil {
		return nil, err
	}
	eg, err := eyeglass.New(ctx, opts, nil, newLogger(opts), extra...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize eyeglass: %w", err)
	}
	return eg, nil
}
