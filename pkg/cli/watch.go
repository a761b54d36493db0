package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Jakobo/eyeglass/pkg/eyeglass"
)

func newWatchCommand(out io.Writer) *Command {
	cmd := &Command{
		Name:        "watch",
		Description: "Recompile an entry stylesheet whenever its sources change",
		Flags:       flag.NewFlagSet("watch", flag.ContinueOnError),
	}
	common := addCommonFlags(cmd.Flags)
	outDir := cmd.Flags.String("out", "", "Output directory (default: stdout)")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		if cmd.Flags.NArg() != 1 {
			return fmt.Errorf("watch takes exactly one entry stylesheet")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		eg, err := common.setup(ctx)
		if err != nil {
			return err
		}
		return runWatch(ctx, eg, cmd.Flags.Arg(0), *outDir, out)
	}
	return cmd
}

// runWatch compiles entry once, then again after every change below the
// watch roots, until ctx ends. Compile errors are reported and watching
// continues. Writes below outDir are ignored.
func runWatch(ctx context.Context, eg *eyeglass.Eyeglass, entry, outDir string, out io.Writer) error {
	w, err := eg.Watch()
	if err != nil {
		return err
	}
	defer w.Close()

	var skip string
	if outDir != "" {
		if skip, err = filepath.Abs(outDir); err != nil {
			return err
		}
	}

	changes := make(chan string, 1)
	w.OnChange(func(path string) {
		if skip != "" && (path == skip || strings.HasPrefix(path, skip+string(filepath.Separator))) {
			return
		}
		select {
		case changes <- path:
		default:
		}
	})

	build := func() {
		if err := compileEntries(ctx, eg, []string{entry}, outDir, out); err != nil {
			eg.Logger().WithError(err).Error("Compilation failed")
		}
	}
	build()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	for {
		select {
		case path := <-changes:
			eg.Logger().Infof("Changed: %s", path)
			build()
		case err := <-done:
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}
