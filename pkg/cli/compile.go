package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Jakobo/eyeglass/pkg/async"
	"github.com/Jakobo/eyeglass/pkg/eyeglass"
)

const (
	compileWorkers = 4
	compileTimeout = 2 * time.Minute
)

func newCompileCommand(out io.Writer) *Command {
	cmd := &Command{
		Name:        "compile",
		Description: "Compile entry stylesheets to CSS",
		Flags:       flag.NewFlagSet("compile", flag.ContinueOnError),
	}
	common := addCommonFlags(cmd.Flags)
	outDir := cmd.Flags.String("out", "", "Output directory (default: stdout)")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		entries := cmd.Flags.Args()
		if len(entries) == 0 {
			return fmt.Errorf("compile requires at least one entry stylesheet")
		}

		ctx := context.Background()
		eg, err := common.setup(ctx)
		if err != nil {
			return err
		}
		return compileEntries(ctx, eg, entries, *outDir, out)
	}
	return cmd
}

// compileEntries compiles entries concurrently. Without outDir the CSS is
// written to out in argument order.
func compileEntries(ctx context.Context, eg *eyeglass.Eyeglass, entries []string, outDir string, out io.Writer) error {
	results := make([]string, len(entries))
	indexes := make([]int, len(entries))
	for i := range entries {
		indexes[i] = i
	}

	errs := async.Batch(ctx, indexes, compileWorkers, "compile", compileTimeout, func(ctx context.Context, i int) error {
		css, err := eg.Compile(ctx, entries[i])
		if err != nil {
			return fmt.Errorf("%s: %w", entries[i], err)
		}
		if outDir == "" {
			results[i] = css
			return nil
		}
		return writeCSS(outDir, entries[i], css)
	})
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if outDir == "" {
		for _, css := range results {
			fmt.Fprintln(out, css)
		}
		return nil
	}
	fmt.Fprintf(out, "Compiled %d stylesheet(s) to %s\n", len(entries), outDir)
	return nil
}

// cssName maps "styles/main.scss" to "main.css"
func cssName(entry string) string {
	base := filepath.Base(entry)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".css"
}

func writeCSS(outDir, entry, css string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	target := filepath.Join(outDir, cssName(entry))
	if err := os.WriteFile(target, []byte(css+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return nil
}
