package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/Jakobo/eyeglass/pkg/sass"
)

func newResolveCommand(out io.Writer) *Command {
	cmd := &Command{
		Name:        "resolve",
		Description: "Show the file an import resolves to",
		Flags:       flag.NewFlagSet("resolve", flag.ContinueOnError),
	}
	common := addCommonFlags(cmd.Flags)
	from := cmd.Flags.String("from", "", "Stylesheet issuing the import (default: stdin)")
	urlOnly := cmd.Flags.Bool("url", false, "Resolve a URL reference instead of an import")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		if cmd.Flags.NArg() != 1 {
			return fmt.Errorf("resolve takes exactly one import uri")
		}

		ctx := context.Background()
		eg, err := common.setup(ctx)
		if err != nil {
			return err
		}

		req := &sass.Request{URI: cmd.Flags.Arg(0), Prev: sass.Stdin, Kind: sass.KindImport}
		if *from != "" {
			if req.Prev, err = filepath.Abs(*from); err != nil {
				return err
			}
		}
		if *urlOnly {
			req.Kind = sass.KindURL
		}

		res, err := eg.Importer().Resolve(ctx, req)
		if err != nil {
			return err
		}
		if res.Path != "" {
			fmt.Fprintf(out, "path: %s\n", res.Path)
		}
		if res.URI != "" && res.URI != req.URI {
			fmt.Fprintf(out, "url: %s\n", res.URI)
		}
		if res.Path == "" && res.Contents != "" {
			fmt.Fprintf(out, "contents:\n%s\n", res.Contents)
		}
		return nil
	}
	return cmd
}
