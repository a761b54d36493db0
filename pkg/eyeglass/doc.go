// Package eyeglass wires the module graph, the asset registry and the
// import resolution chain into a host compiler's options.
//
// Typical use:
//
//	host := &sass.Options{IncludePaths: []string{"styles"}}
//	eg, err := eyeglass.New(ctx, opts, host, logger)
//	if err != nil {
//		return err
//	}
//	css, err := eg.Compile(ctx, "styles/main.scss")
//
// New installs the resolution chain as host.Importer and registers the
// asset-url and eyeglass-version functions in host.Functions. Functions the
// host already defines are kept.
package eyeglass
