package cli

import (
	"context"
	"flag"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Jakobo/eyeglass/pkg/async"
	"github.com/Jakobo/eyeglass/pkg/eyeglass"
	"github.com/Jakobo/eyeglass/pkg/observability"
	"github.com/Jakobo/eyeglass/pkg/server"
)

func newServeCommand(out io.Writer) *Command {
	cmd := &Command{
		Name:        "serve",
		Description: "Run the development server",
		Flags:       flag.NewFlagSet("serve", flag.ContinueOnError),
	}
	common := addCommonFlags(cmd.Flags)
	addr := cmd.Flags.String("addr", "", "Listen address (default from config)")
	watch := cmd.Flags.Bool("watch", false, "Invalidate cached sources when files change")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		opts, err := common.options()
		if err != nil {
			return err
		}
		if *addr != "" {
			opts.Server.Addr = *addr
		}
		if *watch {
			opts.Watch = true
		}

		ctx := context.Background()
		logger := newLogger(opts)
		async.SetLogger(logger)

		opts.OTel.ServiceVersion = eyeglass.Version
		providers, err := observability.InitOTel(ctx, opts.OTel, logger)
		if err != nil {
			return err
		}
		tp := providers.Tracing()

		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics(registry)
		if providers != nil {
			om, err := observability.NewOTelMetrics(providers.MeterProvider)
			if err != nil {
				return err
			}
			metrics.WithOTel(om)
		}

		eg, err := eyeglass.New(ctx, opts, nil, logger,
			eyeglass.WithMetrics(metrics),
			eyeglass.WithTracerProvider(tp),
		)
		if err != nil {
			return err
		}

		shutdown := []observability.ShutdownFunc{
			func(ctx context.Context) error { return observability.ShutdownOTel(ctx, providers, logger) },
		}
		if opts.Watch {
			w, err := eg.Watch()
			if err != nil {
				return err
			}
			watchCtx, cancel := context.WithCancel(ctx)
			async.SafeGo(watchCtx, 0, "source watcher", w.Run)
			shutdown = append(shutdown, func(context.Context) error {
				cancel()
				return w.Close()
			})
		}

		srv := server.New(eg, server.Options{
			Gatherer:       registry,
			Metrics:        metrics,
			TracerProvider: tp,
			Logger:         logger,
		})
		return srv.ListenAndServe(ctx, opts.Server.Addr, opts.Server.ShutdownTimeout, shutdown...)
	}
	return cmd
}
