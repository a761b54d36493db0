// Package observability provides logging, Prometheus metrics and
// OpenTelemetry tracing for eyeglass.
//
// # Logging
//
// Loggers are plain logrus loggers:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stderr, "text")
//	logger.WithField("module", "widgets").Warn("version mismatch")
//
// Request scoped loggers travel in the context:
//
//	ctx = observability.WithLogger(ctx, logger)
//	observability.FromContext(ctx).Info("compiled")
//
// # Prometheus Metrics
//
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	metrics.ObserveResolution("module", observability.StatusResolved, time.Millisecond)
//
// Every Metrics method is safe on a nil receiver so libraries can record
// unconditionally.
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "eyeglass",
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
package observability
