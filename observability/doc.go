// Package observability provides OpenTelemetry tracing and metrics for the
// application startup path.
//
// Telemetry is opt-in: with no endpoint configured, Setup leaves the global
// noop providers in place and every span and instrument is free.
//
//	shutdown, err := observability.Setup(ctx, cfg.Telemetry, "lumison", version.GetVersion())
//	defer shutdown(context.Background())
//
//	ctx, phase := observability.StartPhase(ctx, observability.SpanSetup)
//	err := runSetup(ctx)
//	phase.End(err)
package observability
