package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Phase is a traced step of the startup sequence.
type Phase struct {
	Name      string
	StartTime time.Time
	span      trace.Span
}

// StartPhase starts a span for a startup phase.
func StartPhase(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *Phase) {
	ctx, span := StartSpan(ctx, name, trace.WithAttributes(attrs...))
	return ctx, &Phase{Name: name, StartTime: time.Now(), span: span}
}

// End ends the span, marking it failed when err is non-nil.
func (p *Phase) End(err error) {
	status := "ok"
	if err != nil {
		status = "error"
		p.span.RecordError(err)
		p.span.SetStatus(codes.Error, err.Error())
		p.span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	p.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, p.Duration().Milliseconds()),
	)
	p.span.End()
}

// Duration returns the elapsed time since the phase started.
func (p *Phase) Duration() time.Duration {
	return time.Since(p.StartTime)
}

// Span returns the underlying span.
func (p *Phase) Span() trace.Span {
	return p.span
}
