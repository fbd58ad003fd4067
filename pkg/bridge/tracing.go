package bridge

import (
	"context"

	"github.com/vango-dev/renderbridge/pkg/protocol"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for channel spans.
const defaultTracerName = "renderbridge"

func defaultTracer() trace.Tracer {
	return otel.Tracer(defaultTracerName)
}

// startSpan opens a span for one channel operation.
func (c *Channel) startSpan(ctx context.Context, op protocol.Op, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.Int64("renderbridge.instance_id", c.instanceID),
		attribute.String("renderbridge.op", op.String()),
	)
	kind := trace.SpanKindServer
	if !op.IsInbound() {
		kind = trace.SpanKindProducer
	}
	return c.tracer.Start(ctx, "renderbridge."+op.String(),
		trace.WithSpanKind(kind),
		trace.WithAttributes(attrs...),
	)
}

// endSpan records err, if any, and ends the span.
func endSpan(span trace.Span, err *Error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Kind.String())
		span.SetAttributes(attribute.String("renderbridge.error_kind", err.Kind.String()))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
