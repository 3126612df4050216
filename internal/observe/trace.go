package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/verte-zerg/pronounce"

type correlationKey struct{}

// StartSpan starts a span on the global tracer. Callers must end it.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, opts...)
}

// WithCorrelationID attaches a caller-supplied correlation id to ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id set by WithCorrelationID, else the trace ID
// of the span in ctx, else "".
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey{}).(string); ok && id != "" {
		return id
	}
	return traceID(ctx)
}

func traceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns the default logger with trace_id and, when it differs,
// correlation_id attached.
func Logger(ctx context.Context) *slog.Logger {
	l := slog.Default()
	tid := traceID(ctx)
	if tid != "" {
		l = l.With(slog.String("trace_id", tid))
	}
	if cid := CorrelationID(ctx); cid != "" && cid != tid {
		l = l.With(slog.String("correlation_id", cid))
	}
	return l
}
