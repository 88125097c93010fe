package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	attrService = "service"
	attrVersion = "version"
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
)

// TracingHandler stamps the active span's trace_id and span_id onto each
// record before passing it on.
type TracingHandler struct {
	next slog.Handler
}

// NewTracingHandler wraps next. The fixed attrs are bound before any group
// so they stay at the top level of every record.
func NewTracingHandler(next slog.Handler, attrs ...slog.Attr) *TracingHandler {
	if len(attrs) > 0 {
		next = next.WithAttrs(attrs)
	}

	return &TracingHandler{next: next}
}

func (h *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record = record.Clone()
		record.AddAttrs(
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		)
	}

	return h.next.Handle(ctx, record)
}

func (h *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{next: h.next.WithAttrs(attrs)}
}

func (h *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{next: h.next.WithGroup(name)}
}
