package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

const (
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
	attrEnv     = "env"
	attrMode    = "mode"
)

// TracingHandler is an [slog.Handler] that adds the active trace and span IDs
// to every record. Service metadata and trace IDs stay at the top level of
// the record even under WithGroup.
type TracingHandler struct {
	// root has the service metadata only; inner has every WithAttrs and
	// WithGroup applied. ops replays them on top of the trace attributes.
	root  slog.Handler
	inner slog.Handler
	ops   []handlerOp
}

// handlerOp is one WithGroup (group set) or WithAttrs call.
type handlerOp struct {
	group string
	attrs []slog.Attr
}

// NewTracingHandler wraps inner with trace context and service metadata.
func NewTracingHandler(inner slog.Handler, service, env string, appMode AppMode) *TracingHandler {
	attrs := []slog.Attr{
		slog.String(attrService, service),
		slog.String(attrMode, string(appMode)),
	}

	if env != "" {
		attrs = append(attrs, slog.String(attrEnv, env))
	}

	root := inner.WithAttrs(attrs)

	return &TracingHandler{root: root, inner: root}
}

// Enabled delegates to the inner handler.
func (th *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return th.inner.Enabled(ctx, level)
}

// Handle adds trace context attributes from the span context, then delegates.
func (th *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	handler := th.inner

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		handler = th.root.WithAttrs([]slog.Attr{
			slog.String(attrTraceID, sc.TraceID().String()),
			slog.String(attrSpanID, sc.SpanID().String()),
		})

		for _, op := range th.ops {
			if op.group != "" {
				handler = handler.WithGroup(op.group)
			} else {
				handler = handler.WithAttrs(op.attrs)
			}
		}
	}

	err := handler.Handle(ctx, record)
	if err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

// WithAttrs implements [slog.Handler].
func (th *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return th
	}

	return th.with(handlerOp{attrs: attrs}, th.inner.WithAttrs(attrs))
}

// WithGroup implements [slog.Handler].
func (th *TracingHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return th
	}

	return th.with(handlerOp{group: name}, th.inner.WithGroup(name))
}

func (th *TracingHandler) with(op handlerOp, inner slog.Handler) *TracingHandler {
	ops := make([]handlerOp, len(th.ops), len(th.ops)+1)
	copy(ops, th.ops)

	return &TracingHandler{root: th.root, inner: inner, ops: append(ops, op)}
}

// NewLogger builds the process logger described by cfg.
func NewLogger(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var inner slog.Handler
	if cfg.LogJSON {
		inner = slog.NewJSONHandler(out, handlerOpts)
	} else {
		inner = slog.NewTextHandler(out, handlerOpts)
	}

	return slog.New(NewTracingHandler(inner, cfg.ServiceName, cfg.Environment, cfg.Mode))
}
