package otelx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// TraceColumns is the W3C trace context as persisted next to an outbox row, so the
// relay can continue the trace of the request that wrote it.
type TraceColumns struct {
	Traceparent string
	Tracestate  string
}

// Empty reports whether no trace was active when the row was written.
func (c TraceColumns) Empty() bool {
	return c.Traceparent == ""
}

// CaptureTraceColumns serializes the active span of ctx with the global propagator.
func CaptureTraceColumns(ctx context.Context) TraceColumns {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return TraceColumns{
		Traceparent: carrier.Get("traceparent"),
		Tracestate:  carrier.Get("tracestate"),
	}
}

// Restore returns parent carrying the stored trace as its remote span context.
// A tracestate without a traceparent is meaningless and is ignored.
func (c TraceColumns) Restore(parent context.Context) context.Context {
	if c.Empty() {
		return parent
	}
	carrier := propagation.MapCarrier{"traceparent": c.Traceparent}
	if c.Tracestate != "" {
		carrier["tracestate"] = c.Tracestate
	}
	return otel.GetTextMapPropagator().Extract(parent, carrier)
}
