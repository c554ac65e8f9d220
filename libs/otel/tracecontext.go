package otelx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	keyTraceparent = "traceparent"
	keyTracestate  = "tracestate"
)

// TraceContextStrings returns the W3C traceparent and tracestate of the span in ctx,
// or empty strings when ctx carries none. Outbox rows store them next to the payload.
func TraceContextStrings(ctx context.Context) (traceparent string, tracestate string) {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier.Get(keyTraceparent), carrier.Get(keyTracestate)
}

// ContextWithTraceContext restores a remote span context captured by TraceContextStrings
// so a later publish continues the original request trace.
func ContextWithTraceContext(ctx context.Context, traceparent string, tracestate string) context.Context {
	if traceparent == "" {
		return ctx
	}
	carrier := propagation.MapCarrier{keyTraceparent: traceparent}
	if tracestate != "" {
		carrier.Set(keyTracestate, tracestate)
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
