// Package tracing provides distributed tracing support using OpenTelemetry.
package tracing

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// OTelConfig holds OpenTelemetry configuration.
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Enabled        bool
}

// globalTracer is the process-wide tracer, set by InitOTel.
var globalTracer trace.Tracer

// InitOTel initializes OpenTelemetry with the given configuration.
// Returns a shutdown function that should be called on application exit.
func InitOTel(cfg OTelConfig) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(os.Stderr),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	globalTracer = tp.Tracer(cfg.ServiceName)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

// GetTracer returns the global tracer, falling back to a no-op tracer
// before InitOTel has run (e.g. in unit tests).
func GetTracer() trace.Tracer {
	if globalTracer == nil {
		return otel.Tracer("noop")
	}
	return globalTracer
}

// SpanKind represents the role of a span.
type SpanKind string

// Span kinds for categorizing trace spans.
const (
	SpanKindTool     SpanKind = "tool"
	SpanKindAdapter  SpanKind = "adapter"
	SpanKindCache    SpanKind = "cache"
	SpanKindInternal SpanKind = "internal"
)

// ToolSpan starts a new span for a tool execution.
func ToolSpan(ctx context.Context, toolName string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "mcp.tool."+toolName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("mcp.tool.name", toolName),
			attribute.String("mcp.span.kind", string(SpanKindTool)),
		),
	)
}

// AdapterSpan starts a new span for a platform adapter call (C3/C4/C7's
// only suspension points).
func AdapterSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "devicecore.adapter."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("adapter.operation", operation),
			attribute.String("mcp.span.kind", string(SpanKindAdapter)),
		),
	)
}

// ComponentSpan starts a new span for an internal core operation (registry
// resolve, pattern detection, diagnostic assembly, status aggregation).
func ComponentSpan(ctx context.Context, component, operation string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "devicecore."+component+"."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("devicecore.component", component),
			attribute.String("mcp.span.kind", string(SpanKindInternal)),
		),
	)
}

// CacheSpan starts a new span for a cache operation.
func CacheSpan(ctx context.Context, operation string, hit bool) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "mcp.cache."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("cache.operation", operation),
			attribute.Bool("cache.hit", hit),
			attribute.String("mcp.span.kind", string(SpanKindCache)),
		),
	)
}

// AddToolAttributes adds common tool attributes to a span.
func AddToolAttributes(span trace.Span, attrs map[string]interface{}) {
	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			span.SetAttributes(attribute.String("mcp.tool.arg."+k, val))
		case int:
			span.SetAttributes(attribute.Int("mcp.tool.arg."+k, val))
		case int64:
			span.SetAttributes(attribute.Int64("mcp.tool.arg."+k, val))
		case float64:
			span.SetAttributes(attribute.Float64("mcp.tool.arg."+k, val))
		case bool:
			span.SetAttributes(attribute.Bool("mcp.tool.arg."+k, val))
		}
	}
}

// RecordError records an error on the span.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}
}

// SetSuccess marks the span as successful.
func SetSuccess(span trace.Span) {
	span.SetAttributes(attribute.Bool("mcp.success", true))
}

// SetToolResult records the result type of a tool execution.
func SetToolResult(span trace.Span, resultType string, itemCount int) {
	span.SetAttributes(
		attribute.String("mcp.result.type", resultType),
		attribute.Int("mcp.result.count", itemCount),
	)
}

// otelFallback extracts trace identifiers from a live OpenTelemetry span
// when the context carries no explicit TraceInfo, so audit logging keeps
// working even for requests that only ever touched otel spans.
func otelFallback(ctx context.Context) *TraceInfo {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.SpanContext().IsValid() {
		return &TraceInfo{}
	}
	sc := span.SpanContext()
	return &TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}
