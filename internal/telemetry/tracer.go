// Package telemetry sets up OpenTelemetry tracing for the admission engine,
// adapted from the monitoring.NewOpenTelemetryTracer /
// StartBusinessOperation pair (99souls-ariadne's
// engine/monitoring/monitoring.go), trimmed to a single no-exporter
// TracerProvider (no external collector wired in FEP's scope) plus the
// span helpers the admission package calls around rule evaluation.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Tracer wraps an otel.Tracer with FEP-specific span helpers.
type Tracer struct {
	tracer oteltrace.Tracer
}

// NewTracer builds a Tracer with a process-wide TracerProvider tagged with
// serviceName. No exporter is attached; spans are recorded and can be
// inspected via a processor registered by the caller if needed.
func NewTracer(serviceName string) (*Tracer, error) {
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceNameKey.String(serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)

	return &Tracer{tracer: otel.Tracer(serviceName)}, nil
}

// StartAdmission starts a span covering one frame's admission evaluation.
func (t *Tracer) StartAdmission(ctx context.Context, eventID, camera, label string) (context.Context, oteltrace.Span) {
	return t.tracer.Start(ctx, "admission.evaluate", oteltrace.WithAttributes(
		attribute.String("event_id", eventID),
		attribute.String("camera", camera),
		attribute.String("label", label),
	))
}

// RecordVerdict annotates the current span with a rule-evaluator outcome.
func RecordVerdict(ctx context.Context, admit bool, reason string, elapsed time.Duration) {
	span := oteltrace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent("verdict", oteltrace.WithAttributes(
		attribute.Bool("admit", admit),
		attribute.String("reason", reason),
		attribute.Int64("elapsed_us", elapsed.Microseconds()),
	))
}
