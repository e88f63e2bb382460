package admission

import (
	"context"
	"time"

	"github.com/technosupport/fep/internal/eventtable"
	"github.com/technosupport/fep/internal/rules"
	"github.com/technosupport/fep/internal/telemetry"
)

// traceVerdict records a rule-evaluator outcome on an OpenTelemetry span, if
// tracing is configured. A no-op when e.tracer is nil.
func (e *Engine) traceVerdict(ctx context.Context, rec *eventtable.LiveEvent, verdict rules.Verdict, elapsed time.Duration) {
	if e.tracer == nil {
		return
	}
	spanCtx, span := e.tracer.StartAdmission(ctx, rec.EventID, rec.Camera, rec.Label)
	telemetry.RecordVerdict(spanCtx, verdict.Admit, verdict.Reason, elapsed)
	span.End()
}

func (e *Engine) auditf(rec *eventtable.LiveEvent, action, reason string) {
	if e.audit == nil {
		return
	}
	e.audit.Record(rec.EventID, rec.Camera, rec.Label, action, reason)
}

func (e *Engine) observeDeny(rec *eventtable.LiveEvent, reason string) {
	e.auditf(rec, "suppress", reason)
	if e.metrics != nil {
		e.metrics.ObserveDeny(rec.Camera, rec.Label, reason)
		e.metrics.ObserveSuppress(rec.Camera, rec.Label, reason)
	}
}

func (e *Engine) observeSuppress(rec *eventtable.LiveEvent, reason string) {
	e.auditf(rec, "suppress", reason)
	if e.metrics != nil {
		e.metrics.ObserveSuppress(rec.Camera, rec.Label, reason)
	}
}

func (e *Engine) observeAdmit(rec *eventtable.LiveEvent) {
	e.auditf(rec, "admit", "")
	if e.metrics != nil {
		e.metrics.ObserveAdmit(rec.Camera, rec.Label)
	}
}

func (e *Engine) observePublish(rec *eventtable.LiveEvent, ok bool) {
	action := "publish:ok"
	if !ok {
		action = "publish:fail"
	}
	e.auditf(rec, action, "")
	if e.metrics != nil {
		e.metrics.ObservePublish(rec.Camera, rec.Label, ok)
	}
}
