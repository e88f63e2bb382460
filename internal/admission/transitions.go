package admission

import (
	"context"
	"time"

	"github.com/technosupport/fep/internal/artifact"
	"github.com/technosupport/fep/internal/eventtable"
	"github.com/technosupport/fep/internal/publish"
	"github.com/technosupport/fep/internal/rules"
	"github.com/technosupport/fep/internal/telemetry"
)

func (e *Engine) handleFrame(ctx context.Context, f eventtable.Frame) {
	rec := e.table.Get(f.EventID)
	if rec == nil {
		e.handleFirstSeen(ctx, f)
		return
	}

	switch f.Type {
	case eventtable.FrameEnd:
		e.handleEnd(rec, f)
	default:
		e.handleUpdate(ctx, rec, f)
	}
}

// handleFirstSeen implements spec.md §4.6 "On new or first-seen id".
func (e *Engine) handleFirstSeen(ctx context.Context, f eventtable.Frame) {
	now := e.clock.Now()

	if f.Type == eventtable.FrameEnd {
		// "An event whose first-ever frame is type end: create Terminal
		// directly; no publish." (§4.6 edge case)
		rec := newLiveEvent(f)
		rec.Status = eventtable.Terminal
		e.auditf(rec, "terminal", "end-before-new")
		// No deferral was ever created, nothing in flight: settles
		// immediately, never enters the table.
		return
	}

	rec := newLiveEvent(f)
	rs := e.ruleSet()

	e.tracker.Observe(rec.EventID, f.HasBBox, f.BBoxCenter, f.LastUpdated)
	stationary := e.tracker.Stationary(rec.EventID, rs.Thresholds.MinEventDuration)

	snap := rules.SnapshotFromFrame(f, rec.Created)
	snap.Stationary = stationary

	evalStart := time.Now()
	verdict := rules.Evaluate(snap, rs, now)
	e.traceVerdict(ctx, rec, verdict, time.Since(evalStart))

	if !verdict.Admit {
		rec.Status = eventtable.Suppressed
		rec.LastDenyReason = verdict.Reason
		e.table.Put(rec)
		e.observeDeny(rec, verdict.Reason)
		return
	}

	e.scheduleDeferral(ctx, rec, rs, now)
	e.table.Put(rec)
}

func newLiveEvent(f eventtable.Frame) *eventtable.LiveEvent {
	return &eventtable.LiveEvent{
		EventID:        f.EventID,
		Camera:         f.Camera,
		Label:          f.Label,
		SubLabel:       f.SubLabel,
		Created:        f.Created,
		LastFrame:      f,
		LastZones:      f.Zones,
		LastBBoxCenter: f.BBoxCenter,
		HasBBox:        f.HasBBox,
		LastUpdated:    f.LastUpdated,
		HasSnapshot:    f.HasSnapshot,
		HasClip:        f.HasClip,
		Status:         eventtable.Pending,
	}
}

// scheduleDeferral implements the deferral-target decision of §4.6: fire at
// created+min_event_duration if the event hasn't aged past it yet, else fire
// immediately (still through the deferral pipeline, per spec.md, so
// cooldown/stationary/artifact checks happen at fire time).
func (e *Engine) scheduleDeferral(ctx context.Context, rec *eventtable.LiveEvent, rs rules.RuleSet, now time.Time) {
	age := now.Sub(rec.Created)
	deferAt := now
	if rs.Thresholds.MinEventDuration > 0 && age < rs.Thresholds.MinEventDuration {
		deferAt = rec.Created.Add(rs.Thresholds.MinEventDuration)
	}

	rec.Status = eventtable.Pending
	rec.DeferralGen++
	gen := rec.DeferralGen
	rec.DeferralAt = deferAt
	eventID := rec.EventID

	rec.DeferralHandle = e.clock.Schedule(deferAt, func() {
		e.post(cmd{kind: cmdDeferralFire, eventID: eventID, gen: gen})
	})
}

// handleUpdate implements spec.md §4.6 "On update for existing record".
func (e *Engine) handleUpdate(ctx context.Context, rec *eventtable.LiveEvent, f eventtable.Frame) {
	rs := e.ruleSet()

	// Tie-break: only accept monotone-or-newer last-updated timestamps
	// (§4.6: "a stale frame from reverting zones").
	monotone := !f.LastUpdated.Before(rec.LastUpdated)
	if monotone {
		rec.LastFrame = f
		rec.LastZones = f.Zones
		rec.LastBBoxCenter = f.BBoxCenter
		rec.HasBBox = f.HasBBox
		rec.LastUpdated = f.LastUpdated
		rec.HasSnapshot = f.HasSnapshot
		rec.HasClip = f.HasClip
		e.tracker.Observe(rec.EventID, f.HasBBox, f.BBoxCenter, f.LastUpdated)
	}

	switch rec.Status {
	case eventtable.Pending, eventtable.Admitted, eventtable.Terminal:
		// Pending: the scheduled deferral will re-evaluate with the
		// now-refreshed fields when it fires. Admitted: fields stay fresh
		// for the in-flight publish payload. Terminal: tolerate but ignore.
		e.table.Put(rec)

	case eventtable.Suppressed:
		e.table.Put(rec)
		e.maybeReconsiderSuppressed(ctx, rec, rs)
	}
}

// maybeReconsiderSuppressed implements the narrow Suppressed->Pending
// exception of §4.6: only for artifact-prerequisite deny reasons, and only
// while the event hasn't aged past max_event_duration.
func (e *Engine) maybeReconsiderSuppressed(ctx context.Context, rec *eventtable.LiveEvent, rs rules.RuleSet) {
	if rec.LastDenyReason != "no-snapshot" && rec.LastDenyReason != "no-clip" {
		return // sticky: all other deny reasons never reconsidered
	}

	now := e.clock.Now()
	age := now.Sub(rec.Created)
	if rs.Thresholds.MaxEventDuration > 0 && age > rs.Thresholds.MaxEventDuration {
		return // too old to matter; stays Suppressed until Terminal
	}

	rec.DeferralGen++
	e.scheduleDeferral(ctx, rec, rs, now)
	e.table.Put(rec)
}

// handleEnd implements spec.md §4.6 "On end".
func (e *Engine) handleEnd(rec *eventtable.LiveEvent, f eventtable.Frame) {
	if rec.Status == eventtable.Pending && rec.DeferralHandle != nil {
		rec.DeferralHandle.Cancel()
		rec.DeferralGen++ // invalidate any fire already in flight
	}

	rec.Status = eventtable.Terminal
	e.tracker.Forget(rec.EventID)
	e.table.Put(rec)
	e.auditf(rec, "terminal", "")

	if !rec.PublishInFlight {
		e.table.Remove(rec.EventID)
	}
}

// handleDeferralFire implements spec.md §4.6 "On deferral fire", step one:
// resolve the effective artifact flags off the run loop (a suspension
// point), then resume via cmdGateResult.
func (e *Engine) handleDeferralFire(ctx context.Context, eventID string, gen uint64) {
	rec := e.table.Get(eventID)
	if rec == nil || rec.Status != eventtable.Pending || rec.DeferralGen != gen {
		return // superseded by a later frame/cancellation
	}

	rs := e.ruleSet()
	hasSnapshot, hasClip := rec.HasSnapshot, rec.HasClip
	req := rs.Thresholds

	go func() {
		snap, clip := e.gate.Confirm(ctx, eventID, req.RequireSnapshot, req.RequireVideo, hasSnapshot, hasClip)
		e.post(cmd{kind: cmdGateResult, eventID: eventID, gen: gen, confirmedSnapshot: snap, confirmedClip: clip})
	}()
}

// handleGateResult completes the deferral-fire evaluation (§4.6: "If Admit:
// check Cooldown Ledger; if allowed, mark Admitted... If denied by cooldown,
// mark Suppressed with reason 'cooldown'").
func (e *Engine) handleGateResult(eventID string, gen uint64, confirmedSnapshot, confirmedClip bool) {
	rec := e.table.Get(eventID)
	if rec == nil || rec.Status != eventtable.Pending || rec.DeferralGen != gen {
		return
	}

	rs := e.ruleSet()
	now := e.clock.Now()
	stationary := e.tracker.Stationary(eventID, rs.Thresholds.MinEventDuration)

	snap := rules.Snapshot{
		EventID:     rec.EventID,
		Camera:      rec.Camera,
		Label:       rec.Label,
		Created:     rec.Created,
		Zones:       rec.LastFrame.ZoneSet(),
		HasSnapshot: confirmedSnapshot,
		HasClip:     confirmedClip,
		HasScore:    rec.LastFrame.HasScore,
		Score:       rec.LastFrame.Score,
		Stationary:  stationary,
	}
	evalStart := time.Now()
	verdict := rules.Evaluate(snap, rs, now)
	e.traceVerdict(context.Background(), rec, verdict, time.Since(evalStart))

	if !verdict.Admit {
		rec.Status = eventtable.Suppressed
		rec.LastDenyReason = verdict.Reason
		e.table.Put(rec)
		e.observeDeny(rec, verdict.Reason)
		return
	}

	labelCooldown := rs.EffectiveLabelCooldown(rec.Camera)
	decision := e.ledger.Check(rec.Camera, rec.Label, rs.Thresholds.CooldownCamera, labelCooldown, now)
	if !decision.Allowed {
		rec.Status = eventtable.Suppressed
		rec.LastDenyReason = "cooldown"
		e.table.Put(rec)
		e.observeSuppress(rec, "cooldown")
		return
	}

	// Admit. alerted is set now, before the publish attempt even begins, so
	// that no subsequent race (another deferral/gate result for the same
	// id — which cannot happen post-Admitted since status blocks it, but
	// matches §4.8's "does not transition status back" framing) can trigger
	// a second publish; it is never unset on publish failure.
	rec.Status = eventtable.Admitted
	rec.Alerted = true
	rec.PublishInFlight = true
	e.table.Put(rec)
	e.observeAdmit(rec)

	alert := buildAlert(*rec, confirmedSnapshot, confirmedClip)
	go func() {
		err := e.publisher.Publish(context.Background(), alert)
		e.post(cmd{kind: cmdPublishResult, eventID: eventID, publishErr: err})
	}()
}

func buildAlert(rec eventtable.LiveEvent, hasSnapshot, hasClip bool) publish.Alert {
	a := publish.Alert{
		EventID:   rec.EventID,
		Camera:    rec.Camera,
		Label:     rec.Label,
		SubLabel:  rec.SubLabel,
		CreatedAt: rec.Created,
		Zones:     rec.LastZones,
		Reason:    "admit",
	}
	if hasSnapshot {
		a.SnapshotURL = artifactURL(rec.EventID, artifact.KindSnapshot)
	}
	if hasClip {
		a.ClipURL = artifactURL(rec.EventID, artifact.KindClip)
	}
	return a
}

func artifactURL(eventID string, kind artifact.Kind) string {
	switch kind {
	case artifact.KindClip:
		return "/api/events/" + eventID + "/clip.mp4"
	default:
		return "/api/events/" + eventID + "/snapshot.jpg"
	}
}

// handlePublishResult implements spec.md §4.8's success/failure branches.
func (e *Engine) handlePublishResult(eventID string, publishErr error) {
	rec := e.table.Get(eventID)
	if rec == nil {
		return
	}
	rec.PublishInFlight = false

	if publishErr == nil {
		now := e.clock.Now()
		e.ledger.Record(rec.Camera, rec.Label, now) // invariant 5: only on success
		e.observePublish(rec, true)
	} else {
		logger.Printf("event %s: publish failed permanently: %v", eventID, publishErr)
		e.observePublish(rec, false)
	}

	e.table.Put(rec)
	if rec.Status == eventtable.Terminal {
		e.table.Remove(eventID)
	}
}
