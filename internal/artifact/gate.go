package artifact

import (
	"context"
)

// Gate is C7: it does not fetch artifacts itself (spec.md §4.7) — it reads
// the frame's has_snapshot/has_clip flags, optionally confirming against the
// Frigate HTTP collaborator when absolute confirmation is configured. The
// defer-until-timeout scheduling itself is owned by admission.Engine (via
// internal/clock): each deferral fire or Suppressed->Pending artifact
// re-check calls Confirm once, off the engine's run loop (it is a
// suspension point per spec.md §5), and the engine feeds the result into
// rules.Evaluate's step 6.
type Gate struct {
	prober         Prober
	confirmViaHTTP bool
}

// NewGate builds a Gate. When confirmViaHTTP is false the Gate trusts the
// frame's own has_snapshot/has_clip flags and prober may be nil.
func NewGate(prober Prober, confirmViaHTTP bool) *Gate {
	return &Gate{prober: prober, confirmViaHTTP: confirmViaHTTP}
}

// Confirm resolves the effective has_snapshot/has_clip flags to feed into
// rules.Evaluate. A flag that is already true passes through unchanged
// (frame says it's there — trust it, no redundant probe). A false flag is
// only escalated to true via an HTTP probe when confirmViaHTTP is enabled;
// probe errors resolve to "not yet" per §7's drop-over-crash philosophy —
// the caller's own max_event_duration bound is what eventually suppresses.
func (g *Gate) Confirm(ctx context.Context, eventID string, requireSnapshot, requireVideo, flagSnapshot, flagClip bool) (snapshot, clip bool) {
	snapshot = flagSnapshot
	clip = flagClip
	if requireSnapshot && !snapshot {
		snapshot = g.probe(ctx, eventID, KindSnapshot)
	}
	if requireVideo && !clip {
		clip = g.probe(ctx, eventID, KindClip)
	}
	return snapshot, clip
}

func (g *Gate) probe(ctx context.Context, eventID string, kind Kind) bool {
	if !g.confirmViaHTTP || g.prober == nil {
		return false
	}
	available, _, err := g.prober.Probe(ctx, eventID, kind)
	if err != nil {
		return false
	}
	return available
}
