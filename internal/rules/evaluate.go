package rules

import (
	"time"

	"github.com/technosupport/fep/internal/eventtable"
)

// Verdict is the evaluator's outcome. Reason is empty on Admit.
type Verdict struct {
	Admit  bool
	Reason string
}

func deny(reason string) Verdict { return Verdict{Admit: false, Reason: reason} }

var admit = Verdict{Admit: true}

// Snapshot is the evaluator's view of a live event at evaluation time: a
// read-only projection, never the mutable eventtable.LiveEvent itself, so
// Evaluate stays pure (spec.md §8 property 4).
type Snapshot struct {
	EventID     string
	Camera      string
	Label       string
	Created     time.Time
	Zones       map[string]struct{}
	HasSnapshot bool
	HasClip     bool
	HasScore    bool
	Score       float64
	// Stationary is supplied by the caller (the Admission Engine), which
	// consults internal/stationary with the event's own history — the
	// evaluator itself holds no tracker state, keeping it pure.
	Stationary bool
}

func hasWildcard(labels []string) bool {
	for _, l := range labels {
		if l == "*" {
			return true
		}
	}
	return false
}

func labelMatches(labels []string, label string) bool {
	if hasWildcard(labels) {
		return true
	}
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

func zoneRuleMatches(rule ZoneRule, zones map[string]struct{}, label string) bool {
	if _, ok := zones[rule.Zone]; !ok {
		return false
	}
	return labelMatches(rule.Labels, label)
}

// Evaluate is the pure function described in spec.md §4.4. now is an
// explicit input so the function never consults the wall clock itself.
func Evaluate(snap Snapshot, rs RuleSet, now time.Time) Verdict {
	// 1. Camera match.
	rule, ok := rs.CameraRule(snap.Camera)
	if !ok {
		return deny("no-rule")
	}

	// 2. Label match.
	if !labelMatches(rule.Labels, snap.Label) {
		return deny("label")
	}

	// Supplemented: confidence floor (see SPEC_FULL.md).
	if rs.Thresholds.MinScore > 0 && snap.HasScore && snap.Score < rs.Thresholds.MinScore {
		return deny("low-score")
	}

	// 3. Ignore zones.
	for _, ig := range rule.Ignore {
		if zoneRuleMatches(ig, snap.Zones, snap.Label) {
			return deny("ignored-zone")
		}
	}

	// 4. Require zones.
	if len(rule.Require) > 0 {
		satisfied := false
		for _, req := range rule.Require {
			if zoneRuleMatches(req, snap.Zones, snap.Label) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return deny("missing-required-zone")
		}
	}

	// 5. Duration window (only the upper bound; min-duration is the
	// Admission Engine's deferral responsibility, not evaluated here).
	if rs.Thresholds.MaxEventDuration > 0 {
		age := now.Sub(snap.Created)
		if age > rs.Thresholds.MaxEventDuration {
			return deny("too-old")
		}
	}

	// 6. Artifact prerequisites.
	if rs.Thresholds.RequireSnapshot && !snap.HasSnapshot {
		return deny("no-snapshot")
	}
	if rs.Thresholds.RequireVideo && !snap.HasClip {
		return deny("no-clip")
	}

	// 7. Stationary.
	if rs.Tracking.Enabled && snap.Stationary {
		return deny("stationary")
	}

	return admit
}

// SnapshotFromFrame projects an eventtable.Frame into a rules.Snapshot.
// Stationary is filled in by the caller; cooldown is not part of the
// snapshot and is checked by the Admission Engine after Evaluate admits.
func SnapshotFromFrame(f eventtable.Frame, created time.Time) Snapshot {
	return Snapshot{
		EventID:     f.EventID,
		Camera:      f.Camera,
		Label:       f.Label,
		Created:     created,
		Zones:       f.ZoneSet(),
		HasSnapshot: f.HasSnapshot,
		HasClip:     f.HasClip,
		HasScore:    f.HasScore,
		Score:       f.Score,
	}
}
