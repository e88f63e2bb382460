// Package rules implements the C4 Rule Evaluator: a pure function from
// (event snapshot, configured rules, now) to Admit/Deny(reason).
//
// Grounded on internal/health/alerting.go's ProcessState — a small,
// deterministic, side-effect-free decision function taking explicit state
// and an explicit "now" rather than reading the wall clock itself (spec.md
// §8 property 4: "Rule Evaluator is pure").
package rules

import "time"

// ZoneRule restricts a require/ignore entry to a zone plus an optional label
// scope; "*" in Labels matches any label (spec.md §4).
type ZoneRule struct {
	Zone   string
	Labels []string
}

// CameraRule is one entry of the alerts[] configuration table.
type CameraRule struct {
	Camera  string
	Enabled bool
	Labels  []string
	Require []ZoneRule
	Ignore  []ZoneRule
	// Cooldown optionally overrides the global label cooldown for this
	// camera (supplemented feature, see SPEC_FULL.md "Supplemented
	// features"). Zero means "use the global value".
	Cooldown time.Duration
}

// Thresholds holds the global alert_rules.* configuration.
type Thresholds struct {
	MinEventDuration time.Duration
	MaxEventDuration time.Duration
	RequireSnapshot  bool
	RequireVideo     bool
	CooldownCamera   time.Duration
	CooldownLabel    time.Duration
	// MinScore is the supplemented confidence floor (0 disables).
	MinScore float64
}

// Tracking holds object_tracking.* configuration.
type Tracking struct {
	Enabled   bool
	Threshold float64
}

// RuleSet is the full static, configuration-derived input to Evaluate.
type RuleSet struct {
	Cameras    []CameraRule
	Thresholds Thresholds
	Tracking   Tracking
}

// CameraRule returns the enabled rule entry for camera, if any.
func (rs RuleSet) CameraRule(camera string) (CameraRule, bool) {
	for _, r := range rs.Cameras {
		if r.Camera == camera && r.Enabled {
			return r, true
		}
	}
	return CameraRule{}, false
}

// EffectiveLabelCooldown returns the per-camera override if set, else the
// global label cooldown.
func (rs RuleSet) EffectiveLabelCooldown(camera string) time.Duration {
	if r, ok := rs.CameraRule(camera); ok && r.Cooldown > 0 {
		return r.Cooldown
	}
	return rs.Thresholds.CooldownLabel
}
