// Package cooldown implements the C2 Cooldown Ledger: per-camera and
// per-(camera,label) suppression windows after a successful publish.
//
// Grounded on internal/nvr/event_dedup.go's key->time-seen map; unlike the
// dedup cache there is no LRU eviction here (the spec requires lazy pruning
// by age, not by recency-of-use), so a plain map with an explicit Prune pass
// is used instead of hashicorp/golang-lru.
package cooldown

import (
	"sync"
	"time"
)

// Decision is the result of Check.
type Decision struct {
	Allowed bool
	// Until is the wall-clock time the block lifts. Zero if Allowed.
	Until time.Time
}

// Ledger is safe for concurrent use: the Admission Engine's run loop calls
// Check and Record, and a Pruner sweeps it from its own cron goroutine.
type Ledger struct {
	mu         sync.Mutex
	byCamera   map[string]time.Time
	byCamLabel map[string]time.Time
}

// New returns an empty Ledger. Restart always starts empty: the ledger is
// authoritative only within this process (§4.2).
func New() *Ledger {
	return &Ledger{
		byCamera:   make(map[string]time.Time),
		byCamLabel: make(map[string]time.Time),
	}
}

func camLabelKey(camera, label string) string {
	return camera + "\x00" + label
}

// Check reports whether a publish for (camera, label) is allowed right now,
// given the configured cooldown windows. A zero window disables that
// dimension (§4.2).
func (l *Ledger) Check(camera, label string, camCooldown, labelCooldown time.Duration, now time.Time) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	var blockedUntil time.Time

	if camCooldown > 0 {
		if last, ok := l.byCamera[camera]; ok {
			until := last.Add(camCooldown)
			if now.Before(until) && until.After(blockedUntil) {
				blockedUntil = until
			}
		}
	}
	if labelCooldown > 0 {
		if last, ok := l.byCamLabel[camLabelKey(camera, label)]; ok {
			until := last.Add(labelCooldown)
			if now.Before(until) && until.After(blockedUntil) {
				blockedUntil = until
			}
		}
	}

	if blockedUntil.IsZero() {
		return Decision{Allowed: true}
	}
	return Decision{Allowed: false, Until: blockedUntil}
}

// Record stores now as the last-alert time for both the camera key and the
// (camera,label) key. Only called on successful publish (§3 invariant 5).
func (l *Ledger) Record(camera, label string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byCamera[camera] = now
	l.byCamLabel[camLabelKey(camera, label)] = now
}

// Prune discards entries older than both cooldown windows so the ledger does
// not grow without bound over the life of the process (§3: "pruned lazily").
// maxCooldown should be the largest configured cooldown window (both global
// windows and any per-camera override); entries older than it are stale
// under any camera's configuration.
func (l *Ledger) Prune(maxCooldown time.Duration, now time.Time) int {
	if maxCooldown <= 0 {
		return 0
	}
	cutoff := now.Add(-maxCooldown)
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for k, t := range l.byCamera {
		if t.Before(cutoff) {
			delete(l.byCamera, k)
			removed++
		}
	}
	for k, t := range l.byCamLabel {
		if t.Before(cutoff) {
			delete(l.byCamLabel, k)
			removed++
		}
	}
	return removed
}

// Size returns the number of tracked keys across both maps, for metrics.
func (l *Ledger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byCamera) + len(l.byCamLabel)
}
