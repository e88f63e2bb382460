package eventtable

import (
	"time"

	"github.com/technosupport/fep/internal/clock"
)

// LiveEvent is the Event Table's record for an in-flight event id
// (spec.md §3). All fields are mutated only by the Admission Engine, on its
// single execution context (§5).
type LiveEvent struct {
	// identity
	EventID  string
	Camera   string
	Label    string
	SubLabel string
	Created  time.Time

	// latest
	LastFrame       Frame
	LastZones       []string
	LastBBoxCenter  Point
	HasBBox         bool
	LastUpdated     time.Time
	HasSnapshot     bool
	HasClip         bool

	Status Status

	// deferral
	DeferralAt     time.Time
	DeferralHandle clock.Handle
	// DeferralGen increments every time a new deferral is scheduled so a
	// stale cmdDeferralFire (one whose timer fired just as a cancellation
	// raced it) can be recognized and dropped by the admission engine.
	DeferralGen uint64

	// Alerted is set exactly once, when the engine admits the event and
	// hands it to the publisher, and stays true whether or not that publish
	// succeeds (§3 invariant 4).
	Alerted bool

	// PublishInFlight is true while a publish attempt is outstanding; the
	// record is kept in the Table even after Terminal until this settles
	// (spec.md §3 lifecycle, §5 "tolerate a publish in flight").
	PublishInFlight bool

	// LastDenyReason records the most recent Deny reason, used by the
	// engine's narrow Suppressed->Pending exception (§4.6).
	LastDenyReason string
}

// Table is a keyed map event id -> LiveEvent (C5). All operations execute on
// the Admission Engine's single execution context (§5); Table itself holds
// no internal locking because of that single-writer discipline.
type Table struct {
	byID map[string]*LiveEvent
}

// New returns an empty Table.
func New() *Table {
	return &Table{byID: make(map[string]*LiveEvent)}
}

// Get returns the record for id, or nil if absent.
func (t *Table) Get(id string) *LiveEvent {
	return t.byID[id]
}

// Put inserts or replaces the record for id. Upsert logic (new vs existing,
// monotone-field merge) lives in the Admission Engine, which is the sole
// mutator; Table itself is a dumb store.
func (t *Table) Put(ev *LiveEvent) {
	t.byID[ev.EventID] = ev
}

// Remove deletes id's record. Called once status is Terminal and any
// deferral timer has settled (spec.md §3 lifecycle).
func (t *Table) Remove(id string) {
	delete(t.byID, id)
}

// Len reports the number of live records, for metrics/diagnostics.
func (t *Table) Len() int {
	return len(t.byID)
}

// Snapshot returns a shallow copy of all live records, for the /debug/events
// admin endpoint. Never used as a durable store (spec.md Non-goals).
func (t *Table) Snapshot() []LiveEvent {
	out := make([]LiveEvent, 0, len(t.byID))
	for _, ev := range t.byID {
		out = append(out, *ev)
	}
	return out
}
