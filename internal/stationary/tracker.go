// Package stationary implements the C3 Stationary Tracker: per-event history
// of bounding-box centers, used to cancel alerts for objects that have
// stopped moving (e.g. a parked car, a propped-open door).
//
// Grounded on internal/nvr/event_enricher.go's sync.Map-keyed per-id cache
// with a background cleanup ticker, but specialized to a bounded FIFO window
// per event id (K=8) backed by hashicorp/golang-lru so total memory is
// capped regardless of how many events are live at once.
package stationary

import (
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/technosupport/fep/internal/eventtable"
)

// Window is the bounded recent-samples window for one event id.
const Window = 8

// DefaultThreshold is tau, the default displacement threshold in
// frame-normalized units (spec.md §4.3).
const DefaultThreshold = 0.02

type sample struct {
	at eventtable.Point
	t  time.Time
}

type track struct {
	samples []sample // ring, oldest first, length <= Window
}

// Tracker holds a bounded history of bbox centers per live event id.
type Tracker struct {
	enabled   bool
	threshold float64
	cache     *lru.Cache[string, *track]
}

// Config configures a Tracker from object_tracking.
type Config struct {
	Enabled   bool
	Threshold float64 // 0 means DefaultThreshold
	// MaxTracked bounds total events held concurrently; 0 means a sane
	// default. Exceeding it evicts the least-recently-touched event's
	// track, which only affects stationary detection, never admission
	// correctness beyond "treat as non-stationary".
	MaxTracked int
}

// New builds a Tracker. When cfg.Enabled is false, every call to Stationary
// reports false, matching spec.md §4.3: "When object_tracking.enabled is
// false, the tracker reports all events non-stationary."
func New(cfg Config) *Tracker {
	max := cfg.MaxTracked
	if max <= 0 {
		max = 10000
	}
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	c, _ := lru.New[string, *track](max)
	return &Tracker{enabled: cfg.Enabled, threshold: threshold, cache: c}
}

// Observe appends a bbox-center sample for eventID at time t. A frame
// without a bbox center is skipped (spec.md §4.6: "Missing bbox center:
// treated as non-stationary (tracker skips the sample)").
func (tr *Tracker) Observe(eventID string, hasBBox bool, center eventtable.Point, t time.Time) {
	if !tr.enabled || !hasBBox {
		return
	}
	tk, ok := tr.cache.Get(eventID)
	if !ok {
		tk = &track{}
		tr.cache.Add(eventID, tk)
	}
	tk.samples = append(tk.samples, sample{at: center, t: t})
	if len(tk.samples) > Window {
		tk.samples = tk.samples[len(tk.samples)-Window:]
	}
}

// Stationary reports whether eventID's tracked window shows displacement
// below threshold AND spans at least minEventDuration (spec.md §4.3). When
// tracking is disabled, always returns false.
func (tr *Tracker) Stationary(eventID string, minEventDuration time.Duration) bool {
	if !tr.enabled {
		return false
	}
	tk, ok := tr.cache.Get(eventID)
	if !ok || len(tk.samples) < 2 {
		return false
	}
	span := tk.samples[len(tk.samples)-1].t.Sub(tk.samples[0].t)
	if span < minEventDuration {
		return false
	}
	return maxPairwiseDistance(tk.samples) < tr.threshold
}

// Forget discards eventID's track, called when the live event goes Terminal.
func (tr *Tracker) Forget(eventID string) {
	tr.cache.Remove(eventID)
}

func maxPairwiseDistance(samples []sample) float64 {
	max := 0.0
	for i := 0; i < len(samples); i++ {
		for j := i + 1; j < len(samples); j++ {
			d := distance(samples[i].at, samples[j].at)
			if d > max {
				max = d
			}
		}
	}
	return max
}

func distance(a, b eventtable.Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
