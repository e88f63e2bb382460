package cooldown

import (
	"log"
	"os"
	"time"

	"github.com/robfig/cron/v3"
)

var prunerLogger = log.New(os.Stderr, "[cooldown] ", log.LstdFlags)

// Pruner periodically discards ledger entries older than both cooldown
// windows (spec.md §3: "pruned lazily... may be discarded"), grounded on
// zulandar-railyard's robfig/cron scheduling idiom
// (internal/telegraph/cron.go), adapted from duration-until-next-fire
// parsing to a plain interval schedule since pruning has no calendar
// semantics.
type Pruner struct {
	cron *cron.Cron
}

// NewPruner builds a Pruner that prunes ledger every interval, discarding
// entries older than maxCooldown. interval<=0 defaults to 1 minute; the
// cron "@every" schedule rounds intervals under one second up to one second.
func NewPruner(ledger *Ledger, maxCooldown time.Duration, interval time.Duration) *Pruner {
	if interval <= 0 {
		interval = time.Minute
	}
	c := cron.New()
	spec := "@every " + interval.String()
	c.AddFunc(spec, func() {
		n := ledger.Prune(maxCooldown, time.Now())
		if n > 0 {
			prunerLogger.Printf("pruned %d stale cooldown entries", n)
		}
	})
	return &Pruner{cron: c}
}

// Start begins the schedule in its own goroutine (managed internally by
// robfig/cron).
func (p *Pruner) Start() {
	p.cron.Start()
}

// Stop halts the schedule, waiting for any in-flight run to finish.
func (p *Pruner) Stop() {
	<-p.cron.Stop().Done()
}
