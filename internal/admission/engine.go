// Package admission implements C6, the Admission Engine: the state machine
// that consumes inbound event frames, updates the Event Table, schedules
// deferrals, and triggers publish (spec.md §4.6).
//
// Concurrency model (spec.md §5): a single goroutine ("the run loop") is the
// only mutator of the Event Table and the only caller of the Cooldown
// Ledger's Check/Record, matching the spec's single-threaded cooperative
// execution context; the Ledger's own mutex exists for cooldown.Pruner's
// periodic sweep, which runs on its own goroutine. Suspension points (HTTP artifact confirmation, publish
// submission) are implemented as separate goroutines that report their
// result back onto the same command channel the run loop reads from, so the
// loop is never blocked on I/O and frame ingestion for other event ids keeps
// flowing, exactly as §5 requires.
package admission

import (
	"context"
	"log"
	"os"
	"sync/atomic"

	"github.com/technosupport/fep/internal/artifact"
	"github.com/technosupport/fep/internal/clock"
	"github.com/technosupport/fep/internal/cooldown"
	"github.com/technosupport/fep/internal/eventtable"
	"github.com/technosupport/fep/internal/publish"
	"github.com/technosupport/fep/internal/rules"
	"github.com/technosupport/fep/internal/stationary"
	"github.com/technosupport/fep/internal/telemetry"
)

var logger = log.New(os.Stderr, "[admission] ", log.LstdFlags)

// Auditor records admission-engine transitions for forensics (internal/audit
// implements this); nil is valid and disables auditing.
type Auditor interface {
	Record(eventID, camera, label, action, reason string)
}

// Metrics records per-outcome counters (internal/metrics implements this);
// nil is valid and disables metrics.
type Metrics interface {
	ObserveAdmit(camera, label string)
	ObserveDeny(camera, label, reason string)
	ObserveSuppress(camera, label, reason string)
	ObservePublish(camera, label string, ok bool)
	ObserveTableSize(n int)
}

// Engine is the C6 state machine. Build one with New and drive it by
// calling Dispatch for every decoded inbound frame; call Run once, in its
// own goroutine, to start the command loop.
type Engine struct {
	clock     clock.Clock
	table     *eventtable.Table
	ledger    *cooldown.Ledger
	tracker   *stationary.Tracker
	gate      *artifact.Gate
	publisher publish.Publisher
	audit     Auditor
	metrics   Metrics
	tracer    *telemetry.Tracer

	rules atomic.Pointer[rules.RuleSet]

	cmds chan cmd
}

// Config bundles Engine's collaborators.
type Config struct {
	Clock     clock.Clock
	Ledger    *cooldown.Ledger
	Tracker   *stationary.Tracker
	Gate      *artifact.Gate
	Publisher publish.Publisher
	Audit     Auditor
	Metrics   Metrics
	Tracer    *telemetry.Tracer
	RuleSet   rules.RuleSet
	// QueueSize bounds the command channel. 0 uses a sane default.
	QueueSize int
}

// New builds an Engine. Call Run to start processing.
func New(cfg Config) *Engine {
	qs := cfg.QueueSize
	if qs <= 0 {
		qs = 4096
	}
	e := &Engine{
		clock:     cfg.Clock,
		table:     eventtable.New(),
		ledger:    cfg.Ledger,
		tracker:   cfg.Tracker,
		gate:      cfg.Gate,
		publisher: cfg.Publisher,
		audit:     cfg.Audit,
		metrics:   cfg.Metrics,
		tracer:    cfg.Tracer,
		cmds:      make(chan cmd, qs),
	}
	e.rules.Store(&cfg.RuleSet)
	return e
}

// SetRuleSet hot-swaps the rule set (e.g. on config reload), effective for
// the next evaluation of any event.
func (e *Engine) SetRuleSet(rs rules.RuleSet) {
	e.rules.Store(&rs)
}

func (e *Engine) ruleSet() rules.RuleSet {
	return *e.rules.Load()
}

// Dispatch enqueues a decoded inbound frame for processing. Safe to call
// from the NATS subscription callback goroutine; frames for the same event
// id are processed strictly in the order Dispatch was called, matching
// spec.md §5.
func (e *Engine) Dispatch(f eventtable.Frame) {
	e.cmds <- cmd{kind: cmdFrame, frame: &f}
}

// TableLen reports the number of live event records, for metrics/debug.
func (e *Engine) TableLen() int {
	return e.table.Len()
}

// Snapshot returns the live event table for the /debug/events admin route.
func (e *Engine) Snapshot() []eventtable.LiveEvent {
	return e.table.Snapshot()
}

// Run drives the command loop until ctx is cancelled. Call it once, from its
// own goroutine.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-e.cmds:
			e.handle(ctx, c)
			if e.metrics != nil {
				e.metrics.ObserveTableSize(e.table.Len())
			}
		}
	}
}

type cmdKind int

const (
	cmdFrame cmdKind = iota
	cmdDeferralFire
	cmdGateResult
	cmdPublishResult
)

type cmd struct {
	kind cmdKind

	frame *eventtable.Frame // cmdFrame

	// cmdDeferralFire / cmdGateResult
	eventID string
	gen     uint64

	// cmdGateResult
	confirmedSnapshot bool
	confirmedClip     bool

	// cmdPublishResult
	publishErr error
}

func (e *Engine) handle(ctx context.Context, c cmd) {
	switch c.kind {
	case cmdFrame:
		e.handleFrame(ctx, *c.frame)
	case cmdDeferralFire:
		e.handleDeferralFire(ctx, c.eventID, c.gen)
	case cmdGateResult:
		e.handleGateResult(c.eventID, c.gen, c.confirmedSnapshot, c.confirmedClip)
	case cmdPublishResult:
		e.handlePublishResult(c.eventID, c.publishErr)
	}
}

func (e *Engine) post(c cmd) {
	e.cmds <- c
}
