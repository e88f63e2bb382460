// Package audit provides an append-only, file-backed forensic trail of
// admission decisions (spec.md §9 "Design Notes" — audit for forensics, not
// a durable event history). Unlike the teacher's audit.Service, which writes
// to Postgres and falls back to a JSONL spool file only on DB failure
// (internal/audit/failover.go in the original), FEP's Non-goals explicitly
// rule out a durable SQL-backed history, so the JSONL spool format becomes
// the sink itself rather than a failover path.
package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var logger = log.New(os.Stderr, "[audit] ", log.LstdFlags)

// Entry is one line of the JSONL audit trail.
type Entry struct {
	Time    time.Time `json:"time"`
	EventID string    `json:"event_id"`
	Camera  string    `json:"camera"`
	Label   string    `json:"label"`
	Action  string    `json:"action"`
	Reason  string    `json:"reason,omitempty"`
}

// Sink appends Entry records to a JSONL file, rotating by day. It implements
// admission.Auditor.
type Sink struct {
	mu      sync.Mutex
	dir     string
	file    *os.File
	current string // date stamp of the currently open file
	now     func() time.Time
}

// NewSink opens (creating if necessary) the audit directory at dir. Rotation
// happens lazily on the first Record call of a new day.
func NewSink(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	return &Sink{dir: dir, now: time.Now}, nil
}

// Record implements admission.Auditor. Write failures are logged, never
// returned or panicked on: a forensic sink must not be able to bring down
// the admission run loop it is observing.
func (s *Sink) Record(eventID, camera, label, action, reason string) {
	entry := Entry{
		Time:    s.now(),
		EventID: eventID,
		Camera:  camera,
		Label:   label,
		Action:  action,
		Reason:  reason,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		logger.Printf("marshal entry for event %s: %v", eventID, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.fileForLocked(entry.Time)
	if err != nil {
		logger.Printf("open audit file: %v", err)
		return
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		logger.Printf("write audit entry for event %s: %v", eventID, err)
	}
}

// fileForLocked returns the open file for t's calendar day, rotating if the
// day has changed since the last Record call. Caller holds s.mu.
func (s *Sink) fileForLocked(t time.Time) (*os.File, error) {
	stamp := t.Format("2006-01-02")
	if s.file != nil && stamp == s.current {
		return s.file, nil
	}
	if s.file != nil {
		s.file.Close()
	}
	path := filepath.Join(s.dir, "audit-"+stamp+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, err
	}
	s.file = f
	s.current = stamp
	return f, nil
}

// Close flushes and closes the currently open file, if any.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
