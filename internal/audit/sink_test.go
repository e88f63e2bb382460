package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordWritesJSONLLine(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSink(dir)
	require.NoError(t, err)
	defer s.Close()

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.Record("evt-1", "front", "person", "admit", "")

	path := filepath.Join(dir, "audit-2026-03-01.jsonl")
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())

	var entry Entry
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
	assert.Equal(t, "evt-1", entry.EventID)
	assert.Equal(t, "admit", entry.Action)
	assert.Equal(t, fixed, entry.Time.UTC())
}

func TestRecordRotatesOnDayChange(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSink(dir)
	require.NoError(t, err)
	defer s.Close()

	day1 := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	s.now = func() time.Time { return day1 }
	s.Record("evt-1", "front", "person", "admit", "")

	day2 := time.Date(2026, 3, 2, 0, 1, 0, 0, time.UTC)
	s.now = func() time.Time { return day2 }
	s.Record("evt-2", "front", "person", "admit", "")

	_, err = os.Stat(filepath.Join(dir, "audit-2026-03-01.jsonl"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "audit-2026-03-02.jsonl"))
	assert.NoError(t, err)
}

func TestRecordNeverPanicsOnMultipleCalls(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSink(dir)
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 10; i++ {
		s.Record("evt", "cam", "label", "suppress", "cooldown")
	}
}
