package artifact_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/technosupport/fep/internal/artifact"
)

type fakeProber struct {
	available map[artifact.Kind]bool
	err       error
	calls     int
}

func (f *fakeProber) Probe(ctx context.Context, eventID string, kind artifact.Kind) (bool, string, error) {
	f.calls++
	if f.err != nil {
		return false, "", f.err
	}
	return f.available[kind], "", nil
}

func TestConfirmTrustsTrueFlagsWithoutProbing(t *testing.T) {
	p := &fakeProber{}
	g := artifact.NewGate(p, true)
	snap, clip := g.Confirm(context.Background(), "1", true, true, true, true)
	assert.True(t, snap)
	assert.True(t, clip)
	assert.Equal(t, 0, p.calls)
}

func TestConfirmProbesWhenFlagFalseAndConfirmEnabled(t *testing.T) {
	p := &fakeProber{available: map[artifact.Kind]bool{artifact.KindSnapshot: true}}
	g := artifact.NewGate(p, true)
	snap, clip := g.Confirm(context.Background(), "1", true, true, false, false)
	assert.True(t, snap)
	assert.False(t, clip)
	assert.Equal(t, 2, p.calls)
}

func TestConfirmDoesNotProbeWhenHTTPConfirmDisabled(t *testing.T) {
	p := &fakeProber{available: map[artifact.Kind]bool{artifact.KindSnapshot: true}}
	g := artifact.NewGate(p, false)
	snap, clip := g.Confirm(context.Background(), "1", true, true, false, false)
	assert.False(t, snap)
	assert.False(t, clip)
	assert.Equal(t, 0, p.calls)
}

func TestConfirmSkipsProbeWhenRequirementNotSet(t *testing.T) {
	p := &fakeProber{}
	g := artifact.NewGate(p, true)
	snap, clip := g.Confirm(context.Background(), "1", false, false, false, false)
	assert.False(t, snap)
	assert.False(t, clip)
	assert.Equal(t, 0, p.calls)
}

func TestConfirmProbeErrorResolvesToNotYet(t *testing.T) {
	p := &fakeProber{err: errors.New("boom")}
	g := artifact.NewGate(p, true)
	snap, _ := g.Confirm(context.Background(), "1", true, false, false, false)
	assert.False(t, snap)
}

func TestConfirmNilProberSafeWhenHTTPDisabled(t *testing.T) {
	g := artifact.NewGate(nil, false)
	snap, clip := g.Confirm(context.Background(), "1", true, true, false, false)
	assert.False(t, snap)
	assert.False(t, clip)
}
