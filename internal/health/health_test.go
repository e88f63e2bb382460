package health_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/technosupport/fep/internal/health"
)

type fakeProber struct {
	name string
	err  error
}

func (f fakeProber) Name() string                      { return f.name }
func (f fakeProber) Probe(ctx context.Context) error { return f.err }

func TestNotReadyBeforeAnyCheck(t *testing.T) {
	s := health.NewService(time.Hour, fakeProber{name: "mq"})
	assert.False(t, s.Ready())
}

func TestReadyAfterAllProbersHealthy(t *testing.T) {
	s := health.NewService(time.Hour, fakeProber{name: "mq"}, fakeProber{name: "frigate"})
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()

	assert.True(t, s.Ready())
	statuses := s.Statuses()
	assert.Len(t, statuses, 2)
}

func TestNotReadyWhenOneProberUnhealthy(t *testing.T) {
	s := health.NewService(time.Hour, fakeProber{name: "mq"}, fakeProber{name: "frigate", err: errors.New("down")})
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()

	assert.False(t, s.Ready())
}

type fakeAlertSink struct {
	actions []string
}

func (f *fakeAlertSink) Record(eventID, camera, label, action, reason string) {
	f.actions = append(f.actions, action)
}

func TestAlertOpensOnlyAfterGracePeriod(t *testing.T) {
	sink := &fakeAlertSink{}
	s := health.NewService(time.Hour, fakeProber{name: "mq", err: errors.New("down")}).
		WithAlerting(sink, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	time.Sleep(5 * time.Millisecond)
	cancel()
	assert.Empty(t, sink.actions, "grace period hasn't elapsed yet")
}

func TestAlertOpensAndRecoversAcrossGracePeriod(t *testing.T) {
	sink := &fakeAlertSink{}
	prober := &toggleProber{name: "mq", err: errors.New("down")}
	s := health.NewService(5*time.Millisecond, prober).WithAlerting(sink, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	assert.Eventually(t, func() bool {
		return len(sink.actions) >= 1 && sink.actions[0] == "health_alert"
	}, time.Second, 2*time.Millisecond)

	prober.setErr(nil)
	assert.Eventually(t, func() bool {
		return len(sink.actions) >= 2 && sink.actions[1] == "health_recovered"
	}, time.Second, 2*time.Millisecond)
}

type toggleProber struct {
	name string
	mu   sync.Mutex
	err  error
}

func (p *toggleProber) Name() string { return p.name }

func (p *toggleProber) Probe(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *toggleProber) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func TestHTTPProberHealthyOn2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := health.NewHTTPProber("frigate", srv.URL, nil)
	err := p.Probe(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "frigate", p.Name())
}

func TestHTTPProberUnhealthyOnConnectionError(t *testing.T) {
	p := health.NewHTTPProber("frigate", "http://127.0.0.1:1", nil)
	err := p.Probe(context.Background())
	assert.Error(t, err)
}
