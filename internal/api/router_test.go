package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/fep/internal/adminauth"
	"github.com/technosupport/fep/internal/admission"
	"github.com/technosupport/fep/internal/api"
	"github.com/technosupport/fep/internal/artifact"
	"github.com/technosupport/fep/internal/clock"
	"github.com/technosupport/fep/internal/cooldown"
	"github.com/technosupport/fep/internal/metrics"
	"github.com/technosupport/fep/internal/rules"
	"github.com/technosupport/fep/internal/stationary"
)

func newTestEngine() *admission.Engine {
	return admission.New(admission.Config{
		Clock:   clock.New(),
		Ledger:  cooldown.New(),
		Tracker: stationary.New(stationary.Config{Enabled: false}),
		Gate:    artifact.NewGate(nil, false),
		RuleSet: rules.RuleSet{},
	})
}

func TestRouterHealthz(t *testing.T) {
	r := api.NewRouter(api.Dependencies{Engine: newTestEngine()})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterReadyzOkWithNoHealthService(t *testing.T) {
	r := api.NewRouter(api.Dependencies{Engine: newTestEngine()})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterDebugEventsRequiresAuthWhenTokenConfigured(t *testing.T) {
	hash, err := adminauth.HashToken("s3cret")
	require.NoError(t, err)

	r := api.NewRouter(api.Dependencies{Engine: newTestEngine(), AdminTokenHash: hash})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/debug/events", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest("GET", "/debug/events", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestRouterDebugEventsOpenWithNoTokenConfigured(t *testing.T) {
	r := api.NewRouter(api.Dependencies{Engine: newTestEngine()})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/debug/events", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterDebugReloadNotImplementedWithoutHook(t *testing.T) {
	r := api.NewRouter(api.Dependencies{Engine: newTestEngine()})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/debug/reload", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestRouterDebugReloadInvokesHook(t *testing.T) {
	called := false
	r := api.NewRouter(api.Dependencies{
		Engine: newTestEngine(),
		Reload: func() error { called = true; return nil },
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/debug/reload", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestRouterMetricsEndpointScrapes(t *testing.T) {
	collector := metrics.NewCollector()
	collector.ObserveAdmit("front_door", "person")

	r := api.NewRouter(api.Dependencies{Engine: newTestEngine(), Metrics: collector})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "front_door")
}
