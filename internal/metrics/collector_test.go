package metrics_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/technosupport/fep/internal/metrics"
)

func scrape(t *testing.T, c *metrics.Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	c.Handler().ServeHTTP(rec, req)
	require.Equal(t, 200, rec.Code)
	return rec.Body.String()
}

func TestObserveAdmitIncrementsCounter(t *testing.T) {
	c := metrics.NewCollector()
	c.ObserveAdmit("front", "person")
	body := scrape(t, c)
	assert.Contains(t, body, `fep_events_admitted_total{camera="front",label="person"} 1`)
}

func TestObserveDenyIncludesReasonLabel(t *testing.T) {
	c := metrics.NewCollector()
	c.ObserveDeny("front", "person", "label")
	body := scrape(t, c)
	assert.Contains(t, body, `reason="label"`)
}

func TestObservePublishOutcomeLabel(t *testing.T) {
	c := metrics.NewCollector()
	c.ObservePublish("front", "person", true)
	c.ObservePublish("front", "person", false)
	body := scrape(t, c)
	assert.Contains(t, body, `outcome="ok"`)
	assert.Contains(t, body, `outcome="fail"`)
}

func TestObserveTableSizeSetsGauge(t *testing.T) {
	c := metrics.NewCollector()
	c.ObserveTableSize(42)
	body := scrape(t, c)
	assert.True(t, strings.Contains(body, "fep_event_table_size 42"))
}
