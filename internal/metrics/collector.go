package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements admission.Metrics, publishing per-camera/per-label
// admission counters plus a table-size gauge to its own registry.
type Collector struct {
	registry *prometheus.Registry

	admitted   *prometheus.CounterVec
	denied     *prometheus.CounterVec
	suppressed *prometheus.CounterVec
	published  *prometheus.CounterVec
	tableSize  prometheus.Gauge
}

// NewCollector builds a Collector with its own registry so admin/metrics
// exposure doesn't pull in process/Go-runtime collectors registered
// elsewhere in the binary.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{registry: reg}

	c.admitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fep_events_admitted_total",
		Help: "Number of events admitted by the rule evaluator.",
	}, []string{"camera", "label"})
	reg.MustRegister(c.admitted)

	c.denied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fep_events_denied_total",
		Help: "Number of events denied by the rule evaluator, by reason.",
	}, []string{"camera", "label", "reason"})
	reg.MustRegister(c.denied)

	c.suppressed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fep_events_suppressed_total",
		Help: "Number of events that settled Suppressed, by reason.",
	}, []string{"camera", "label", "reason"})
	reg.MustRegister(c.suppressed)

	c.published = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fep_alerts_published_total",
		Help: "Number of alert publish attempts, by outcome.",
	}, []string{"camera", "label", "outcome"})
	reg.MustRegister(c.published)

	c.tableSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fep_event_table_size",
		Help: "Current number of live records held in the event table.",
	})
	reg.MustRegister(c.tableSize)

	return c
}

// Handler exposes the collector's registry over the /metrics admin route.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveAdmit(camera, label string) {
	c.admitted.WithLabelValues(camera, label).Inc()
}

func (c *Collector) ObserveDeny(camera, label, reason string) {
	c.denied.WithLabelValues(camera, label, reason).Inc()
}

func (c *Collector) ObserveSuppress(camera, label, reason string) {
	c.suppressed.WithLabelValues(camera, label, reason).Inc()
}

func (c *Collector) ObservePublish(camera, label string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "fail"
	}
	c.published.WithLabelValues(camera, label, outcome).Inc()
}

func (c *Collector) ObserveTableSize(n int) {
	c.tableSize.Set(float64(n))
}
