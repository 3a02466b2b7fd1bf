// Package metrics exports battery status as Prometheus metrics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/battind/battind/pkg/batteryinfo"
	"github.com/battind/battind/pkg/poller"
)

const namespace = "battind"

var (
	percentageDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "battery", "percentage"),
		"Charge level in percent of the current full capacity.",
		nil, nil,
	)
	healthDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "battery", "health_percent"),
		"Full charge capacity in percent of the design capacity.",
		nil, nil,
	)
	timeRemainingDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "battery", "time_remaining_minutes"),
		"Estimated minutes until empty.",
		nil, nil,
	)
	chargingDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "battery", "charging"),
		"1 if the battery is charging.",
		nil, nil,
	)
	pluggedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "battery", "plugged"),
		"1 if running on AC power.",
		nil, nil,
	)
)

// Metrics owns a private registry, so that battind metrics are not mixed
// with anything registered globally.
type Metrics struct {
	registry *prometheus.Registry

	cycles     prometheus.Counter
	emptyReads prometheus.Counter

	mu     sync.RWMutex
	latest *batteryinfo.Info
}

// New creates and registers all battind metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Total poll cycles.",
		}),
		emptyReads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_empty_reads_total",
			Help:      "Poll cycles whose read returned no power source records.",
		}),
	}

	m.registry.MustRegister(m.cycles, m.emptyReads, (*batteryCollector)(m))
	return m
}

// Observe records one poll result. It has the poller.Observer signature.
func (m *Metrics) Observe(u poller.Update) {
	m.cycles.Inc()
	if u.Records == 0 {
		m.emptyReads.Inc()
	}

	info := u.Info
	m.mu.Lock()
	m.latest = &info
	m.mu.Unlock()
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// batteryCollector exports the latest Info. Absent fields produce no
// sample at all rather than a zero.
type batteryCollector Metrics

func (c *batteryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- percentageDesc
	ch <- healthDesc
	ch <- timeRemainingDesc
	ch <- chargingDesc
	ch <- pluggedDesc
}

func (c *batteryCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	info := c.latest
	c.mu.RUnlock()

	if info == nil {
		return
	}

	if info.Percentage != nil {
		ch <- prometheus.MustNewConstMetric(percentageDesc, prometheus.GaugeValue, *info.Percentage)
	}
	if info.BatteryHealth != nil {
		ch <- prometheus.MustNewConstMetric(healthDesc, prometheus.GaugeValue, *info.BatteryHealth)
	}
	if info.TimeRemaining != nil {
		ch <- prometheus.MustNewConstMetric(timeRemainingDesc, prometheus.GaugeValue, float64(*info.TimeRemaining))
	}
	ch <- prometheus.MustNewConstMetric(chargingDesc, prometheus.GaugeValue, boolToFloat(info.IsCharging))
	ch <- prometheus.MustNewConstMetric(pluggedDesc, prometheus.GaugeValue, boolToFloat(info.IsPlugged))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
