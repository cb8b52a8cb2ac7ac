package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements ports.MetricsCollector using Prometheus
type Collector struct {
	triggers         *prometheus.CounterVec
	deliveries       *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	replays          *prometheus.CounterVec
	replayedEntries  *prometheus.CounterVec
	sinkFailures     *prometheus.CounterVec
	plugins          prometheus.Gauge
	subscriptions    prometheus.Gauge
	historyEntries   prometheus.Gauge
}

// NewCollector creates a new Prometheus metrics collector registered on reg.
// A nil reg uses the default registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		triggers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pluginbus_triggers_total",
				Help: "Total number of triggered events",
			},
			[]string{"event"},
		),
		deliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pluginbus_deliveries_total",
				Help: "Total number of listener invocations",
			},
			[]string{"event"},
		),
		dispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pluginbus_dispatch_duration_seconds",
				Help:    "Time spent invoking listeners for one trigger",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"event"},
		),
		replays: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pluginbus_replays_total",
				Help: "Total number of history replays that delivered at least one entry",
			},
			[]string{"event"},
		),
		replayedEntries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pluginbus_replayed_entries_total",
				Help: "Total number of history entries delivered by replays",
			},
			[]string{"event"},
		),
		sinkFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pluginbus_sink_failures_total",
				Help: "Total number of failed record sink appends",
			},
			[]string{"sink"},
		),
		plugins: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pluginbus_plugins",
				Help: "Number of attached plugins",
			},
		),
		subscriptions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pluginbus_subscriptions",
				Help: "Number of bound listeners across all events",
			},
		),
		historyEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pluginbus_history_entries",
				Help: "Number of recorded history entries across all events",
			},
		),
	}
}

// RecordTrigger records one trigger and its dispatch
func (c *Collector) RecordTrigger(event string, listeners int, duration time.Duration) {
	c.triggers.WithLabelValues(event).Inc()
	c.deliveries.WithLabelValues(event).Add(float64(listeners))
	c.dispatchDuration.WithLabelValues(event).Observe(duration.Seconds())
}

// RecordReplay records a replay of entries history entries
func (c *Collector) RecordReplay(event string, entries int) {
	c.replays.WithLabelValues(event).Inc()
	c.replayedEntries.WithLabelValues(event).Add(float64(entries))
}

// RecordSinkFailure increments the failure count of a record sink
func (c *Collector) RecordSinkFailure(sink string) {
	c.sinkFailures.WithLabelValues(sink).Inc()
}

// SetPluginCount sets the number of attached plugins
func (c *Collector) SetPluginCount(count int) {
	c.plugins.Set(float64(count))
}

// SetSubscriptionCount sets the number of bound listeners
func (c *Collector) SetSubscriptionCount(count int) {
	c.subscriptions.Set(float64(count))
}

// SetHistorySize sets the number of recorded history entries
func (c *Collector) SetHistorySize(entries int) {
	c.historyEntries.Set(float64(entries))
}
