package monitor

import (
	"sync"
	"time"

	"github.com/aescanero/pluginbus/pkg/pluginmanager"
	"github.com/aescanero/pluginbus/pkg/ports"
	"go.uber.org/zap"
)

// StatsSource is the part of the manager the monitor reads
type StatsSource interface {
	Stats() pluginmanager.Stats
}

// Monitor periodically reports plugin manager statistics
type Monitor struct {
	source      StatsSource
	metrics     ports.MetricsCollector
	interval    time.Duration
	warnEntries int
	logger      *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	last    Status
}

// Status is one sample taken by the monitor
type Status struct {
	pluginmanager.Stats
	HistoryOverLimit bool
	Timestamp        time.Time
}

// NewMonitor creates a new monitor. warnEntries <= 0 disables the history
// size warning.
func NewMonitor(source StatsSource, metrics ports.MetricsCollector, interval time.Duration, warnEntries int, logger *zap.Logger) *Monitor {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Monitor{
		source:      source,
		metrics:     metrics,
		interval:    interval,
		warnEntries: warnEntries,
		logger:      logger,
	}
}

// Start starts the monitor
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})

	go m.run(m.stopCh, m.doneCh)
}

// Stop stops the monitor and waits for the loop to exit
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	stopCh, doneCh := m.stopCh, m.doneCh
	m.mu.Unlock()

	close(stopCh)
	<-doneCh
}

// run is the main monitoring loop
func (m *Monitor) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			m.Check()
		}
	}
}

// Check takes a sample, logs it and records gauges
func (m *Monitor) Check() Status {
	status := m.GetStatus()

	m.logger.Info("plugin manager stats",
		zap.Int("plugins", status.Plugins),
		zap.Int("events", status.Events),
		zap.Int("subscriptions", status.Subscriptions),
		zap.Int("history_events", status.HistoryEvents),
		zap.Int("history_entries", status.HistoryEntries))

	m.metrics.SetPluginCount(status.Plugins)
	m.metrics.SetSubscriptionCount(status.Subscriptions)
	m.metrics.SetHistorySize(status.HistoryEntries)

	if status.HistoryOverLimit {
		m.logger.Warn("event history is large and is never pruned",
			zap.Int("history_entries", status.HistoryEntries),
			zap.Int("warn_entries", m.warnEntries))
	}

	m.mu.Lock()
	m.last = status
	m.mu.Unlock()

	return status
}

// GetStatus returns a fresh sample without logging it
func (m *Monitor) GetStatus() Status {
	stats := m.source.Stats()

	return Status{
		Stats:            stats,
		HistoryOverLimit: m.warnEntries > 0 && stats.HistoryEntries > m.warnEntries,
		Timestamp:        time.Now(),
	}
}

// Last returns the sample taken by the most recent Check
func (m *Monitor) Last() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.last
}
