package pluginmanager

import (
	"time"

	"github.com/aescanero/pluginbus/pkg/ports"
	"go.uber.org/zap"
)

// Option configures a Manager.
type Option func(*config)

type namedSink struct {
	name string
	sink ports.RecordSink
}

type config struct {
	logger      *zap.Logger
	metrics     ports.MetricsCollector
	sinks       []namedSink
	sinkTimeout time.Duration
	clock       func() time.Time
}

func defaultConfig() config {
	return config{
		logger:      zap.NewNop(),
		metrics:     ports.NopMetrics{},
		sinkTimeout: 2 * time.Second,
		clock:       time.Now,
	}
}

// WithLogger sets the logger used for debug and sink failure messages.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(metrics ports.MetricsCollector) Option {
	return func(c *config) {
		if metrics != nil {
			c.metrics = metrics
		}
	}
}

// WithSink adds a record sink. Sinks receive records in the order they
// were added, synchronously, after the record is in history.
func WithSink(name string, sink ports.RecordSink) Option {
	return func(c *config) {
		if sink != nil {
			c.sinks = append(c.sinks, namedSink{name: name, sink: sink})
		}
	}
}

// WithSinkTimeout bounds each sink Append call.
func WithSinkTimeout(timeout time.Duration) Option {
	return func(c *config) {
		if timeout > 0 {
			c.sinkTimeout = timeout
		}
	}
}

// WithClock overrides the time source used to stamp records.
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}
