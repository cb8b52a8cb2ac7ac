package ports

import "time"

// MetricsCollector records plugin manager activity. The Set methods are
// called with the manager's lock held and must not call back into it.
type MetricsCollector interface {
	RecordTrigger(event string, listeners int, duration time.Duration)
	RecordReplay(event string, entries int)
	RecordSinkFailure(sink string)
	SetPluginCount(count int)
	SetSubscriptionCount(count int)
	SetHistorySize(entries int)
}

// NopMetrics discards everything
type NopMetrics struct{}

func (NopMetrics) RecordTrigger(string, int, time.Duration) {}
func (NopMetrics) RecordReplay(string, int)                 {}
func (NopMetrics) RecordSinkFailure(string)                 {}
func (NopMetrics) SetPluginCount(int)                       {}
func (NopMetrics) SetSubscriptionCount(int)                 {}
func (NopMetrics) SetHistorySize(int)                       {}
