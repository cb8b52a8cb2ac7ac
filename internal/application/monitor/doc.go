// Package monitor implements the periodic plugin manager reporter.
//
// The monitor samples Manager.Stats on an interval, logs the sample,
// mirrors it into gauges and warns when history grows past a soft limit.
// History is never pruned, so the warning is the only guard.
package monitor
