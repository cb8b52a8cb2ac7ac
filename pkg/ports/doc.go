// Package ports defines the interfaces the plugin manager depends on.
//
// Adapters under pkg/adapters implement them:
//   - RecordSink / Journal: journal/memory, journal/redis, api/websocket
//   - MetricsCollector: metrics/prometheus
package ports
