// Package http provides the read-only HTTP admin API.
//
// The HTTP server exposes endpoints for:
//   - Plugin, event and history inspection
//   - Journal reads
//   - The live trace WebSocket
//   - Health checks
//   - Prometheus metrics
package http
