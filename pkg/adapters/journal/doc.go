// Package journal provides record journal implementations.
//
// Implementations:
//   - redis: one Redis Stream per event, trimmed to a maximum length
//   - memory: bounded in-process buffer, used by default and in tests
package journal
