// Package plugins groups the plugins bundled with the pluginbus binary.
//
//   - heartbeat: publishes a "heartbeat" event on an interval
//   - audit: catches up on and then follows a set of events, counting them
package plugins
