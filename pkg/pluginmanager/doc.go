// Package pluginmanager implements an in-process publish/subscribe registry
// that lets independently written plugins talk to each other without holding
// references to one another.
//
// A Manager owns three things:
//   - the attached plugins, in the order they were added
//   - the listeners per event name, in subscription order
//   - an append-only history of every Trigger call per event name
//
// Trigger records its arguments before dispatching them synchronously to a
// snapshot of the current listeners. Replay reads the recorded history back
// into a listener so a plugin added late can catch up on what it missed.
//
// Example usage:
//
//	m := pluginmanager.New(pluginmanager.WithLogger(logger))
//	m.Trigger("config.loaded", cfg)
//
//	l := pluginmanager.NewListener(func(args ...any) { ... })
//	m.On("config.loaded", l).Replay("config.loaded", l)
package pluginmanager
