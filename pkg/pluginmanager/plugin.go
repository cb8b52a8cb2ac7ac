package pluginmanager

import (
	"fmt"
	"reflect"
)

// Plugin is a unit that can be attached to a Manager.
//
// Manager.Add calls Attach and then Init. Plugins normally embed Base and
// only override Init to register their listeners.
type Plugin interface {
	// Attach stores the owning manager. Only Manager.Add should call it.
	Attach(m *Manager)

	// Detach clears the owning manager.
	Detach()

	// Manager returns the owning manager, or nil when detached.
	Manager() *Manager

	// Init runs once per Add, right after Attach.
	Init()
}

// Named is implemented by plugins that want a readable name in logs and
// the admin API.
type Named interface {
	Name() string
}

// Base provides the back-reference bookkeeping of Plugin and a no-op Init.
type Base struct {
	manager *Manager
}

// Attach sets the owning manager
func (b *Base) Attach(m *Manager) {
	b.manager = m
}

// Detach clears the owning manager
func (b *Base) Detach() {
	b.manager = nil
}

// Manager returns the owning manager
func (b *Base) Manager() *Manager {
	return b.manager
}

// Init does nothing
func (b *Base) Init() {}

// PluginName returns p's Name when it implements Named, its Go type otherwise.
func PluginName(p Plugin) string {
	if n, ok := p.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", p)
}

// isNilPlugin reports whether p is nil or wraps a nil pointer, map, slice,
// func, chan or interface.
func isNilPlugin(p Plugin) bool {
	if p == nil {
		return true
	}
	v := reflect.ValueOf(p)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// samePlugin reports whether a and b are the same plugin instance.
// Non-comparable dynamic types never match instead of panicking.
func samePlugin(a, b Plugin) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
