package pluginmanager

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Manager is a container for plugins with a built-in publish/subscribe bus
// that lets those plugins communicate with one another.
//
// All methods are safe for concurrent use. Callbacks, Init hooks and sinks
// run without the internal lock held, so they may call back into the
// manager. Size gauges are set while the lock is held so they follow the
// order of mutations.
type Manager struct {
	cfg    config
	logger *zap.Logger

	mu            sync.Mutex
	plugins       []Plugin
	listeners     map[string][]*Listener
	subscriptions int
	history       map[string][][]any
	entries       int
	seq           uint64
}

// Stats is a point-in-time summary of a manager's state.
type Stats struct {
	Plugins        int `json:"plugins"`
	Events         int `json:"events"`
	Subscriptions  int `json:"subscriptions"`
	HistoryEvents  int `json:"history_events"`
	HistoryEntries int `json:"history_entries"`
}

// New creates an empty manager
func New(opts ...Option) *Manager {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Manager{
		cfg:       cfg,
		logger:    cfg.logger,
		listeners: make(map[string][]*Listener),
		history:   make(map[string][][]any),
	}
}

// Add registers p with the manager. p is attached and its Init hook runs
// before Add appends it and returns. A nil plugin, including a typed nil
// pointer, is ignored.
func (m *Manager) Add(p Plugin) *Manager {
	if isNilPlugin(p) {
		m.logger.Warn("ignoring nil plugin")
		return m
	}

	p.Attach(m)
	p.Init()

	m.mu.Lock()
	m.plugins = append(m.plugins, p)
	count := len(m.plugins)
	m.cfg.metrics.SetPluginCount(count)
	m.mu.Unlock()

	m.logger.Debug("plugin added",
		zap.String("plugin", PluginName(p)),
		zap.Int("plugins", count))

	return m
}

// Remove unregisters the most recently added occurrence of p. It is not an
// error for p to be absent. Once no occurrence of p remains, p is detached.
func (m *Manager) Remove(p Plugin) *Manager {
	if isNilPlugin(p) {
		return m
	}

	m.mu.Lock()
	removed := false
	for i := len(m.plugins) - 1; i >= 0; i-- {
		if samePlugin(m.plugins[i], p) {
			m.plugins = append(m.plugins[:i], m.plugins[i+1:]...)
			removed = true
			break
		}
	}
	member := m.containsLocked(p)
	count := len(m.plugins)
	if removed {
		m.cfg.metrics.SetPluginCount(count)
	}
	m.mu.Unlock()

	if !removed {
		return m
	}

	if !member && p.Manager() == m {
		p.Detach()
	}

	m.logger.Debug("plugin removed",
		zap.String("plugin", PluginName(p)),
		zap.Int("plugins", count))

	return m
}

// AddAny is Add for values whose type is only known at runtime, such as
// plugins produced by a loader. It fails with ErrNotPlugin when v does not
// implement Plugin or is a nil plugin value.
func (m *Manager) AddAny(v any) (*Manager, error) {
	p, ok := v.(Plugin)
	if !ok || isNilPlugin(p) {
		return m, newTypeError("add", v)
	}
	return m.Add(p), nil
}

// RemoveAny is the runtime-typed counterpart of Remove.
func (m *Manager) RemoveAny(v any) (*Manager, error) {
	p, ok := v.(Plugin)
	if !ok || isNilPlugin(p) {
		return m, newTypeError("remove", v)
	}
	return m.Remove(p), nil
}

// Plugins returns the attached plugins in the order they were added
func (m *Manager) Plugins() []Plugin {
	m.mu.Lock()
	defer m.mu.Unlock()

	plugins := make([]Plugin, len(m.plugins))
	copy(plugins, m.plugins)
	return plugins
}

// Contains reports whether p is currently attached
func (m *Manager) Contains(p Plugin) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.containsLocked(p)
}

func (m *Manager) containsLocked(p Plugin) bool {
	for _, q := range m.plugins {
		if samePlugin(q, p) {
			return true
		}
	}
	return false
}

// On binds l to event. Empty event names and nil or empty listeners are
// ignored. Binding the same listener twice makes it fire twice.
func (m *Manager) On(event string, l *Listener) *Manager {
	if event == "" || !l.valid() {
		return m
	}

	m.mu.Lock()
	m.listeners[event] = append(m.listeners[event], l)
	m.subscriptions++
	m.cfg.metrics.SetSubscriptionCount(m.subscriptions)
	m.mu.Unlock()

	return m
}

// OnFunc binds fn to event and returns the listener handle needed to Off it.
// It returns nil when nothing was bound.
func (m *Manager) OnFunc(event string, fn Func) *Listener {
	if event == "" || fn == nil {
		return nil
	}

	l := NewListener(fn)
	m.On(event, l)
	return l
}

// Off unbinds every occurrence of l from event
func (m *Manager) Off(event string, l *Listener) *Manager {
	if l == nil {
		return m
	}

	m.mu.Lock()
	targets, ok := m.listeners[event]
	if !ok {
		m.mu.Unlock()
		return m
	}

	// Rebuild rather than splice in place: dispatch may hold a snapshot.
	kept := make([]*Listener, 0, len(targets))
	for _, t := range targets {
		if t != l {
			kept = append(kept, t)
		}
	}
	m.subscriptions -= len(targets) - len(kept)
	if len(kept) == 0 {
		delete(m.listeners, event)
	} else {
		m.listeners[event] = kept
	}
	m.cfg.metrics.SetSubscriptionCount(m.subscriptions)
	m.mu.Unlock()

	return m
}

// Listeners returns the number of listeners bound to event
func (m *Manager) Listeners(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.listeners[event])
}

// Events returns the sorted names of all events that have listeners or
// history.
func (m *Manager) Events() []string {
	m.mu.Lock()
	seen := make(map[string]struct{}, len(m.listeners)+len(m.history))
	for name := range m.listeners {
		seen[name] = struct{}{}
	}
	for name := range m.history {
		seen[name] = struct{}{}
	}
	m.mu.Unlock()

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats returns a snapshot of the manager's sizes
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Stats{
		Plugins:        len(m.plugins),
		Events:         len(m.listeners),
		Subscriptions:  m.subscriptions,
		HistoryEvents:  len(m.history),
		HistoryEntries: m.entries,
	}
}
