package audit

import (
	"sync"

	"github.com/aescanero/pluginbus/pkg/pluginmanager"
	"go.uber.org/zap"
)

// Plugin follows a fixed set of events. On Init it subscribes to them and
// replays their history, so it sees every call no matter when it is added.
type Plugin struct {
	pluginmanager.Base

	events []string
	logger *zap.Logger

	mu        sync.Mutex
	listeners map[string]*pluginmanager.Listener
	observed  map[string]int
	replayed  map[string]int
}

// New creates an audit plugin following events. Empty and repeated names
// are dropped.
func New(events []string, logger *zap.Logger) *Plugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Plugin{
		events:    uniqueEvents(events),
		logger:    logger,
		listeners: make(map[string]*pluginmanager.Listener),
		observed:  make(map[string]int),
		replayed:  make(map[string]int),
	}
}

// Name implements pluginmanager.Named
func (p *Plugin) Name() string { return "audit" }

// Attach sets the owning manager
func (p *Plugin) Attach(m *pluginmanager.Manager) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Base.Attach(m)
}

// Manager returns the owning manager
func (p *Plugin) Manager() *pluginmanager.Manager {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Base.Manager()
}

// Init subscribes to the followed events and catches up on their history
func (p *Plugin) Init() {
	m := p.Manager()

	p.mu.Lock()
	for _, event := range p.events {
		if _, ok := p.listeners[event]; ok {
			continue
		}
		p.listeners[event] = pluginmanager.NewListener(p.liveFunc(event))
	}
	listeners := make(map[string]*pluginmanager.Listener, len(p.listeners))
	for event, l := range p.listeners {
		listeners[event] = l
	}
	p.mu.Unlock()

	for _, event := range p.events {
		m.On(event, listeners[event])
	}
	m.ReplayAll(p.events, pluginmanager.NewListener(p.handleReplay))

	p.logger.Info("audit plugin attached",
		zap.Strings("events", p.events),
		zap.Int("replayed", p.Replayed()))
}

// Detach clears the manager reference and unsubscribes from the followed
// events
func (p *Plugin) Detach() {
	p.mu.Lock()
	m := p.Base.Manager()
	listeners := p.listeners
	p.listeners = make(map[string]*pluginmanager.Listener)
	p.Base.Detach()
	p.mu.Unlock()

	if m == nil {
		return
	}
	for event, l := range listeners {
		m.Off(event, l)
	}
}

func (p *Plugin) liveFunc(event string) pluginmanager.Func {
	return func(args ...any) {
		p.mu.Lock()
		p.observed[event]++
		p.mu.Unlock()

		p.logger.Debug("event observed",
			zap.String("event", event),
			zap.Int("args", len(args)))
	}
}

// handleReplay handles one replayed call; the event name is the first argument
func (p *Plugin) handleReplay(args ...any) {
	if len(args) == 0 {
		return
	}
	event, ok := args[0].(string)
	if !ok {
		return
	}

	p.mu.Lock()
	p.replayed[event]++
	p.mu.Unlock()
}

// Observed returns how many live calls of event the plugin has seen
func (p *Plugin) Observed(event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.observed[event]
}

// Replayed returns how many history entries were replayed into the plugin
func (p *Plugin) Replayed() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := 0
	for _, n := range p.replayed {
		total += n
	}
	return total
}

// Seen returns replayed plus observed calls per followed event
func (p *Plugin) Seen() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]int, len(p.events))
	for _, event := range p.events {
		out[event] = p.observed[event] + p.replayed[event]
	}
	return out
}

func uniqueEvents(events []string) []string {
	seen := make(map[string]struct{}, len(events))
	out := make([]string, 0, len(events))
	for _, event := range events {
		if event == "" {
			continue
		}
		if _, ok := seen[event]; ok {
			continue
		}
		seen[event] = struct{}{}
		out = append(out, event)
	}
	return out
}
