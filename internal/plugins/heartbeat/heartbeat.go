package heartbeat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aescanero/pluginbus/pkg/pluginmanager"
	"go.uber.org/zap"
)

// Event is the event name the plugin triggers. Listeners receive the beat
// sequence number (uint64) and the UTC time of the beat.
const Event = "heartbeat"

var (
	// ErrNotAttached is returned by Start when the plugin has no manager.
	ErrNotAttached = errors.New("heartbeat plugin is not attached to a manager")

	// ErrAlreadyRunning is returned by Start when the loop is running.
	ErrAlreadyRunning = errors.New("heartbeat plugin is already running")
)

// Plugin triggers Event every interval while running
type Plugin struct {
	pluginmanager.Base

	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a heartbeat plugin
func New(interval time.Duration, logger *zap.Logger) *Plugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Plugin{
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Name implements pluginmanager.Named
func (p *Plugin) Name() string { return "heartbeat" }

// Attach sets the owning manager
func (p *Plugin) Attach(m *pluginmanager.Manager) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Base.Attach(m)
}

// Detach clears the owning manager
func (p *Plugin) Detach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Base.Detach()
}

// Manager returns the owning manager
func (p *Plugin) Manager() *pluginmanager.Manager {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Base.Manager()
}

// Init logs the attachment; the plugin only publishes
func (p *Plugin) Init() {
	p.logger.Info("heartbeat plugin attached", zap.Duration("interval", p.interval))
}

// Beat triggers one heartbeat. It is a no-op while detached.
func (p *Plugin) Beat() {
	p.mu.Lock()
	m := p.Base.Manager()
	if m == nil {
		p.mu.Unlock()
		return
	}
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	m.Trigger(Event, seq, p.now().UTC())
}

// Start begins the beat loop. It stops when ctx is done or Shutdown is called.
func (p *Plugin) Start(ctx context.Context) error {
	if p.interval <= 0 {
		return fmt.Errorf("invalid heartbeat interval: %s", p.interval)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Base.Manager() == nil {
		return ErrNotAttached
	}
	if p.cancel != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.run(ctx)

	p.logger.Info("heartbeat started", zap.Duration("interval", p.interval))
	return nil
}

// run is the beat loop
func (p *Plugin) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Beat()
		}
	}
}

// Shutdown stops the beat loop and waits for it to exit
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("heartbeat stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}
