package pluginmanager

import (
	"context"
	"time"

	"github.com/aescanero/pluginbus/pkg/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Trigger records args under event and then calls every listener bound to
// event, in subscription order, with args. The listener list is captured
// before the first call, so listeners added or removed by a callback only
// affect later triggers.
func (m *Manager) Trigger(event string, args ...any) *Manager {
	m.mu.Lock()
	rec := m.recordLocked(event, args)
	targets := m.listeners[event]
	targets = targets[:len(targets):len(targets)]
	m.cfg.metrics.SetHistorySize(m.entries)
	m.mu.Unlock()

	m.publish(rec)

	start := time.Now()
	for _, l := range targets {
		l.fn(args...)
	}

	m.cfg.metrics.RecordTrigger(event, len(targets), time.Since(start))
	m.logger.Debug("event triggered",
		zap.String("event", event),
		zap.Uint64("seq", rec.Seq),
		zap.Int("listeners", len(targets)))

	return m
}

// recordLocked appends a private copy of args to the history of event.
// Callers must hold m.mu.
func (m *Manager) recordLocked(event string, args []any) ports.Record {
	entry := cloneArgs(args)
	m.history[event] = append(m.history[event], entry)
	m.entries++
	m.seq++

	return ports.Record{
		ID:         uuid.NewString(),
		Seq:        m.seq,
		Event:      event,
		Args:       cloneArgs(entry),
		RecordedAt: m.cfg.clock(),
	}
}

// publish hands rec to every configured sink. Sink failures are logged and
// counted, never returned.
func (m *Manager) publish(rec ports.Record) {
	for _, s := range m.cfg.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.sinkTimeout)
		err := s.sink.Append(ctx, rec)
		cancel()

		if err != nil {
			m.cfg.metrics.RecordSinkFailure(s.name)
			m.logger.Warn("record sink append failed",
				zap.String("sink", s.name),
				zap.String("event", rec.Event),
				zap.Uint64("seq", rec.Seq),
				zap.Error(err))
		}
	}
}

// Replay calls l once for every recorded Trigger of event, oldest first,
// with the event name prepended to the recorded arguments. It does not bind
// l to event. Stored history is left untouched, so replaying twice yields
// the same calls.
func (m *Manager) Replay(event string, l *Listener) *Manager {
	if !l.valid() {
		return m
	}

	m.mu.Lock()
	entries := m.history[event]
	// History entries are never modified once appended; a capped view is
	// safe to read without the lock.
	entries = entries[:len(entries):len(entries)]
	m.mu.Unlock()

	if len(entries) == 0 {
		return m
	}

	for _, args := range entries {
		call := make([]any, 0, len(args)+1)
		call = append(call, event)
		call = append(call, args...)
		l.fn(call...)
	}

	m.cfg.metrics.RecordReplay(event, len(entries))
	m.logger.Debug("history replayed",
		zap.String("event", event),
		zap.Int("entries", len(entries)))

	return m
}

// ReplayAll replays each event in order against l.
func (m *Manager) ReplayAll(events []string, l *Listener) *Manager {
	for _, event := range events {
		m.Replay(event, l)
	}
	return m
}

// History returns a copy of the argument lists recorded for event, oldest
// first, or nil when event was never triggered.
func (m *Manager) History(event string) [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, ok := m.history[event]
	if !ok {
		return nil
	}

	out := make([][]any, len(entries))
	for i, args := range entries {
		out[i] = cloneArgs(args)
	}
	return out
}

// HistoryLen returns the number of recorded triggers of event
func (m *Manager) HistoryLen(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.history[event])
}

func cloneArgs(args []any) []any {
	out := make([]any, len(args))
	copy(out, args)
	return out
}
