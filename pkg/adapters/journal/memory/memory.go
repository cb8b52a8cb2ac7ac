package memory

import (
	"context"
	"sync"

	"github.com/aescanero/pluginbus/pkg/ports"
)

// Journal implements ports.Journal with an in-memory buffer per event.
// Each buffer keeps at most maxLen records; older ones are dropped first.
type Journal struct {
	maxLen  int
	records map[string][]ports.Record
	mu      sync.RWMutex
}

// NewJournal creates a new in-memory journal. maxLen <= 0 means unbounded.
func NewJournal(maxLen int) *Journal {
	return &Journal{
		maxLen:  maxLen,
		records: make(map[string][]ports.Record),
	}
}

// Append stores rec under its event
func (j *Journal) Append(ctx context.Context, rec ports.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	buf := append(j.records[rec.Event], rec)
	if j.maxLen > 0 && len(buf) > j.maxLen {
		// Copy so the dropped prefix can be collected.
		buf = append([]ports.Record(nil), buf[len(buf)-j.maxLen:]...)
	}
	j.records[rec.Event] = buf
	return nil
}

// Read returns up to limit of the most recent records for event, oldest first
func (j *Journal) Read(ctx context.Context, event string, limit int) ([]ports.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	buf := j.records[event]
	if limit > 0 && len(buf) > limit {
		buf = buf[len(buf)-limit:]
	}

	out := make([]ports.Record, len(buf))
	copy(out, buf)
	return out, nil
}

// Close drops all records
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.records = make(map[string][]ports.Record)
	return nil
}
