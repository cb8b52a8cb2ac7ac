package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Record describes a single Trigger call as stored in history
type Record struct {
	ID         string    `json:"id"`
	Seq        uint64    `json:"seq"`
	Event      string    `json:"event"`
	Args       []any     `json:"args"`
	RecordedAt time.Time `json:"recorded_at"`
}

// RecordSink receives every record after it has been added to history
type RecordSink interface {
	Append(ctx context.Context, rec Record) error
}

// Journal is a readable RecordSink. Journals export trigger activity;
// they are never loaded back into a manager's history.
type Journal interface {
	RecordSink

	// Read returns up to limit of the most recent records for event,
	// oldest first. A limit <= 0 returns everything retained.
	Read(ctx context.Context, event string, limit int) ([]Record, error)

	Close() error
}

// EncodableArgs returns args with every value that has no JSON encoding,
// such as a func, a chan or NaN, replaced by its %v rendering. args is
// returned as is when every value encodes.
func EncodableArgs(args []any) []any {
	var out []any
	for i, arg := range args {
		if _, err := json.Marshal(arg); err == nil {
			if out != nil {
				out[i] = arg
			}
			continue
		}
		if out == nil {
			out = make([]any, len(args))
			copy(out, args[:i])
		}
		out[i] = fmt.Sprintf("%v", arg)
	}
	if out == nil {
		return args
	}
	return out
}

// EncodeRecord returns the JSON encoding of rec. When some argument has no
// JSON encoding the record is encoded with EncodableArgs instead and
// degraded is true.
func EncodeRecord(rec Record) (data []byte, degraded bool, err error) {
	data, err = json.Marshal(rec)
	if err == nil {
		return data, false, nil
	}

	rec.Args = EncodableArgs(rec.Args)
	data, err = json.Marshal(rec)
	if err != nil {
		return nil, true, fmt.Errorf("failed to marshal record: %w", err)
	}
	return data, true, nil
}
