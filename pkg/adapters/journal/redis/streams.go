package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aescanero/pluginbus/pkg/ports"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StreamsJournal implements ports.Journal using one Redis Stream per event
type StreamsJournal struct {
	client *redis.Client
	logger *zap.Logger
	prefix string
	maxLen int64
}

// NewStreamsJournal creates a new Redis Streams journal. Streams are
// trimmed to roughly maxLen entries; maxLen <= 0 disables trimming.
func NewStreamsJournal(client *redis.Client, prefix string, maxLen int64, logger *zap.Logger) (*StreamsJournal, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if prefix == "" {
		return nil, fmt.Errorf("stream prefix is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &StreamsJournal{
		client: client,
		logger: logger,
		prefix: prefix,
		maxLen: maxLen,
	}, nil
}

// Append adds rec to the stream of its event. Arguments without a JSON
// encoding are stored as their %v rendering.
func (j *StreamsJournal) Append(ctx context.Context, rec ports.Record) error {
	streamKey := j.streamKey(rec.Event)

	data, degraded, err := ports.EncodeRecord(rec)
	if err != nil {
		return err
	}
	if degraded {
		j.logger.Warn("record arguments not JSON encodable, journaling printable form",
			zap.String("event", rec.Event),
			zap.Uint64("seq", rec.Seq))
	}

	args := &redis.XAddArgs{
		Stream: streamKey,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}
	if j.maxLen > 0 {
		args.MaxLen = j.maxLen
		args.Approx = true
	}

	id, err := j.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to add to stream: %w", err)
	}

	j.logger.Debug("record journaled",
		zap.String("record_id", rec.ID),
		zap.String("event", rec.Event),
		zap.Uint64("seq", rec.Seq),
		zap.String("stream", streamKey),
		zap.String("message_id", id))

	return nil
}

// Read returns up to limit of the most recent records for event, oldest first
func (j *StreamsJournal) Read(ctx context.Context, event string, limit int) ([]ports.Record, error) {
	streamKey := j.streamKey(event)

	var (
		messages []redis.XMessage
		err      error
	)
	if limit > 0 {
		messages, err = j.client.XRevRangeN(ctx, streamKey, "+", "-", int64(limit)).Result()
	} else {
		messages, err = j.client.XRevRange(ctx, streamKey, "+", "-").Result()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}

	records := make([]ports.Record, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		rec, err := decodeMessage(messages[i])
		if err != nil {
			j.logger.Error("skipping undecodable journal entry",
				zap.String("stream", streamKey),
				zap.String("message_id", messages[i].ID),
				zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// Close is a no-op; the Redis client is owned and closed by the caller
func (j *StreamsJournal) Close() error {
	return nil
}

// decodeMessage extracts the record stored in a stream message
func decodeMessage(message redis.XMessage) (ports.Record, error) {
	data, ok := message.Values["data"].(string)
	if !ok {
		return ports.Record{}, fmt.Errorf("invalid message format")
	}

	var rec ports.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return ports.Record{}, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return rec, nil
}

// streamKey returns the Redis stream key for an event
func (j *StreamsJournal) streamKey(event string) string {
	return fmt.Sprintf("%s:%s", j.prefix, event)
}
