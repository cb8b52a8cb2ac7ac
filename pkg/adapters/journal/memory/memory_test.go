package memory

import (
	"context"
	"testing"

	"github.com/aescanero/pluginbus/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(event string, seq uint64) ports.Record {
	return ports.Record{Event: event, Seq: seq, Args: []any{seq}}
}

func seqs(records []ports.Record) []uint64 {
	out := make([]uint64, len(records))
	for i, r := range records {
		out[i] = r.Seq
	}
	return out
}

func TestJournal_AppendAndRead(t *testing.T) {
	j := NewJournal(0)
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, rec("a", 1)))
	require.NoError(t, j.Append(ctx, rec("b", 2)))
	require.NoError(t, j.Append(ctx, rec("a", 3)))

	got, err := j.Read(ctx, "a", 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 3}, seqs(got))

	got, err = j.Read(ctx, "a", 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, seqs(got))

	got, err = j.Read(ctx, "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestJournal_TrimsToMaxLen(t *testing.T) {
	j := NewJournal(3)
	ctx := context.Background()

	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, j.Append(ctx, rec("e", i)))
	}

	got, err := j.Read(ctx, "e", 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 4, 5}, seqs(got))
}

func TestJournal_ReadReturnsCopy(t *testing.T) {
	j := NewJournal(0)
	ctx := context.Background()
	require.NoError(t, j.Append(ctx, rec("e", 1)))

	got, err := j.Read(ctx, "e", 0)
	require.NoError(t, err)
	got[0].Seq = 99

	again, err := j.Read(ctx, "e", 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, seqs(again))
}

func TestJournal_CancelledContext(t *testing.T) {
	j := NewJournal(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, j.Append(ctx, rec("e", 1)), context.Canceled)
	_, err := j.Read(ctx, "e", 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJournal_Close(t *testing.T) {
	j := NewJournal(0)
	ctx := context.Background()
	require.NoError(t, j.Append(ctx, rec("e", 1)))

	require.NoError(t, j.Close())

	got, err := j.Read(ctx, "e", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
