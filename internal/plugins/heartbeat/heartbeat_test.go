package heartbeat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aescanero/pluginbus/pkg/pluginmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeat_TriggersWithSequence(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p := New(time.Second, nil)
	p.now = func() time.Time { return fixed }
	m := pluginmanager.New().Add(p)

	p.Beat()
	p.Beat()

	assert.Equal(t, [][]any{{uint64(1), fixed}, {uint64(2), fixed}}, m.History(Event))
}

func TestBeat_DetachedIsNoop(t *testing.T) {
	p := New(time.Second, nil)
	m := pluginmanager.New().Add(p)
	m.Remove(p)

	p.Beat()

	assert.Nil(t, m.History(Event))
}

func TestStart_Errors(t *testing.T) {
	ctx := context.Background()

	assert.ErrorIs(t, New(time.Second, nil).Start(ctx), ErrNotAttached)
	assert.Error(t, New(0, nil).Start(ctx))

	p := New(time.Hour, nil)
	pluginmanager.New().Add(p)
	require.NoError(t, p.Start(ctx))
	assert.ErrorIs(t, p.Start(ctx), ErrAlreadyRunning)
	require.NoError(t, p.Shutdown(ctx))
}

func TestStart_BeatsUntilShutdown(t *testing.T) {
	p := New(5*time.Millisecond, nil)
	m := pluginmanager.New().Add(p)

	var mu sync.Mutex
	var seqs []uint64
	m.OnFunc(Event, func(args ...any) {
		mu.Lock()
		defer mu.Unlock()
		seqs = append(seqs, args[0].(uint64))
	})

	require.NoError(t, p.Start(context.Background()))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seqs) >= 3
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
	require.NoError(t, p.Shutdown(ctx))

	mu.Lock()
	defer mu.Unlock()
	for i, seq := range seqs {
		assert.Equal(t, uint64(i+1), seq)
	}
	assert.Len(t, m.History(Event), len(seqs))
}
