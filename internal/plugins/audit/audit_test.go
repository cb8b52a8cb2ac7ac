package audit

import (
	"sync"
	"testing"

	"github.com/aescanero/pluginbus/pkg/pluginmanager"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAudit_CatchesUpAndFollows(t *testing.T) {
	m := pluginmanager.New()
	m.Trigger("a", 1).Trigger("b", 2).Trigger("a", 3).Trigger("ignored")

	core, logs := observer.New(zap.InfoLevel)
	p := New([]string{"a", "b"}, zap.New(core))
	m.Add(p)

	assert.Equal(t, 3, p.Replayed())
	assert.Equal(t, 0, p.Observed("a"))

	m.Trigger("a", 4).Trigger("ignored")

	assert.Equal(t, 1, p.Observed("a"))
	assert.Equal(t, map[string]int{"a": 3, "b": 1}, p.Seen())
	assert.Equal(t, 1, m.Listeners("a"))
	assert.Equal(t, 1, m.Listeners("b"))

	entry := logs.FilterMessage("audit plugin attached").All()
	if assert.Len(t, entry, 1) {
		assert.Equal(t, int64(3), entry[0].ContextMap()["replayed"])
	}
}

func TestAudit_RemoveUnsubscribes(t *testing.T) {
	m := pluginmanager.New()
	p := New([]string{"a"}, nil)
	m.Add(p)
	m.Trigger("a")

	m.Remove(p)
	m.Trigger("a")

	assert.Equal(t, 0, m.Listeners("a"))
	assert.Equal(t, 1, p.Observed("a"))
	assert.Nil(t, p.Manager())
}

func TestAudit_ReAddDoesNotDoubleSubscribe(t *testing.T) {
	m := pluginmanager.New()
	p := New([]string{"a"}, nil)

	m.Add(p)
	m.Remove(p)
	m.Add(p)
	m.Trigger("a")

	assert.Equal(t, 1, m.Listeners("a"))
	assert.Equal(t, 1, p.Observed("a"))
}

func TestAudit_RepeatedEventNamesCountOnce(t *testing.T) {
	m := pluginmanager.New()
	m.Trigger("a", 1).Trigger("a", 2)

	p := New([]string{"a", "", "a"}, nil)
	m.Add(p)
	m.Trigger("a", 3)

	assert.Equal(t, 1, m.Listeners("a"))
	assert.Equal(t, 2, p.Replayed())
	assert.Equal(t, 1, p.Observed("a"))
	assert.Equal(t, map[string]int{"a": 3}, p.Seen())
}

func TestAudit_ConcurrentRemoveAndManager(t *testing.T) {
	m := pluginmanager.New()
	p := New([]string{"a"}, nil)
	m.Add(p)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.Remove(p)
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = p.Manager()
		}
	}()
	wg.Wait()

	assert.Nil(t, p.Manager())
	assert.Equal(t, 0, m.Listeners("a"))
}

func TestAudit_IgnoresMalformedReplayCalls(t *testing.T) {
	p := New(nil, nil)

	p.handleReplay()
	p.handleReplay(42)

	assert.Equal(t, 0, p.Replayed())
}
