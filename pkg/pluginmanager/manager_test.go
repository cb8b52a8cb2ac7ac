package pluginmanager_test

import (
	"errors"
	"testing"

	"github.com/aescanero/pluginbus/pkg/pluginmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPlugin is a plugin that counts Init calls and optionally runs setup
// against its manager.
type stubPlugin struct {
	pluginmanager.Base
	name  string
	inits int
	setup func(m *pluginmanager.Manager)
}

func (p *stubPlugin) Name() string { return p.name }

func (p *stubPlugin) Init() {
	p.inits++
	if p.setup != nil {
		p.setup(p.Manager())
	}
}

func TestAdd_AttachesAndInitsBeforeReturning(t *testing.T) {
	m := pluginmanager.New()

	var managerAtInit *pluginmanager.Manager
	p := &stubPlugin{name: "p"}
	p.setup = func(owner *pluginmanager.Manager) {
		managerAtInit = owner
		// Not yet appended while Init runs.
		assert.False(t, owner.Contains(p))
	}

	got := m.Add(p)

	assert.Same(t, m, got)
	assert.Equal(t, 1, p.inits)
	assert.Same(t, m, managerAtInit)
	assert.Same(t, m, p.Manager())
	assert.True(t, m.Contains(p))
}

func TestAdd_Chaining(t *testing.T) {
	a, b := &stubPlugin{name: "a"}, &stubPlugin{name: "b"}

	m := pluginmanager.New().Add(a).Add(b)

	plugins := m.Plugins()
	require.Len(t, plugins, 2)
	assert.Same(t, a, plugins[0])
	assert.Same(t, b, plugins[1])
}

func TestAdd_Twice(t *testing.T) {
	m := pluginmanager.New()
	p := &stubPlugin{}

	m.Add(p).Add(p)

	assert.Equal(t, 2, p.inits)
	assert.Len(t, m.Plugins(), 2)
}

func TestAdd_NilIsIgnored(t *testing.T) {
	m := pluginmanager.New()
	m.Add(nil)
	assert.Empty(t, m.Plugins())
}

func TestAdd_TypedNilIsIgnored(t *testing.T) {
	m := pluginmanager.New()
	var p *stubPlugin

	assert.NotPanics(t, func() {
		m.Add(p)
		m.Remove(p)
	})
	assert.Empty(t, m.Plugins())
}

func TestAddAny_RejectsTypedNil(t *testing.T) {
	m := pluginmanager.New()
	var p *stubPlugin

	got, err := m.AddAny(p)
	assert.Same(t, m, got)
	assert.ErrorIs(t, err, pluginmanager.ErrNotPlugin)

	var typeErr *pluginmanager.TypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "*pluginmanager_test.stubPlugin", typeErr.Got)

	_, err = m.RemoveAny(p)
	assert.ErrorIs(t, err, pluginmanager.ErrNotPlugin)
	assert.Empty(t, m.Plugins())
}

func TestRemove_RemovesOneOccurrence(t *testing.T) {
	m := pluginmanager.New()
	p := &stubPlugin{}
	other := &stubPlugin{}
	m.Add(p).Add(other).Add(p)

	got := m.Remove(p)

	assert.Same(t, m, got)
	plugins := m.Plugins()
	require.Len(t, plugins, 2)
	assert.Same(t, p, plugins[0])
	assert.Same(t, other, plugins[1])

	// Still a member, so the back-reference stays.
	assert.Same(t, m, p.Manager())
}

func TestRemove_DetachesWhenNoOccurrenceLeft(t *testing.T) {
	m := pluginmanager.New()
	p := &stubPlugin{}
	m.Add(p)

	m.Remove(p)

	assert.Empty(t, m.Plugins())
	assert.Nil(t, p.Manager())
	assert.False(t, m.Contains(p))
}

func TestRemove_AbsentIsNoop(t *testing.T) {
	m := pluginmanager.New()
	member := &stubPlugin{}
	stranger := &stubPlugin{}
	m.Add(member)

	got := m.Remove(stranger)

	assert.Same(t, m, got)
	assert.Len(t, m.Plugins(), 1)
	assert.Nil(t, stranger.Manager())
}

func TestRemove_DoesNotDetachFromAnotherManager(t *testing.T) {
	first := pluginmanager.New()
	second := pluginmanager.New()
	p := &stubPlugin{}

	first.Add(p)
	second.Add(p)
	first.Remove(p)

	assert.Same(t, second, p.Manager())
}

func TestAddAny_RejectsNonPlugins(t *testing.T) {
	m := pluginmanager.New()

	for _, v := range []any{nil, 42, "plugin", struct{}{}, &struct{ Name string }{}} {
		got, err := m.AddAny(v)
		require.Error(t, err)
		assert.True(t, errors.Is(err, pluginmanager.ErrNotPlugin))
		assert.Same(t, m, got)
	}
	assert.Empty(t, m.Plugins())
}

func TestRemoveAny_RejectsNonPlugins(t *testing.T) {
	m := pluginmanager.New()

	_, err := m.RemoveAny(3.14)

	var typeErr *pluginmanager.TypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "remove", typeErr.Op)
	assert.Equal(t, "float64", typeErr.Got)
	assert.ErrorIs(t, err, pluginmanager.ErrNotPlugin)
}

func TestAddAny_AcceptsPlugins(t *testing.T) {
	m := pluginmanager.New()
	p := &stubPlugin{}

	_, err := m.AddAny(p)
	require.NoError(t, err)
	assert.Equal(t, 1, p.inits)

	_, err = m.RemoveAny(p)
	require.NoError(t, err)
	assert.Empty(t, m.Plugins())
}

func TestPluginName(t *testing.T) {
	assert.Equal(t, "named", pluginmanager.PluginName(&stubPlugin{name: "named"}))
	assert.Equal(t, "*pluginmanager.Base", pluginmanager.PluginName(&pluginmanager.Base{}))
}

func TestOn_IgnoresInvalidInput(t *testing.T) {
	m := pluginmanager.New()

	assert.Same(t, m, m.On("", pluginmanager.NewListener(func(...any) {})))
	assert.Same(t, m, m.On("a", nil))
	assert.Same(t, m, m.On("a", pluginmanager.NewListener(nil)))
	assert.Nil(t, m.OnFunc("a", nil))
	assert.Nil(t, m.OnFunc("", func(...any) {}))

	assert.Equal(t, 0, m.Listeners("a"))
	assert.Equal(t, 0, m.Stats().Subscriptions)
}

func TestOff_RemovesEveryOccurrence(t *testing.T) {
	m := pluginmanager.New()
	calls := 0
	f := pluginmanager.NewListener(func(...any) { calls++ })
	g := pluginmanager.NewListener(func(...any) {})

	m.On("a", f).On("a", g).On("a", f)
	require.Equal(t, 3, m.Listeners("a"))

	m.Trigger("a")
	assert.Equal(t, 2, calls)

	m.Off("a", f)
	assert.Equal(t, 1, m.Listeners("a"))

	m.Trigger("a")
	assert.Equal(t, 2, calls)
}

func TestOff_UnknownIsNoop(t *testing.T) {
	m := pluginmanager.New()
	f := pluginmanager.NewListener(func(...any) {})

	assert.Same(t, m, m.Off("missing", f))
	assert.Same(t, m, m.Off("missing", nil))

	m.On("a", f)
	m.Off("a", pluginmanager.NewListener(func(...any) {}))
	assert.Equal(t, 1, m.Listeners("a"))
}

func TestOnOff_DoNotTouchHistory(t *testing.T) {
	m := pluginmanager.New()
	m.Trigger("a", 1)

	f := m.OnFunc("a", func(...any) {})
	m.Off("a", f)

	assert.Equal(t, [][]any{{1}}, m.History("a"))
}

func TestEventsAndStats(t *testing.T) {
	m := pluginmanager.New()
	m.Add(&stubPlugin{})
	m.OnFunc("b", func(...any) {})
	m.OnFunc("b", func(...any) {})
	m.Trigger("a", 1)
	m.Trigger("a", 2)
	m.Trigger("c")

	assert.Equal(t, []string{"a", "b", "c"}, m.Events())
	assert.Equal(t, 2, m.HistoryLen("a"))
	assert.Equal(t, 0, m.HistoryLen("b"))
	assert.Equal(t, pluginmanager.Stats{
		Plugins:        1,
		Events:         1,
		Subscriptions:  2,
		HistoryEvents:  2,
		HistoryEntries: 3,
	}, m.Stats())
}
