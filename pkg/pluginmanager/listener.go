package pluginmanager

// Func is the signature of every listener callback.
type Func func(args ...any)

// Listener is a subscribable callback. Identity is the pointer: Off removes
// a listener by comparing handles, which is why callbacks are wrapped
// instead of passed as bare funcs.
type Listener struct {
	fn Func
}

// NewListener wraps fn in a new listener handle
func NewListener(fn Func) *Listener {
	return &Listener{fn: fn}
}

// Call invokes the listener with args
func (l *Listener) Call(args ...any) {
	l.fn(args...)
}

func (l *Listener) valid() bool {
	return l != nil && l.fn != nil
}
