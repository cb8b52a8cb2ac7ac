package pluginmanager

import (
	"errors"
	"fmt"
)

// ErrNotPlugin is returned by AddAny and RemoveAny when the value does not
// implement Plugin.
var ErrNotPlugin = errors.New("value does not implement pluginmanager.Plugin")

// TypeError reports the offending type of a failed AddAny/RemoveAny call.
type TypeError struct {
	// Op is the manager operation that rejected the value.
	Op string

	// Got is the Go type of the rejected value.
	Got string
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: %s: must be instance of Plugin", e.Op, e.Got)
}

// Is allows errors.Is to match TypeError with ErrNotPlugin.
func (e *TypeError) Is(target error) bool {
	return target == ErrNotPlugin
}

func newTypeError(op string, v any) error {
	return &TypeError{Op: op, Got: fmt.Sprintf("%T", v)}
}
