package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for the event bus.
var (
	// ErrHandlerPanic matches every *PanicError through errors.Is.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrNilCallback is reported by Execute when the executor is nil.
	ErrNilCallback = errors.New("callback cannot be nil")
)

// HandlerError wraps an error returned by a subscriber callback.
type HandlerError struct {
	// Bus is the ID of the bus the callback was registered on.
	Bus string

	// Key is the keyed-bus key, empty for buses outside a Keyed.
	Key string

	// Path is the payload type name, empty for parameterless subscribers.
	Path string

	// Index is the callback's position in the delivery snapshot.
	Index int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("event: subscriber %d on %s failed: %v", e.Index, describe(e.Key, e.Path), e.Err)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError wraps a panic raised by a subscriber callback.
type PanicError struct {
	Bus   string
	Key   string
	Path  string
	Index int

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("event: subscriber %d on %s panicked: %v", e.Index, describe(e.Key, e.Path), e.Value)
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}

func describe(key, path string) string {
	if path == "" {
		path = "<none>"
	}
	if key == "" {
		return "payload " + path
	}
	return fmt.Sprintf("key %q payload %s", key, path)
}
