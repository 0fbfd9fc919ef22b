package event

import (
	"reflect"
	"runtime/debug"
	"sync"

	"github.com/dshills/eventbus/pkg/event/pool"
)

// Executor runs one handler with a caller-supplied state value.
type Executor[H, S any] func(handler H, state S) error

// Execute runs exec once per handler, in order. It reports whether at least
// one handler was invoked; an empty list yields false.
//
// The first failing executor stops the run and its error is returned wrapped
// in a *HandlerError, or a *PanicError if it panicked.
func Execute[H, S any](handlers []H, exec Executor[H, S], state S) (bool, error) {
	if exec == nil {
		return false, ErrNilCallback
	}
	if len(handlers) == 0 {
		return false, nil
	}
	for i, h := range handlers {
		if err := callExecutor(exec, h, state); err != nil {
			return true, wrapHandler[H](i, err)
		}
	}
	return true, nil
}

// Discover appends to dst every candidate that implements H, keeping order.
func Discover[H any](dst []H, candidates ...any) []H {
	for _, c := range candidates {
		if h, ok := c.(H); ok {
			dst = append(dst, h)
		}
	}
	return dst
}

// ExecuteAll discovers the candidates implementing H and runs exec on each,
// as Execute does. The discovery buffer is pooled per handler type.
func ExecuteAll[H, S any](candidates []any, exec Executor[H, S], state S) (found bool, err error) {
	err = pool.WithSlice[H](handlerPool[H](), func(buf *[]H) error {
		*buf = Discover(*buf, candidates...)
		var execErr error
		found, execErr = Execute(*buf, exec, state)
		return execErr
	})
	return found, err
}

// handlerPools holds one *pool.SlicePool[H] per handler type.
var handlerPools sync.Map

func handlerPool[H any]() *pool.SlicePool[H] {
	tp := reflect.TypeFor[H]()
	if p, ok := handlerPools.Load(tp); ok {
		return p.(*pool.SlicePool[H])
	}
	p, _ := handlerPools.LoadOrStore(tp, pool.NewSlicePool[H]())
	return p.(*pool.SlicePool[H])
}

func callExecutor[H, S any](exec Executor[H, S], h H, state S) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &recovered{value: r, stack: string(debug.Stack())}
		}
	}()
	return exec(h, state)
}

func wrapHandler[H any](index int, err error) error {
	path := typeName[H]()
	if p, ok := err.(*recovered); ok {
		return &PanicError{Path: path, Index: index, Value: p.value, Stack: p.stack}
	}
	return &HandlerError{Path: path, Index: index, Err: err}
}
