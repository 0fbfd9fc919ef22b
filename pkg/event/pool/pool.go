// Package pool provides reusable scratch buffers for event dispatch.
//
// Buffers are handed out exclusively: a buffer returned by Acquire belongs to
// the caller until it is passed back to Release, even when acquisitions nest
// (a callback posting to the same bus it is being dispatched from). The
// scoped helpers WithSlice and WithSet pair Acquire and Release on every exit
// path, including panics.
package pool

import "sync"

// DefaultMaxRetained is the largest buffer capacity kept for reuse.
const DefaultMaxRetained = 1024

// Slices hands out reusable ordered buffers of T.
type Slices[T any] interface {
	Acquire() *[]T
	Release(buf *[]T)
}

// Sets hands out reusable sets of K.
type Sets[K comparable] interface {
	Acquire() map[K]struct{}
	Release(set map[K]struct{})
}

// Option configures a pool.
type Option func(*options)

type options struct {
	maxRetained int
}

// WithMaxRetained sets the largest capacity (slice) or size (set) a buffer may
// have and still be pooled on Release. Larger buffers are left to the GC.
func WithMaxRetained(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRetained = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{maxRetained: DefaultMaxRetained}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SlicePool is a sync.Pool backed Slices implementation.
type SlicePool[T any] struct {
	pool        sync.Pool
	maxRetained int
}

// NewSlicePool creates a slice pool.
func NewSlicePool[T any](opts ...Option) *SlicePool[T] {
	o := buildOptions(opts)
	return &SlicePool[T]{
		pool: sync.Pool{
			New: func() any {
				buf := make([]T, 0, 8)
				return &buf
			},
		},
		maxRetained: o.maxRetained,
	}
}

// Acquire returns an empty buffer.
func (p *SlicePool[T]) Acquire() *[]T {
	return p.pool.Get().(*[]T)
}

// Release clears buf and returns it to the pool. buf must not be used afterwards.
func (p *SlicePool[T]) Release(buf *[]T) {
	if buf == nil {
		return
	}
	if cap(*buf) > p.maxRetained {
		return
	}
	clear(*buf)
	*buf = (*buf)[:0]
	p.pool.Put(buf)
}

// SetPool is a sync.Pool backed Sets implementation.
type SetPool[K comparable] struct {
	pool        sync.Pool
	maxRetained int
}

// NewSetPool creates a set pool.
func NewSetPool[K comparable](opts ...Option) *SetPool[K] {
	o := buildOptions(opts)
	return &SetPool[K]{
		pool: sync.Pool{
			New: func() any {
				return make(map[K]struct{})
			},
		},
		maxRetained: o.maxRetained,
	}
}

// Acquire returns an empty set.
func (p *SetPool[K]) Acquire() map[K]struct{} {
	return p.pool.Get().(map[K]struct{})
}

// Release empties set and returns it to the pool.
func (p *SetPool[K]) Release(set map[K]struct{}) {
	if set == nil {
		return
	}
	if len(set) > p.maxRetained {
		return
	}
	clear(set)
	p.pool.Put(set)
}

// WithSlice runs fn with a buffer from p and releases it when fn returns or panics.
func WithSlice[T any](p Slices[T], fn func(buf *[]T) error) error {
	buf := p.Acquire()
	defer p.Release(buf)
	return fn(buf)
}

// WithSet runs fn with a set from p and releases it when fn returns or panics.
func WithSet[K comparable](p Sets[K], fn func(set map[K]struct{}) error) error {
	set := p.Acquire()
	defer p.Release(set)
	return fn(set)
}
