package pool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSlices records Acquire/Release pairs around a real pool.
type countingSlices[T any] struct {
	inner    *SlicePool[T]
	acquired int
	released int
}

func (c *countingSlices[T]) Acquire() *[]T {
	c.acquired++
	return c.inner.Acquire()
}

func (c *countingSlices[T]) Release(buf *[]T) {
	c.released++
	c.inner.Release(buf)
}

type countingSets[K comparable] struct {
	inner    *SetPool[K]
	acquired int
	released int
}

func (c *countingSets[K]) Acquire() map[K]struct{} {
	c.acquired++
	return c.inner.Acquire()
}

func (c *countingSets[K]) Release(set map[K]struct{}) {
	c.released++
	c.inner.Release(set)
}

func TestSlicePool_AcquireIsEmpty(t *testing.T) {
	p := NewSlicePool[int]()
	buf := p.Acquire()
	require.NotNil(t, buf)
	assert.Empty(t, *buf)

	*buf = append(*buf, 1, 2, 3)
	p.Release(buf)

	again := p.Acquire()
	assert.Empty(t, *again)
}

func TestSlicePool_ReleaseClearsElements(t *testing.T) {
	p := NewSlicePool[*int]()
	buf := p.Acquire()
	v := 7
	*buf = append(*buf, &v, &v)
	backing := (*buf)[:2]

	p.Release(buf)

	assert.Empty(t, *buf)
	assert.Nil(t, backing[0])
	assert.Nil(t, backing[1])
}

func TestSlicePool_NestedAcquireIsExclusive(t *testing.T) {
	p := NewSlicePool[int]()
	outer := p.Acquire()
	*outer = append(*outer, 1)

	inner := p.Acquire()
	assert.NotSame(t, outer, inner)
	*inner = append(*inner, 2, 3)

	assert.Equal(t, []int{1}, *outer)
	p.Release(inner)
	assert.Equal(t, []int{1}, *outer)
	p.Release(outer)
}

func TestSlicePool_OversizedNotRetained(t *testing.T) {
	p := NewSlicePool[int](WithMaxRetained(4))
	buf := p.Acquire()
	*buf = append(*buf, make([]int, 16)...)
	backing := (*buf)[:16]
	backing[0] = 42

	p.Release(buf)

	// Dropped buffers are left untouched.
	assert.Equal(t, 42, backing[0])
	assert.Len(t, *buf, 16)
}

func TestSetPool_AcquireRelease(t *testing.T) {
	p := NewSetPool[uint64]()
	set := p.Acquire()
	require.NotNil(t, set)
	assert.Empty(t, set)

	set[1] = struct{}{}
	set[2] = struct{}{}
	p.Release(set)
	assert.Empty(t, set)

	again := p.Acquire()
	assert.Empty(t, again)
}

func TestSetPool_NilRelease(t *testing.T) {
	assert.NotPanics(t, func() {
		NewSetPool[string]().Release(nil)
		NewSlicePool[string]().Release(nil)
	})
}

func TestWithSlice_ReleasesOnError(t *testing.T) {
	p := &countingSlices[int]{inner: NewSlicePool[int]()}
	boom := errors.New("boom")

	err := WithSlice[int](p, func(buf *[]int) error {
		*buf = append(*buf, 1)
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, p.acquired)
	assert.Equal(t, 1, p.released)
}

func TestWithSlice_ReleasesOnPanic(t *testing.T) {
	p := &countingSlices[int]{inner: NewSlicePool[int]()}

	assert.Panics(t, func() {
		_ = WithSlice[int](p, func(buf *[]int) error {
			panic("boom")
		})
	})
	assert.Equal(t, 1, p.acquired)
	assert.Equal(t, 1, p.released)
}

func TestWithSet_ReleasesOnPanic(t *testing.T) {
	p := &countingSets[uint64]{inner: NewSetPool[uint64]()}

	assert.Panics(t, func() {
		_ = WithSet[uint64](p, func(set map[uint64]struct{}) error {
			set[3] = struct{}{}
			panic("boom")
		})
	})
	assert.Equal(t, 1, p.acquired)
	assert.Equal(t, 1, p.released)
}

func TestWithSet_Nested(t *testing.T) {
	p := NewSetPool[int]()
	err := WithSet[int](p, func(outer map[int]struct{}) error {
		outer[1] = struct{}{}
		return WithSet[int](p, func(inner map[int]struct{}) error {
			assert.Empty(t, inner)
			inner[2] = struct{}{}
			assert.Len(t, outer, 1)
			return nil
		})
	})
	require.NoError(t, err)
}
