package event

import (
	"reflect"
	"runtime/debug"
	"slices"
	"time"

	"github.com/dshills/eventbus/pkg/event/pool"
)

// purgeSets is shared by every registry; each post takes its own set.
var purgeSets = pool.NewSetPool[uint64]()

// Contextual is an ordered registry of subscribers that receive a payload of
// type T. Delivery order is registration order.
//
// Post delivers to a snapshot of the subscriber list taken when the post
// starts, so callbacks may register and remove subscribers (including
// themselves) while being dispatched:
//   - a subscriber added during a post is not delivered to by that post;
//   - a subscriber removed during a post still receives it if it was in the
//     snapshot;
//   - one-shot subscribers that fired are removed from the live list when the
//     post finishes.
//
// A Contextual is not safe for concurrent use.
type Contextual[T any] struct {
	scope     *scope
	cfg       *config
	records   []*record[T]
	nextID    uint64
	snapshots *pool.SlicePool[*record[T]]
	stats     Stats
}

// NewContextual creates a standalone registry for payloads of type T.
func NewContextual[T any](opts ...Option) *Contextual[T] {
	cfg := buildConfig(opts)
	return newContextual[T](&cfg, "", typeName[T]())
}

func newContextual[T any](cfg *config, busID, path string) *Contextual[T] {
	return &Contextual[T]{
		scope:     &scope{bus: busID, key: cfg.key, path: path},
		cfg:       cfg,
		snapshots: pool.NewSlicePool[*record[T]](pool.WithMaxRetained(cfg.maxRetained)),
	}
}

// On registers fn until it is removed. A nil fn is ignored and yields the zero Handle.
func (c *Contextual[T]) On(fn ContextFunc[T]) Handle {
	return c.add(KindPermanent, fn)
}

// Once registers fn for a single successful delivery.
func (c *Contextual[T]) Once(fn ContextFunc[T]) Handle {
	return c.add(KindOnce, fn)
}

func (c *Contextual[T]) add(kind Kind, fn ContextFunc[T]) Handle {
	if fn == nil {
		return Handle{}
	}
	c.nextID++
	c.records = append(c.records, &record[T]{kind: kind, fn: fn, id: c.nextID})
	return Handle{id: c.nextID, owner: c.scope}
}

// Off removes the subscription identified by h.
// It returns false if h was not issued here or is no longer registered.
func (c *Contextual[T]) Off(h Handle) bool {
	i := c.index(h)
	if i < 0 {
		return false
	}
	c.records = slices.Delete(c.records, i, i+1)
	return true
}

// OffAll removes every subscription. The registry stays usable.
func (c *Contextual[T]) OffAll() {
	clear(c.records)
	c.records = c.records[:0]
}

// Contains reports whether h is still registered here.
func (c *Contextual[T]) Contains(h Handle) bool {
	return c.index(h) >= 0
}

// Len returns the number of live subscriptions.
func (c *Contextual[T]) Len() int {
	return len(c.records)
}

// Stats returns the registry counters.
func (c *Contextual[T]) Stats() Stats {
	s := c.stats
	s.Subscribers = len(c.records)
	return s
}

func (c *Contextual[T]) index(h Handle) int {
	if h.owner == nil || h.owner != c.scope {
		return -1
	}
	for i, rec := range c.records {
		if rec.id == h.id {
			return i
		}
	}
	return -1
}

// Post delivers v to every subscriber in the snapshot and returns the number
// of successful deliveries.
//
// The first failing callback stops the post. Its error is returned wrapped in
// a *HandlerError, or a *PanicError if it panicked, together with the count of
// deliveries made before it. One-shot subscribers that already fired are
// removed before Post returns; a one-shot whose callback failed stays
// registered.
//
// A one-shot subscriber is never delivered to twice: when a callback posts
// to the same registry, a one-shot already fired by the outer post is
// skipped by the inner one.
func (c *Contextual[T]) Post(v T) (delivered int, err error) {
	var start time.Time
	if c.cfg.observer != nil {
		start = time.Now()
	}

	snapshot := c.snapshots.Acquire()
	defer c.snapshots.Release(snapshot)
	purge := purgeSets.Acquire()
	defer purgeSets.Release(purge)
	defer c.purge(purge)

	*snapshot = append(*snapshot, c.records...)
	for i, rec := range *snapshot {
		if rec.kind == KindOnce {
			if rec.fired {
				continue
			}
			rec.fired = true
		}
		if cerr := call(rec.fn, v); cerr != nil {
			rec.fired = false
			err = c.wrap(i, cerr)
			break
		}
		delivered++
		if rec.kind == KindOnce {
			purge[rec.id] = struct{}{}
		}
	}

	c.stats.Posts++
	c.stats.Delivered += uint64(delivered)
	if err != nil {
		c.stats.Failures++
		c.cfg.logger.Debug("event: subscriber failed",
			"bus", c.scope.bus,
			"key", c.scope.key,
			"payload", c.scope.path,
			"delivered", delivered,
			"error", err,
		)
	}
	if c.cfg.observer != nil {
		c.cfg.observer.ObservePost(PostRecord{
			BusID:     c.scope.bus,
			Key:       c.scope.key,
			Path:      c.scope.path,
			Delivered: delivered,
			Err:       err,
			Start:     start,
			Duration:  time.Since(start),
		})
	}
	return delivered, err
}

// purge removes fired one-shot subscriptions from the live list.
// Ids already removed by Off are simply absent.
func (c *Contextual[T]) purge(ids map[uint64]struct{}) {
	if len(ids) == 0 {
		return
	}
	c.records = slices.DeleteFunc(c.records, func(rec *record[T]) bool {
		_, ok := ids[rec.id]
		return ok
	})
}

func (c *Contextual[T]) wrap(index int, err error) error {
	if p, ok := err.(*recovered); ok {
		return &PanicError{
			Bus:   c.scope.bus,
			Key:   c.scope.key,
			Path:  c.scope.path,
			Index: index,
			Value: p.value,
			Stack: p.stack,
		}
	}
	return &HandlerError{
		Bus:   c.scope.bus,
		Key:   c.scope.key,
		Path:  c.scope.path,
		Index: index,
		Err:   err,
	}
}

// recovered carries a panic out of call. It never escapes the package.
type recovered struct {
	value any
	stack string
}

func (r *recovered) Error() string {
	return "panic"
}

// call runs fn(v), converting a panic into a *recovered error.
func call[T any](fn ContextFunc[T], v T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &recovered{value: r, stack: string(debug.Stack())}
		}
	}()
	return fn(v)
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
