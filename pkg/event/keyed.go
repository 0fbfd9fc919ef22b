package event

import (
	"fmt"
	"log/slog"
)

// Keyed maps event identifiers to independent Buses. A Bus is created the
// first time a key is registered on; posting or removing on a key that was
// never registered is a no-op.
//
// Keys are compared with ==, so equal keys always reach the same Bus.
// A Keyed is not safe for concurrent use.
type Keyed[K comparable] struct {
	opts   []Option
	logger *slog.Logger
	buses  map[K]*Bus
}

// NewKeyed creates a keyed bus. The options apply to every Bus it creates.
func NewKeyed[K comparable](opts ...Option) *Keyed[K] {
	cfg := buildConfig(opts)
	return &Keyed[K]{
		opts:   opts,
		logger: cfg.logger,
		buses:  make(map[K]*Bus),
	}
}

// Bus returns the Bus for key, creating it if needed.
func (k *Keyed[K]) Bus(key K) *Bus {
	if b, ok := k.buses[key]; ok {
		return b
	}
	label := fmt.Sprint(key)
	opts := make([]Option, 0, len(k.opts)+1)
	opts = append(opts, k.opts...)
	opts = append(opts, withKey(label))
	b := NewBus(opts...)
	k.buses[key] = b
	k.logger.Debug("event: keyed bus created", "bus", b.ID(), "key", label)
	return b
}

// Lookup returns the Bus for key without creating it.
func (k *Keyed[K]) Lookup(key K) (*Bus, bool) {
	b, ok := k.buses[key]
	return b, ok
}

// Keys returns the keys that have a Bus, in no particular order.
func (k *Keyed[K]) Keys() []K {
	keys := make([]K, 0, len(k.buses))
	for key := range k.buses {
		keys = append(keys, key)
	}
	return keys
}

// Len returns the number of buses created.
func (k *Keyed[K]) Len() int {
	return len(k.buses)
}

// On registers a parameterless subscriber for key.
func (k *Keyed[K]) On(key K, fn Func) Handle {
	return k.Bus(key).On(fn)
}

// Once registers a parameterless one-shot subscriber for key.
func (k *Keyed[K]) Once(key K, fn Func) Handle {
	return k.Bus(key).Once(fn)
}

// Off removes the parameterless subscription h from key.
func (k *Keyed[K]) Off(key K, h Handle) bool {
	b, ok := k.buses[key]
	if !ok {
		return false
	}
	return b.Off(h)
}

// OffAll removes every parameterless subscription for key.
func (k *Keyed[K]) OffAll(key K) {
	if b, ok := k.buses[key]; ok {
		b.OffAll()
	}
}

// Contains reports whether h is a live parameterless subscription for key.
func (k *Keyed[K]) Contains(key K, h Handle) bool {
	b, ok := k.buses[key]
	if !ok {
		return false
	}
	return b.Contains(h)
}

// Post delivers to the parameterless subscribers of key.
func (k *Keyed[K]) Post(key K) (int, error) {
	b, ok := k.buses[key]
	if !ok {
		return 0, nil
	}
	return b.Post()
}

// Stats returns counters summed over every Bus.
func (k *Keyed[K]) Stats() Stats {
	var s Stats
	for _, b := range k.buses {
		s.add(b.Stats())
	}
	s.Buses = len(k.buses)
	return s
}

// OnKey registers fn for T payloads posted under key.
func OnKey[K comparable, T any](k *Keyed[K], key K, fn ContextFunc[T]) Handle {
	return On(k.Bus(key), fn)
}

// OnceKey registers fn for a single successful delivery of a T payload under key.
func OnceKey[K comparable, T any](k *Keyed[K], key K, fn ContextFunc[T]) Handle {
	return Once(k.Bus(key), fn)
}

// OffKey removes the T subscription h from key.
func OffKey[K comparable, T any](k *Keyed[K], key K, h Handle) bool {
	b, ok := k.buses[key]
	if !ok {
		return false
	}
	return Off[T](b, h)
}

// OffAllKey removes every T subscription for key.
func OffAllKey[K comparable, T any](k *Keyed[K], key K) {
	if b, ok := k.buses[key]; ok {
		OffAll[T](b)
	}
}

// ContainsKey reports whether h is a live T subscription for key.
func ContainsKey[K comparable, T any](k *Keyed[K], key K, h Handle) bool {
	b, ok := k.buses[key]
	if !ok {
		return false
	}
	c, ok := LookupContextual[T](b)
	return ok && c.Contains(h)
}

// PostKey delivers v to the T subscribers of key.
func PostKey[K comparable, T any](k *Keyed[K], key K, v T) (int, error) {
	b, ok := k.buses[key]
	if !ok {
		return 0, nil
	}
	return Post(b, v)
}
