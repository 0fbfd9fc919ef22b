package event

import (
	"reflect"

	"github.com/google/uuid"
)

// Bus is a registry of parameterless subscribers plus one Contextual
// registry per payload type. Payload registries are created on first
// registration and kept for the life of the Bus.
//
// Payload routing is by the static type argument: Post[int] reaches On[int]
// subscribers only, never On[bool] or parameterless subscribers.
//
// Use NewBus; the zero value is not usable. A Bus is not safe for concurrent use.
type Bus struct {
	id          string
	cfg         *config
	plain       *Contextual[struct{}]
	contextuals map[reflect.Type]registry
}

// registry is the type-erased view of a *Contextual[T].
type registry interface {
	Stats() Stats
}

// NewBus creates a bus with the given options.
func NewBus(opts ...Option) *Bus {
	cfg := buildConfig(opts)
	id := uuid.NewString()
	return &Bus{
		id:    id,
		cfg:   &cfg,
		plain: newContextual[struct{}](&cfg, id, ""),
	}
}

// ID returns the bus's unique identifier.
func (b *Bus) ID() string {
	return b.id
}

// Key returns the key the bus was created for by a Keyed, or "".
func (b *Bus) Key() string {
	return b.cfg.key
}

// On registers a parameterless subscriber until it is removed.
// A nil fn is ignored and yields the zero Handle.
func (b *Bus) On(fn Func) Handle {
	if fn == nil {
		return Handle{}
	}
	return b.plain.On(adapt(fn))
}

// Once registers a parameterless subscriber for a single successful delivery.
func (b *Bus) Once(fn Func) Handle {
	if fn == nil {
		return Handle{}
	}
	return b.plain.Once(adapt(fn))
}

// Off removes the parameterless subscription identified by h.
// Handles issued by payload registries never match here.
func (b *Bus) Off(h Handle) bool {
	return b.plain.Off(h)
}

// OffAll removes every parameterless subscription.
// Payload subscriptions are untouched; use OffAll[T] for those.
func (b *Bus) OffAll() {
	b.plain.OffAll()
}

// Contains reports whether h is a live parameterless subscription.
func (b *Bus) Contains(h Handle) bool {
	return b.plain.Contains(h)
}

// Len returns the number of parameterless subscriptions.
func (b *Bus) Len() int {
	return b.plain.Len()
}

// Post delivers to the parameterless subscribers. See Contextual.Post for
// the delivery and failure rules.
func (b *Bus) Post() (int, error) {
	return b.plain.Post(struct{}{})
}

// Stats returns counters summed over the parameterless registry and every
// payload registry.
func (b *Bus) Stats() Stats {
	s := b.plain.Stats()
	for _, r := range b.contextuals {
		s.add(r.Stats())
	}
	s.Contextuals = len(b.contextuals)
	return s
}

func adapt(fn Func) ContextFunc[struct{}] {
	return func(struct{}) error {
		return fn()
	}
}
