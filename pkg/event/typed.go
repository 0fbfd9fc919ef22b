package event

import "reflect"

// ContextualFor returns the payload registry for T on b, creating it if needed.
func ContextualFor[T any](b *Bus) *Contextual[T] {
	tp := reflect.TypeFor[T]()
	if r, ok := b.contextuals[tp]; ok {
		return r.(*Contextual[T])
	}
	if b.contextuals == nil {
		b.contextuals = make(map[reflect.Type]registry)
	}
	c := newContextual[T](b.cfg, b.id, tp.String())
	b.contextuals[tp] = c
	b.cfg.logger.Debug("event: contextual bus created", "bus", b.id, "key", b.cfg.key, "payload", tp.String())
	return c
}

// LookupContextual returns the payload registry for T on b without creating it.
func LookupContextual[T any](b *Bus) (*Contextual[T], bool) {
	r, ok := b.contextuals[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return r.(*Contextual[T]), true
}

// On registers fn for payloads of type T on b until it is removed.
func On[T any](b *Bus, fn ContextFunc[T]) Handle {
	if fn == nil {
		return Handle{}
	}
	return ContextualFor[T](b).On(fn)
}

// Once registers fn for a single successful delivery of a T payload on b.
func Once[T any](b *Bus, fn ContextFunc[T]) Handle {
	if fn == nil {
		return Handle{}
	}
	return ContextualFor[T](b).Once(fn)
}

// Off removes the T subscription identified by h. It never creates a registry.
func Off[T any](b *Bus, h Handle) bool {
	c, ok := LookupContextual[T](b)
	if !ok {
		return false
	}
	return c.Off(h)
}

// OffAll removes every T subscription on b. It never creates a registry.
func OffAll[T any](b *Bus) {
	if c, ok := LookupContextual[T](b); ok {
		c.OffAll()
	}
}

// Post delivers v to the T subscribers of b. It returns 0 without creating a
// registry when no T subscriber was ever registered.
func Post[T any](b *Bus, v T) (int, error) {
	c, ok := LookupContextual[T](b)
	if !ok {
		return 0, nil
	}
	return c.Post(v)
}

// Len returns the number of T subscriptions on b.
func Len[T any](b *Bus) int {
	c, ok := LookupContextual[T](b)
	if !ok {
		return 0
	}
	return c.Len()
}
