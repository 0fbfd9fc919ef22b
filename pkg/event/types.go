package event

// Kind controls how long a subscription stays registered.
type Kind int

const (
	// KindPermanent subscriptions stay until removed with Off or OffAll.
	KindPermanent Kind = iota

	// KindOnce subscriptions are removed after their first successful delivery.
	KindOnce
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindPermanent:
		return "permanent"
	case KindOnce:
		return "once"
	default:
		return "unknown"
	}
}

// Func is a parameterless subscriber callback.
type Func func() error

// ContextFunc is a subscriber callback receiving a payload of type T.
type ContextFunc[T any] func(T) error

// Handle identifies one registration. It is returned by On and Once and
// accepted by Off. Handles are comparable and only match inside the registry
// that issued them; the zero Handle matches nothing.
type Handle struct {
	id    uint64
	owner *scope
}

// Valid reports whether h was issued by a registration.
func (h Handle) Valid() bool {
	return h.owner != nil
}

// scope describes one registry; every handle points at the scope that issued it.
type scope struct {
	bus  string
	key  string
	path string
}

// record is one live subscription.
type record[T any] struct {
	kind Kind
	fn   ContextFunc[T]
	id   uint64

	// fired is set while a one-shot is delivered, and kept once delivered
	// until it is purged.
	fired bool
}

// Stats contains counters for a registry, a Bus or a Keyed bus.
type Stats struct {
	// Posts is the number of posts that reached a registry.
	Posts uint64

	// Delivered is the number of successful callback invocations.
	Delivered uint64

	// Failures is the number of posts stopped by a failing callback.
	Failures uint64

	// Subscribers is the number of live subscriptions.
	Subscribers int

	// Contextuals is the number of payload-type registries created.
	Contextuals int

	// Buses is the number of buses created by a Keyed.
	Buses int
}

func (s *Stats) add(o Stats) {
	s.Posts += o.Posts
	s.Delivered += o.Delivered
	s.Failures += o.Failures
	s.Subscribers += o.Subscribers
	s.Contextuals += o.Contextuals
	s.Buses += o.Buses
}
