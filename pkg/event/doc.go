// Package event provides a synchronous, in-process publish/subscribe bus.
//
// Three addressing layers share one delivery algorithm:
//
//	┌──────────────────────────────────────────────┐
//	│ Keyed[K]   key -> *Bus (created on first On) │
//	└──────────────────────────────────────────────┘
//	                      │
//	┌──────────────────────────────────────────────┐
//	│ Bus        parameterless subscribers         │
//	│            type T -> *Contextual[T]          │
//	└──────────────────────────────────────────────┘
//	                      │
//	┌──────────────────────────────────────────────┐
//	│ Contextual[T]  ordered records, snapshot     │
//	│                delivery, one-shot purge      │
//	└──────────────────────────────────────────────┘
//
// # Basic Usage
//
//	bus := event.NewBus()
//
//	h := bus.On(func() error {
//	    fmt.Println("saved")
//	    return nil
//	})
//	bus.Once(func() error { return warmCache() })
//
//	n, err := bus.Post() // n == 2
//	n, err = bus.Post()  // n == 1, the one-shot is gone
//
//	bus.Off(h)
//
// # Payloads
//
// Go methods cannot take type parameters, so payload subscriptions are
// package functions:
//
//	event.On(bus, func(size int) error { return resize(size) })
//	event.Post(bus, 80)   // reaches int subscribers only
//	event.Post(bus, true) // 0, no bool subscribers
//
// # Keys
//
//	keyed := event.NewKeyed[string]()
//	keyed.On("save", onSave)
//	event.OnKey(keyed, "open", func(path string) error { return load(path) })
//	keyed.Post("save")
//	event.PostKey(keyed, "open", "/tmp/a.txt")
//
// # Removal
//
// Funcs are not comparable in Go, so subscriptions are removed through the
// Handle returned at registration. Registering the same func twice yields two
// independent handles.
//
// # Reentrancy
//
// Callbacks may call On, Once, Off and Post on any bus, including the one
// dispatching them. Post delivers to the snapshot taken when it started:
// subscribers added during delivery wait for the next post, and subscribers
// removed during delivery still receive the current one. Scratch buffers come
// from package pool and are owned by one Post call even when posts nest.
//
// # Failures
//
// Callbacks return error. The first failure, or a recovered panic, stops the
// post; Post returns the deliveries made so far and a *HandlerError or
// *PanicError. Fired one-shots are purged before Post returns.
//
// # Thread Safety
//
// None of the buses are safe for concurrent use. They are meant to be driven
// from one goroutine, such as an editor loop or a script runtime.
package event
