package lua

import (
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/eventbus/pkg/event"
)

// ModuleName is the global table a script uses to reach the bus.
const ModuleName = "bus"

// Module exposes a keyed bus to Lua as the global bus table:
//
//	bus.on(name, fn)            -- fn() on every bus.post(name)
//	bus.once(name, fn)          -- fn() on the next bus.post(name) only
//	bus.on_value(name, fn)      -- fn(v) on every bus.post(name, v)
//	bus.once_value(name, fn)    -- fn(v) on the next bus.post(name, v) only
//	bus.off(name, fn)           -- removes fn from the parameterless subscribers
//	bus.off_value(name, fn)     -- removes fn from the value subscribers
//	bus.off_all(name)           -- removes every subscriber of name
//	bus.post(name [, v])        -- returns the number of deliveries
//
// A handler that raises an error stops the post, and the error is raised
// again from bus.post.
type Module struct {
	keyed  *event.Keyed[string]
	logger *slog.Logger

	// subs tracks what each script function registered, so off can find a
	// handle by function identity.
	subs map[string][]subscription
}

type subscription struct {
	fn     *lua.LFunction
	handle event.Handle
	value  bool
}

// NewModule creates a module over keyed. A nil logger uses slog.Default().
func NewModule(keyed *event.Keyed[string], logger *slog.Logger) *Module {
	if logger == nil {
		logger = slog.Default()
	}
	return &Module{
		keyed:  keyed,
		logger: logger,
		subs:   make(map[string][]subscription),
	}
}

// Keyed returns the bus the module posts to.
func (m *Module) Keyed() *event.Keyed[string] {
	return m.keyed
}

// Register installs the bus table into L.
func (m *Module) Register(L *lua.LState) {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"on":         m.on,
		"once":       m.once,
		"on_value":   m.onValue,
		"once_value": m.onceValue,
		"off":        m.off,
		"off_value":  m.offValue,
		"off_all":    m.offAll,
		"post":       m.post,
	})
	L.SetGlobal(ModuleName, mod)
}

func (m *Module) on(L *lua.LState) int {
	name, fn := checkSubscriber(L)
	m.track(name, fn, m.keyed.On(name, plainCallback(L, fn)), false)
	return 0
}

func (m *Module) once(L *lua.LState) int {
	name, fn := checkSubscriber(L)
	m.track(name, fn, m.keyed.Once(name, plainCallback(L, fn)), false)
	return 0
}

func (m *Module) onValue(L *lua.LState) int {
	name, fn := checkSubscriber(L)
	m.track(name, fn, event.OnKey(m.keyed, name, valueCallback(L, fn)), true)
	return 0
}

func (m *Module) onceValue(L *lua.LState) int {
	name, fn := checkSubscriber(L)
	m.track(name, fn, event.OnceKey(m.keyed, name, valueCallback(L, fn)), true)
	return 0
}

func (m *Module) off(L *lua.LState) int {
	name, fn := checkSubscriber(L)
	L.Push(lua.LBool(m.remove(name, fn, false)))
	return 1
}

func (m *Module) offValue(L *lua.LState) int {
	name, fn := checkSubscriber(L)
	L.Push(lua.LBool(m.remove(name, fn, true)))
	return 1
}

func (m *Module) offAll(L *lua.LState) int {
	name := L.CheckString(1)
	m.keyed.OffAll(name)
	event.OffAllKey[string, lua.LValue](m.keyed, name)
	delete(m.subs, name)
	return 0
}

func (m *Module) post(L *lua.LState) int {
	name := L.CheckString(1)

	var (
		n   int
		err error
	)
	if L.GetTop() >= 2 {
		n, err = event.PostKey(m.keyed, name, L.Get(2))
	} else {
		n, err = m.keyed.Post(name)
	}
	if err != nil {
		m.logger.Debug("lua: post failed", "event", name, "delivered", n, "error", err)
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(lua.LNumber(n))
	return 1
}

func checkSubscriber(L *lua.LState) (string, *lua.LFunction) {
	name := L.CheckString(1)
	if name == "" {
		L.ArgError(1, "event name cannot be empty")
	}
	return name, L.CheckFunction(2)
}

func (m *Module) track(name string, fn *lua.LFunction, h event.Handle, value bool) {
	m.prune(name)
	m.subs[name] = append(m.subs[name], subscription{fn: fn, handle: h, value: value})
}

// remove unregisters the first live registration of fn under name.
func (m *Module) remove(name string, fn *lua.LFunction, value bool) bool {
	m.prune(name)
	subs := m.subs[name]
	for i, sub := range subs {
		if sub.fn != fn || sub.value != value {
			continue
		}
		var ok bool
		if value {
			ok = event.OffKey[string, lua.LValue](m.keyed, name, sub.handle)
		} else {
			ok = m.keyed.Off(name, sub.handle)
		}
		m.subs[name] = append(subs[:i], subs[i+1:]...)
		return ok
	}
	return false
}

// prune drops tracked registrations the bus no longer holds, such as
// one-shots that already fired.
func (m *Module) prune(name string) {
	subs, ok := m.subs[name]
	if !ok {
		return
	}
	live := subs[:0]
	for _, sub := range subs {
		if m.contains(name, sub) {
			live = append(live, sub)
		}
	}
	clear(subs[len(live):])
	if len(live) == 0 {
		delete(m.subs, name)
		return
	}
	m.subs[name] = live
}

func (m *Module) contains(name string, sub subscription) bool {
	if sub.value {
		return event.ContainsKey[string, lua.LValue](m.keyed, name, sub.handle)
	}
	return m.keyed.Contains(name, sub.handle)
}

func plainCallback(L *lua.LState, fn *lua.LFunction) event.Func {
	return func() error {
		return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
	}
}

func valueCallback(L *lua.LState, fn *lua.LFunction) event.ContextFunc[lua.LValue] {
	return func(v lua.LValue) error {
		return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, v)
	}
}
