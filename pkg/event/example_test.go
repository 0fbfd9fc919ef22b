package event_test

import (
	"fmt"

	"github.com/dshills/eventbus/pkg/event"
)

func Example() {
	bus := event.NewBus()

	bus.On(func() error {
		fmt.Println("permanent")
		return nil
	})
	bus.Once(func() error {
		fmt.Println("once")
		return nil
	})

	n, _ := bus.Post()
	fmt.Println("delivered", n)
	n, _ = bus.Post()
	fmt.Println("delivered", n)

	// Output:
	// permanent
	// once
	// delivered 2
	// permanent
	// delivered 1
}

func ExampleOn() {
	bus := event.NewBus()

	event.On(bus, func(width int) error {
		fmt.Println("resize", width)
		return nil
	})

	n, _ := event.Post(bus, 80)
	fmt.Println("int subscribers:", n)
	n, _ = event.Post(bus, "80")
	fmt.Println("string subscribers:", n)

	// Output:
	// resize 80
	// int subscribers: 1
	// string subscribers: 0
}

func ExampleBus_Off() {
	bus := event.NewBus()

	var self event.Handle
	self = bus.On(func() error {
		fmt.Println("last call")
		bus.Off(self)
		return nil
	})

	bus.Post()
	n, _ := bus.Post()
	fmt.Println("delivered", n)

	// Output:
	// last call
	// delivered 0
}

func ExampleKeyed() {
	keyed := event.NewKeyed[string]()

	keyed.On("save", func() error {
		fmt.Println("saved")
		return nil
	})
	event.OnKey(keyed, "open", func(path string) error {
		fmt.Println("open", path)
		return nil
	})

	keyed.Post("save")
	event.PostKey(keyed, "open", "notes.txt")
	n, _ := keyed.Post("close")
	fmt.Println("close subscribers:", n)

	// Output:
	// saved
	// open notes.txt
	// close subscribers: 0
}

func ExampleExecuteAll() {
	type greeter interface{ Greet() string }

	components := []any{englishGreeter{}, 42, frenchGreeter{}}
	found, _ := event.ExecuteAll(components, func(g greeter, name string) error {
		fmt.Println(g.Greet(), name)
		return nil
	}, "Ada")
	fmt.Println("found:", found)

	// Output:
	// Hello Ada
	// Bonjour Ada
	// found: true
}

type englishGreeter struct{}

func (englishGreeter) Greet() string { return "Hello" }

type frenchGreeter struct{}

func (frenchGreeter) Greet() string { return "Bonjour" }
