package event

import (
	"log/slog"
	"time"

	"github.com/dshills/eventbus/pkg/event/pool"
)

// Option configures a Bus, a Keyed bus or a standalone Contextual bus.
type Option func(*config)

// config is shared by a bus and every registry it owns.
type config struct {
	// logger receives debug records for lazy creation and callback failures.
	logger *slog.Logger

	// observer is told about every post that reaches a registry.
	observer Observer

	// maxRetained bounds the snapshot buffers kept for reuse.
	maxRetained int

	// key is set on buses created by a Keyed.
	key string
}

func defaultConfig() config {
	return config{
		logger:      slog.Default(),
		maxRetained: pool.DefaultMaxRetained,
	}
}

func buildConfig(opts []Option) config {
	c := defaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger sets the logger. A nil logger keeps the default.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver sets the post observer.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observer = o
	}
}

// WithMaxRetained sets the largest snapshot buffer kept for reuse between posts.
func WithMaxRetained(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxRetained = n
		}
	}
}

// withKey tags buses created by a Keyed.
func withKey(key string) Option {
	return func(c *config) {
		c.key = key
	}
}

// Observer is notified after every post that reached a registry.
// Posts to a payload type or key that was never registered are not observed.
type Observer interface {
	ObservePost(rec PostRecord)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(rec PostRecord)

// ObservePost calls f(rec).
func (f ObserverFunc) ObservePost(rec PostRecord) {
	f(rec)
}

// PostRecord describes one completed post.
type PostRecord struct {
	// BusID is the ID of the posting bus, empty for standalone Contextual buses.
	BusID string

	// Key is the keyed-bus key, empty outside a Keyed.
	Key string

	// Path is the payload type name, empty for parameterless posts.
	Path string

	// Delivered is the number of successful deliveries.
	Delivered int

	// Err is the subscriber failure that stopped the post, if any.
	Err error

	Start    time.Time
	Duration time.Duration
}
