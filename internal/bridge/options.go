package bridge

import (
	"log/slog"
	"time"

	"github.com/mattjoyce/livebridge/internal/config"
	"github.com/mattjoyce/livebridge/internal/events"
)

const (
	DefaultCommandTimeout = 25 * time.Second
	DefaultMaxBatch       = 5
)

// Option configures a Bridge.
type Option func(*Bridge)

// WithCommandTimeout bounds how long Submit waits for a result.
func WithCommandTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.commandTimeout = d
		}
	}
}

// WithMaxBatch sets the Tick batch used when the caller passes maxBatch <= 0.
func WithMaxBatch(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.maxBatch = n
		}
	}
}

// WithQueueCapacity bounds the command queue. 0 is unbounded.
func WithQueueCapacity(n int) Option {
	return func(b *Bridge) { b.queueCapacity = n }
}

// WithSkipAbandoned makes Tick drop commands nobody is waiting for.
func WithSkipAbandoned(skip bool) Option {
	return func(b *Bridge) { b.skipAbandoned = skip }
}

// WithTickBudget ends a Tick early once d has elapsed and at least one command ran.
func WithTickBudget(d time.Duration) Option {
	return func(b *Bridge) { b.tickBudget = d }
}

// WithEvents publishes bridge activity to p.
func WithEvents(p events.Publisher) Option {
	return func(b *Bridge) {
		if p != nil {
			b.events = p
		}
	}
}

// WithLogger overrides the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) { b.now = now }
}

// FromConfig translates the bridge config section into Options.
func FromConfig(c config.BridgeConfig) []Option {
	return []Option{
		WithCommandTimeout(c.CommandTimeout),
		WithMaxBatch(c.MaxCommandsPerTick),
		WithQueueCapacity(c.QueueCapacity),
		WithSkipAbandoned(c.SkipAbandoned),
		WithTickBudget(c.TickBudget),
	}
}
