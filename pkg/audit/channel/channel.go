// Package channel provides the asynchronous, at-least-once delivery channel
// between the audit emitter and a sink. Production wiring points the channel
// at an HTTP or Kafka sink; tests point it at an in-memory recorder. Both are
// just Sink implementations, so no mocking framework is involved.
package channel

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"studygate/pkg/audit"
)

// Sink transports one audit event to its destination. Deliver returning an
// error signals a transient failure; the channel retries per policy.
type Sink interface {
	Deliver(ctx context.Context, event audit.Event) error
}

// Submit errors. The emitter logs and counts these; they never reach the
// business operation's caller.
var (
	ErrBufferFull = errors.New("audit channel buffer full")
	ErrClosed     = errors.New("audit channel closed")
)

// Config bounds the channel's buffering and retry behavior.
type Config struct {
	// BufferSize is the queue capacity. Submit drops (with an error) when full.
	BufferSize int
	// MaxAttempts caps delivery attempts per event, first try included.
	MaxAttempts int
	// InitialBackoff is the delay before the second attempt; it doubles per
	// attempt up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// DeliverTimeout bounds a single Deliver call.
	DeliverTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.BufferSize <= 0 {
		c.BufferSize = 256
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 100 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Second
	}
	if c.DeliverTimeout <= 0 {
		c.DeliverTimeout = 10 * time.Second
	}
	return c
}

// Channel is a bounded queue drained by a single background worker. Events
// are delivered at least once: a transient sink failure triggers bounded
// retries, exhaustion drops the event and increments the failure counter.
type Channel struct {
	cfg     Config
	sink    Sink
	logger  *slog.Logger
	metrics *Metrics

	ch        chan audit.Event
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// Option configures a Channel.
type Option func(*Channel)

// WithLogger sets the logger used for delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Channel) { c.logger = logger }
}

// WithMetrics sets the Prometheus collectors for channel outcomes.
func WithMetrics(m *Metrics) Option {
	return func(c *Channel) { c.metrics = m }
}

// New creates a channel and starts its worker.
func New(cfg Config, sink Sink, opts ...Option) *Channel {
	c := &Channel{
		cfg:  cfg.withDefaults(),
		sink: sink,
		ch:   make(chan audit.Event, cfg.withDefaults().BufferSize),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	c.wg.Add(1)
	go c.run()
	return c
}

// Submit enqueues an event without blocking. A full buffer or closed channel
// returns an error so the caller can count the loss; the event is gone either
// way, which is acceptable for a fire-and-forget side channel.
func (c *Channel) Submit(ctx context.Context, event audit.Event) error {
	if c.closed.Load() {
		return ErrClosed
	}
	select {
	case c.ch <- event:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
		c.dropped.Add(1)
		if c.metrics != nil {
			c.metrics.Dropped.Inc()
		}
		return ErrBufferFull
	}
}

// Dropped reports how many events were lost to a full buffer or exhausted
// retries since the channel started.
func (c *Channel) Dropped() uint64 {
	return c.dropped.Load()
}

// Close stops accepting events, drains the buffer through the sink, and
// waits for the worker to finish.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
		c.wg.Wait()
	})
}

func (c *Channel) run() {
	defer c.wg.Done()

	for {
		select {
		case event := <-c.ch:
			c.deliver(event)
		case <-c.done:
			for {
				select {
				case event := <-c.ch:
					c.deliver(event)
				default:
					return
				}
			}
		}
	}
}

// deliver makes bounded attempts against the sink. There is no cross-event
// ordering guarantee; consumers key on (correlationId, eventCode) presence.
func (c *Channel) deliver(event audit.Event) {
	backoff := c.cfg.InitialBackoff

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.DeliverTimeout)
		err := c.sink.Deliver(ctx, event)
		cancel()

		if err == nil {
			if c.metrics != nil {
				c.metrics.Delivered.Inc()
			}
			return
		}

		if attempt == c.cfg.MaxAttempts {
			break
		}
		if c.metrics != nil {
			c.metrics.Retries.Inc()
		}
		if !c.sleep(backoff) {
			// Shutting down: one final immediate attempt happens on the next
			// loop iteration only if attempts remain, otherwise drop below.
			continue
		}
		backoff *= 2
		if backoff > c.cfg.MaxBackoff {
			backoff = c.cfg.MaxBackoff
		}
	}

	c.dropped.Add(1)
	if c.metrics != nil {
		c.metrics.Dropped.Inc()
	}
	c.logger.Error("audit event dropped after exhausting delivery retries",
		"event_code", event.EventCode,
		"correlation_id", event.CorrelationID,
		"attempts", c.cfg.MaxAttempts,
	)
}

// sleep waits for d or until Close, reporting whether the full wait elapsed.
func (c *Channel) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-c.done:
		return false
	}
}
