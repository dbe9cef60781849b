// Package notify is the one-way channel used by the stores to surface transient messages to the user.
// Stores only ever enqueue; delivery happens on a separate goroutine and its failures stay here.
package notify

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Info    Severity = "info"
)

type Notification struct {
	Message  string    `json:"message"`
	Severity Severity  `json:"status"`
	At       time.Time `json:"at"`
}

// Notifier accepts notifications without blocking and without reporting failures.
type Notifier interface {
	Notify(n Notification)
}

// Sink displays or forwards notifications taken off the queue.
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n Notification) error

func (f SinkFunc) Deliver(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(Notification) {}

// Channel is a bounded outbound queue drained by Run into its sinks.
// When the queue is full new notifications are dropped.
type Channel struct {
	queue   chan Notification
	sinks   []Sink
	logger  *slog.Logger
	dropped atomic.Int64
	now     func() time.Time
}

var _ Notifier = (*Channel)(nil)

// NewChannel creates a Channel with room for size pending notifications.
func NewChannel(size int, logger *slog.Logger, sinks ...Sink) *Channel {
	return &Channel{
		queue:  make(chan Notification, size),
		sinks:  sinks,
		logger: logger.With("component", "notify"),
		now:    time.Now,
	}
}

// Notify enqueues n and returns immediately.
func (c *Channel) Notify(n Notification) {
	if n.At.IsZero() {
		n.At = c.now()
	}
	select {
	case c.queue <- n:
	default:
		c.dropped.Add(1)
		c.logger.Warn("Notification queue is full, dropping notification", "message", n.Message, "status", n.Severity)
	}
}

// Dropped returns how many notifications were discarded because the queue was full.
func (c *Channel) Dropped() int64 {
	return c.dropped.Load()
}

// Run delivers queued notifications until ctx is cancelled. What is still queued at that point is
// delivered with a detached context before Run returns.
func (c *Channel) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			c.flush()
			return ctx.Err()
		case n := <-c.queue:
			c.deliver(ctx, n)
		}
	}
}

func (c *Channel) flush() {
	ctx := context.WithoutCancel(context.Background())
	for {
		select {
		case n := <-c.queue:
			c.deliver(ctx, n)
		default:
			return
		}
	}
}

func (c *Channel) deliver(ctx context.Context, n Notification) {
	for _, sink := range c.sinks {
		if err := c.safeDeliver(ctx, sink, n); err != nil {
			c.logger.ErrorContext(ctx, "Failed to deliver notification", "message", n.Message, "error", err)
		}
	}
}

func (c *Channel) safeDeliver(ctx context.Context, sink Sink, n Notification) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			c.logger.ErrorContext(ctx, "Panic recovered in notification sink", "panic", rvr)
		}
	}()
	return sink.Deliver(ctx, n)
}
