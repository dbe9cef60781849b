package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/abgdnv/storesync/pkg/messaging"
	"github.com/abgdnv/storesync/pkg/messaging/events"
)

// LogSink writes notifications to the structured log.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("component", "toast")}
}

func (s *LogSink) Deliver(ctx context.Context, n Notification) error {
	level := slog.LevelInfo
	if n.Severity == Error {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, n.Message, "status", string(n.Severity))
	return nil
}

// PublisherSink forwards notifications as events, e.g. to NATS for a remote display surface.
type PublisherSink struct {
	publisher messaging.Publisher
	subject   string
}

func NewPublisherSink(publisher messaging.Publisher, subject string) *PublisherSink {
	return &PublisherSink{publisher: publisher, subject: subject}
}

func (s *PublisherSink) Deliver(ctx context.Context, n Notification) error {
	return s.publisher.Publish(ctx, events.NotificationEvent{
		Message:  n.Message,
		Severity: string(n.Severity),
		At:       n.At,
		Topic:    s.subject,
	})
}

// Recent keeps the last notifications in memory so the display surface can poll them.
type Recent struct {
	mu    sync.Mutex
	limit int
	items []Notification
}

func NewRecent(limit int) *Recent {
	return &Recent{limit: limit}
}

func (r *Recent) Deliver(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
	if over := len(r.items) - r.limit; over > 0 {
		r.items = append([]Notification(nil), r.items[over:]...)
	}
	return nil
}

// List returns the retained notifications, oldest first.
func (r *Recent) List() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}
