package messaging

import (
	"context"
)

const (
	OrderPlacedSubject  = "storesync.order.placed"
	NotificationSubject = "storesync.notifications"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
