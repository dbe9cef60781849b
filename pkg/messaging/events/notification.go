package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/storesync/pkg/messaging"
)

// NotificationEvent carries a user-facing message to a remote display surface.
type NotificationEvent struct {
	Message  string    `json:"message"`
	Severity string    `json:"status"`
	At       time.Time `json:"at"`
	// Topic overrides the default notification subject when set.
	Topic string `json:"-"`
}

func (n NotificationEvent) Subject() string {
	if n.Topic != "" {
		return n.Topic
	}
	return messaging.NotificationSubject
}

func (n NotificationEvent) Payload() ([]byte, error) {
	return json.Marshal(n)
}
