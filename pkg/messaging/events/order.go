package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/storesync/pkg/messaging"
)

// OrderPlacedEvent is emitted by the order store after the server accepted a new order.
// The server empties the cart at that point, so cart aggregates must be refreshed.
type OrderPlacedEvent struct {
	OrderNum string    `json:"order_num"`
	PlacedAt time.Time `json:"placed_at"`
}

func (o OrderPlacedEvent) Subject() string {
	return messaging.OrderPlacedSubject
}

func (o OrderPlacedEvent) Payload() ([]byte, error) {
	return json.Marshal(o)
}
