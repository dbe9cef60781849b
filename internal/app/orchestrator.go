package app

import (
	"context"
	"log/slog"

	"github.com/abgdnv/storesync/internal/cart"
	"github.com/abgdnv/storesync/internal/order"
	"github.com/abgdnv/storesync/internal/session"
	"github.com/abgdnv/storesync/pkg/messaging"
	"github.com/abgdnv/storesync/pkg/messaging/events"
)

// Orchestrator carries the effects that span more than one store.
type Orchestrator struct {
	cart    *cart.Store
	orders  *order.Store
	session *session.Session
	logger  *slog.Logger
}

func NewOrchestrator(cartStore *cart.Store, orderStore *order.Store, sess *session.Session, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cart:    cartStore,
		orders:  orderStore,
		session: sess,
		logger:  logger.With("component", "orchestrator"),
	}
}

// Register subscribes the orchestrator to store events on bus.
func (o *Orchestrator) Register(bus *messaging.Bus) {
	bus.Subscribe(messaging.OrderPlacedSubject, o.onOrderPlaced)
}

// onOrderPlaced refreshes the cart count: the server empties the cart when it accepts an order.
func (o *Orchestrator) onOrderPlaced(ctx context.Context, event messaging.Event) error {
	if placed, ok := event.(events.OrderPlacedEvent); ok {
		o.logger.InfoContext(ctx, "Order placed, refreshing cart count", "order_num", placed.OrderNum)
	}
	return o.cart.Count(ctx)
}

// Login starts a session with token and loads the cart count of the new user.
func (o *Orchestrator) Login(ctx context.Context, token string) (session.Info, error) {
	info, err := o.session.Set(token)
	if err != nil {
		return session.Info{}, err
	}
	o.logger.InfoContext(ctx, "Session started", "subject", info.Subject)
	if err := o.cart.Count(ctx); err != nil {
		o.logger.WarnContext(ctx, "Cart count after login failed", "error", err)
	}
	return info, nil
}

// Logout ends the session and drops all user state.
func (o *Orchestrator) Logout(ctx context.Context) {
	o.session.Clear()
	o.cart.Reset()
	o.orders.Reset()
	o.logger.InfoContext(ctx, "Session ended, stores reset")
}

func (o *Orchestrator) Session() session.Info {
	return o.session.Info()
}
