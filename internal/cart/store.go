package cart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/abgdnv/storesync/internal/lifecycle"
	"github.com/abgdnv/storesync/internal/notify"
	"github.com/abgdnv/storesync/pkg/web"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

// User-facing notification texts.
const (
	MsgAdded           = "Item added to cart"
	MsgAddFailed       = "Could not add item to cart"
	MsgRemoved         = "Item removed from cart"
	MsgQuantityUpdated = "Quantity updated"
)

// Store owns the cart state. Operations may run concurrently; their transitions are applied
// one at a time in the order responses arrive, so a late stale response overwrites a newer one.
type Store struct {
	api      API
	notifier notify.Notifier
	runner   *lifecycle.Runner
	validate *validator.Validate

	mu    sync.Mutex
	state State
}

func NewStore(api API, notifier notify.Notifier, logger *slog.Logger) *Store {
	return &Store{
		api:      api,
		notifier: notifier,
		runner:   lifecycle.NewRunner("cart", logger),
		validate: web.NewValidator(),
		state:    initialState(),
	}
}

func initialState() State {
	return State{Items: []Item{}}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Store) apply(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, e)
}

// transitions maps the lifecycle phases of op to store events.
func transitions[T any](s *Store, op string, fulfilled func(T) Event) func(lifecycle.Phase, T, error) {
	return func(phase lifecycle.Phase, payload T, err error) {
		switch phase {
		case lifecycle.Pending:
			s.apply(Started{Op: op})
		case lifecycle.Rejected:
			s.apply(Failed{Op: op, Message: lifecycle.Message(err)})
		case lifecycle.Fulfilled:
			s.apply(fulfilled(payload))
		}
	}
}

func (s *Store) notify(message string, severity notify.Severity) {
	s.notifier.Notify(notify.Notification{Message: message, Severity: severity})
}

// Add puts one unit of productID in the given size into the cart.
func (s *Store) Add(ctx context.Context, productID, size string) error {
	req := AddRequest{ProductID: productID, Size: size, Qty: 1}
	_, err := lifecycle.Execute(ctx, s.runner, OpAdd,
		transitions(s, OpAdd, func(count int) Event { return Added{Count: count} }),
		func(ctx context.Context) (int, error) {
			if err := s.validate.Struct(req); err != nil {
				return 0, lifecycle.InvalidInput(err)
			}
			return s.api.Add(ctx, req)
		})
	if err != nil {
		s.notify(MsgAddFailed, notify.Error)
		return err
	}
	s.notify(MsgAdded, notify.Success)
	return nil
}

// List replaces the items with the server cart and recomputes the total.
func (s *Store) List(ctx context.Context) error {
	_, err := lifecycle.Execute(ctx, s.runner, OpList,
		transitions(s, OpList, func(items []Item) Event { return Listed{Items: items} }),
		s.api.List)
	return err
}

// Delete removes an item, then refreshes count and list concurrently.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := lifecycle.Execute(ctx, s.runner, OpDelete,
		transitions(s, OpDelete, func(struct{}) Event { return Deleted{} }),
		func(ctx context.Context) (struct{}, error) {
			if err := s.validate.Var(id, "required"); err != nil {
				return struct{}{}, lifecycle.InvalidInput(fmt.Errorf("item id: %w", err))
			}
			return struct{}{}, s.api.Delete(ctx, id)
		})
	if err != nil {
		return err
	}
	s.notify(MsgRemoved, notify.Success)
	return s.refresh(ctx, s.Count, s.List)
}

// UpdateQuantity sets the quantity of an item, then re-fetches the list.
func (s *Store) UpdateQuantity(ctx context.Context, id string, qty int) error {
	req := UpdateRequest{ID: id, Qty: qty}
	_, err := lifecycle.Execute(ctx, s.runner, OpUpdateQuantity,
		transitions(s, OpUpdateQuantity, func(r UpdateResult) Event {
			return QuantityUpdated{Items: r.Items, Replaced: r.Replaced}
		}),
		func(ctx context.Context) (UpdateResult, error) {
			if err := s.validate.Struct(req); err != nil {
				return UpdateResult{}, lifecycle.InvalidInput(err)
			}
			return s.api.UpdateQuantity(ctx, req.ID, req.Qty)
		})
	if err != nil {
		return err
	}
	s.notify(MsgQuantityUpdated, notify.Success)
	return s.List(ctx)
}

// Count fetches the authoritative number of items in the cart.
func (s *Store) Count(ctx context.Context) error {
	_, err := lifecycle.Execute(ctx, s.runner, OpCount,
		transitions(s, OpCount, func(count int) Event { return Counted{Count: count} }),
		s.api.Count)
	return err
}

// Select marks item as the one shown in detail. nil clears the selection.
func (s *Store) Select(item *Item) {
	s.apply(Selected{Item: item})
}

// Reset drops everything, e.g. on logout.
func (s *Store) Reset() {
	s.apply(Reset{})
}

// refresh runs follow-up fetches concurrently. A failure does not cancel the others.
func (s *Store) refresh(ctx context.Context, ops ...func(context.Context) error) error {
	var g errgroup.Group
	for _, op := range ops {
		g.Go(func() error {
			return op(ctx)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("cart refresh failed: %w", err)
	}
	return nil
}
