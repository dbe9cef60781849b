package order

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	storeerrors "github.com/abgdnv/storesync/internal/errors"
	"github.com/abgdnv/storesync/internal/lifecycle"
	"github.com/abgdnv/storesync/internal/notify"
	"github.com/abgdnv/storesync/pkg/messaging"
	"github.com/abgdnv/storesync/pkg/messaging/events"
	"github.com/abgdnv/storesync/pkg/web"
	"github.com/go-playground/validator/v10"
)

// StatusChangedMessage is the notification text after a successful status update.
func StatusChangedMessage(status Status) string {
	return fmt.Sprintf("The order has been changed to %s", status)
}

// Store owns the order state. Like the cart store it applies responses in arrival order.
type Store struct {
	api       API
	notifier  notify.Notifier
	publisher messaging.Publisher
	runner    *lifecycle.Runner
	validate  *validator.Validate
	now       func() time.Time

	mu    sync.Mutex
	state State
}

// NewStore creates an order Store. publisher receives an OrderPlacedEvent after every accepted order.
func NewStore(api API, notifier notify.Notifier, publisher messaging.Publisher, logger *slog.Logger) *Store {
	return &Store{
		api:       api,
		notifier:  notifier,
		publisher: publisher,
		runner:    lifecycle.NewRunner("order", logger),
		validate:  web.NewValidator(),
		now:       time.Now,
		state:     initialState(),
	}
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

// Create places an order. On success an OrderPlacedEvent is published so the cart can refresh its count.
func (s *Store) Create(ctx context.Context, req CreateRequest) error {
	orderNum, err := lifecycle.Execute(ctx, s.runner, OpCreate,
		transitions(s, OpCreate, func(orderNum string) Event { return Created{OrderNum: orderNum} }),
		func(ctx context.Context) (string, error) {
			if err := s.validate.Struct(req); err != nil {
				return "", lifecycle.InvalidInput(err)
			}
			return s.api.Create(ctx, req)
		})
	if err != nil {
		s.notifier.Notify(notify.Notification{Message: lifecycle.Message(err), Severity: notify.Error})
		return err
	}

	event := events.OrderPlacedEvent{OrderNum: orderNum, PlacedAt: s.now()}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.runner.Logger().ErrorContext(ctx, "OrderPlacedEvent handling failed", "order_num", orderNum, "error", err)
		return fmt.Errorf("order %s placed but follow-up failed: %w", orderNum, err)
	}
	return nil
}

// FetchMine loads the orders of the signed-in user.
func (s *Store) FetchMine(ctx context.Context) error {
	_, err := lifecycle.Execute(ctx, s.runner, OpFetchMine,
		transitions(s, OpFetchMine, func(p Page) Event {
			return Fetched{Op: OpFetchMine, Orders: p.Orders, TotalPageNum: p.TotalPageNum}
		}),
		s.api.FetchMine)
	return err
}

// FetchList loads one page of the order list matching q.
func (s *Store) FetchList(ctx context.Context, q Query) error {
	_, err := lifecycle.Execute(ctx, s.runner, OpFetchList,
		transitions(s, OpFetchList, func(p Page) Event {
			return Fetched{Op: OpFetchList, Orders: p.Orders, TotalPageNum: p.TotalPageNum}
		}),
		func(ctx context.Context) (Page, error) {
			if err := s.validate.Struct(q); err != nil {
				return Page{}, lifecycle.InvalidInput(err)
			}
			if q.Status != "" && !q.Status.Valid() {
				return Page{}, lifecycle.InvalidInput(fmt.Errorf("%w: %s", storeerrors.ErrUnknownOrderStatus, q.Status))
			}
			return s.api.FetchList(ctx, q)
		})
	return err
}

// UpdateStatus writes a new status for order id. Any known status may replace any other.
// A failure is notified but, unlike the other operations, not recorded in State.Error.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status, page int, orderNum string) error {
	req := UpdateStatusRequest{ID: id, Status: status, Page: page, OrderNum: orderNum}
	_, err := lifecycle.Execute(ctx, s.runner, OpUpdateStatus,
		func(phase lifecycle.Phase, res UpdateResult, _ error) {
			switch phase {
			case lifecycle.Pending:
				s.apply(Started{Op: OpUpdateStatus})
			case lifecycle.Rejected:
				s.apply(StatusUpdateFailed{})
			case lifecycle.Fulfilled:
				s.apply(StatusUpdated{Order: res.Order, TotalPageNum: res.TotalPageNum})
			}
		},
		func(ctx context.Context) (UpdateResult, error) {
			if err := s.validate.Struct(req); err != nil {
				return UpdateResult{}, lifecycle.InvalidInput(err)
			}
			if !req.Status.Valid() {
				return UpdateResult{}, lifecycle.InvalidInput(fmt.Errorf("%w: %s", storeerrors.ErrUnknownOrderStatus, req.Status))
			}
			return s.api.UpdateStatus(ctx, req)
		})
	if err != nil {
		s.notifier.Notify(notify.Notification{Message: lifecycle.Message(err), Severity: notify.Error})
		return err
	}
	s.notifier.Notify(notify.Notification{Message: StatusChangedMessage(status), Severity: notify.Success})
	return nil
}

// Select marks o as the order shown in the detail view. nil clears the selection.
func (s *Store) Select(o *Order) {
	s.apply(Selected{Order: o})
}

// Reset drops everything, e.g. on logout.
func (s *Store) Reset() {
	s.apply(Reset{})
}
