package order

import "github.com/abgdnv/storesync/internal/lifecycle"

// Event is a state transition of the order store.
type Event interface {
	isEvent()
}

type Started struct{ Op string }

type Failed struct {
	Op      string
	Message string
}

// Created carries the number of the order the server just accepted.
type Created struct{ OrderNum string }

// Fetched carries a page of orders for OpFetchMine or OpFetchList.
type Fetched struct {
	Op           string
	Orders       []Order
	TotalPageNum int
}

// StatusUpdated carries the order returned by a status update. TotalPageNum is 0 when the server did not send it.
type StatusUpdated struct {
	Order        Order
	TotalPageNum int
}

// StatusUpdateFailed settles a failed status update. Unlike Failed it leaves Error alone.
type StatusUpdateFailed struct{}

type Selected struct{ Order *Order }

type Reset struct{}

func (Started) isEvent()            {}
func (Failed) isEvent()             {}
func (Created) isEvent()            {}
func (Fetched) isEvent()            {}
func (StatusUpdated) isEvent()      {}
func (StatusUpdateFailed) isEvent() {}
func (Selected) isEvent()           {}
func (Reset) isEvent()              {}

// Reduce returns the state after e. It never mutates s.
func Reduce(s State, e Event) State {
	switch e := e.(type) {
	case Started:
		s.Status = s.Status.Transition(lifecycle.Pending, "")
		s.Phases = s.Phases.With(e.Op, lifecycle.Pending)
	case Failed:
		s.Status = s.Status.Transition(lifecycle.Rejected, e.Message)
		s.Phases = s.Phases.With(e.Op, lifecycle.Rejected)
	case StatusUpdateFailed:
		s.Loading = false
		s.Phases = s.Phases.With(OpUpdateStatus, lifecycle.Rejected)
	case Created:
		s = fulfil(s, OpCreate)
		s.OrderNum = e.OrderNum
	case Fetched:
		s = fulfil(s, e.Op)
		s.Orders = cloneOrders(e.Orders)
		if s.Orders == nil {
			s.Orders = []Order{}
		}
		s.TotalPageNum = max(e.TotalPageNum, 1)
	case StatusUpdated:
		s = fulfil(s, OpUpdateStatus)
		s.Orders = replaceByID(s.Orders, e.Order)
		if e.TotalPageNum > 0 {
			s.TotalPageNum = e.TotalPageNum
		}
	case Selected:
		if e.Order == nil {
			s.Selected = nil
		} else {
			selected := e.Order.clone()
			s.Selected = &selected
		}
	case Reset:
		return initialState()
	}
	return s
}

func fulfil(s State, op string) State {
	s.Status = s.Status.Transition(lifecycle.Fulfilled, "")
	s.Phases = s.Phases.With(op, lifecycle.Fulfilled)
	return s
}

// replaceByID returns a copy of orders with the entry sharing updated's ID swapped for updated.
// Position and the other entries are kept; an unknown ID changes nothing.
func replaceByID(orders []Order, updated Order) []Order {
	out := make([]Order, len(orders))
	copy(out, orders)
	for i := range out {
		if out[i].ID == updated.ID {
			out[i] = updated.clone()
		}
	}
	return out
}
