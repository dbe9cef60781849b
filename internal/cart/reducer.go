package cart

import "github.com/abgdnv/storesync/internal/lifecycle"

// Event is a state transition of the cart store.
type Event interface {
	isEvent()
}

// Started moves Op to pending.
type Started struct{ Op string }

// Failed moves Op to rejected and records Message.
type Failed struct {
	Op      string
	Message string
}

// Added carries the authoritative item count returned after an add.
type Added struct{ Count int }

// Listed carries a full cart fetched from the server.
type Listed struct{ Items []Item }

type Deleted struct{}

// QuantityUpdated carries the optional cart returned by a quantity update.
type QuantityUpdated struct {
	Items    []Item
	Replaced bool
}

type Counted struct{ Count int }

type Selected struct{ Item *Item }

type Reset struct{}

func (Started) isEvent()         {}
func (Failed) isEvent()          {}
func (Added) isEvent()           {}
func (Listed) isEvent()          {}
func (Deleted) isEvent()         {}
func (QuantityUpdated) isEvent() {}
func (Counted) isEvent()         {}
func (Selected) isEvent()        {}
func (Reset) isEvent()           {}

// Reduce returns the state after e. It never mutates s.
// TotalPrice is only recomputed here, when a list payload is applied.
func Reduce(s State, e Event) State {
	switch e := e.(type) {
	case Started:
		s.Status = s.Status.Transition(lifecycle.Pending, "")
		s.Phases = s.Phases.With(e.Op, lifecycle.Pending)
	case Failed:
		s.Status = s.Status.Transition(lifecycle.Rejected, e.Message)
		s.Phases = s.Phases.With(e.Op, lifecycle.Rejected)
	case Added:
		s = fulfil(s, OpAdd)
		s.ItemCount = e.Count
	case Listed:
		s = fulfil(s, OpList)
		s = withItems(s, e.Items)
	case Deleted:
		s = fulfil(s, OpDelete)
	case QuantityUpdated:
		s = fulfil(s, OpUpdateQuantity)
		if e.Replaced {
			s = withItems(s, e.Items)
		}
	case Counted:
		s = fulfil(s, OpCount)
		s.ItemCount = e.Count
	case Selected:
		if e.Item == nil {
			s.Selected = nil
		} else {
			item := *e.Item
			s.Selected = &item
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

func withItems(s State, items []Item) State {
	s.Items = cloneItems(items)
	if s.Items == nil {
		s.Items = []Item{}
	}
	s.TotalPrice = totalOf(s.Items)
	return s
}
