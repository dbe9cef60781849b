package order

import (
	"testing"

	"github.com/abgdnv/storesync/internal/lifecycle"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder(id, num string, status Status) Order {
	return Order{
		ID:         id,
		OrderNum:   num,
		Status:     status,
		Items:      []Item{{Product: ProductRef{ID: "p1", Name: "Linen shirt"}, Price: decimal.NewFromInt(30), Qty: 1, Size: "m"}},
		ShipTo:     ShipTo{Address: "1 Main St", City: "Seoul", Zip: "04524"},
		Contact:    Contact{FirstName: "Min", LastName: "Kim", Contact: "010-0000-0000"},
		TotalPrice: decimal.NewFromInt(30),
		User:       &Customer{ID: "u1", Email: "min@example.com"},
	}
}

func TestReduce_InitialTotalPageNum(t *testing.T) {
	assert.Equal(t, 1, initialState().TotalPageNum)
}

func TestReduce_Fetched(t *testing.T) {
	orders := []Order{testOrder("1", "N1", StatusPending), testOrder("2", "N2", StatusPending)}

	s := Reduce(initialState(), Started{Op: OpFetchList})
	s = Reduce(s, Fetched{Op: OpFetchList, Orders: orders, TotalPageNum: 4})

	assert.Equal(t, orders, s.Orders)
	assert.Equal(t, 4, s.TotalPageNum)
	assert.False(t, s.Loading)
	assert.Equal(t, lifecycle.Fulfilled, s.Phases.Of(OpFetchList))
	assert.Equal(t, lifecycle.Idle, s.Phases.Of(OpFetchMine))
}

func TestReduce_FetchedKeepsTotalPageNumPositive(t *testing.T) {
	s := Reduce(initialState(), Fetched{Op: OpFetchMine, Orders: nil, TotalPageNum: 0})

	assert.Equal(t, 1, s.TotalPageNum)
	assert.Equal(t, []Order{}, s.Orders)
}

func TestReduce_StatusUpdatedReplacesInPlace(t *testing.T) {
	first, second, third := testOrder("1", "N1", StatusPending), testOrder("2", "N2", StatusPending), testOrder("3", "N3", StatusShipped)
	s := Reduce(initialState(), Fetched{Op: OpFetchList, Orders: []Order{first, second, third}, TotalPageNum: 2})
	updated := testOrder("2", "N2", StatusDelivered)
	updated.ShipTo.City = "Busan"

	next := Reduce(s, StatusUpdated{Order: updated, TotalPageNum: 3})

	require.Len(t, next.Orders, 3)
	assert.Equal(t, first, next.Orders[0])
	assert.Equal(t, updated, next.Orders[1])
	assert.Equal(t, third, next.Orders[2])
	assert.Equal(t, 3, next.TotalPageNum)
	assert.Equal(t, StatusPending, s.Orders[1].Status, "input state must not change")

	matches := 0
	for _, o := range next.Orders {
		if o.ID == "2" {
			matches++
		}
	}
	assert.Equal(t, 1, matches)
}

func TestReduce_StatusUpdatedUnknownIDAndMissingPageCount(t *testing.T) {
	s := Reduce(initialState(), Fetched{Op: OpFetchList, Orders: []Order{testOrder("1", "N1", StatusPending)}, TotalPageNum: 5})

	next := Reduce(s, StatusUpdated{Order: testOrder("9", "N9", StatusCancelled)})

	assert.Equal(t, s.Orders, next.Orders)
	assert.Equal(t, 5, next.TotalPageNum)
}

func TestReduce_StatusUpdateFailedKeepsError(t *testing.T) {
	s := Reduce(initialState(), Failed{Op: OpFetchList, Message: "earlier failure"})
	s = Reduce(s, Started{Op: OpUpdateStatus})

	s = Reduce(s, StatusUpdateFailed{})

	assert.False(t, s.Loading)
	assert.Equal(t, "earlier failure", s.Error)
	assert.Equal(t, lifecycle.Rejected, s.Phases.Of(OpUpdateStatus))
}

func TestReduce_SelectedAndReset(t *testing.T) {
	o := testOrder("1", "N1", StatusPending)
	s := Reduce(initialState(), Selected{Order: &o})
	o.Items[0].Qty = 9

	require.NotNil(t, s.Selected)
	assert.Equal(t, 1, s.Selected.Items[0].Qty)

	s = Reduce(s, Created{OrderNum: "N2"})
	assert.Equal(t, "N2", s.OrderNum)

	assert.Equal(t, initialState(), Reduce(s, Reset{}))
}

func TestStatus_Valid(t *testing.T) {
	for _, st := range Statuses {
		assert.True(t, st.Valid(), st)
	}
	assert.False(t, Status("returned").Valid())
	assert.False(t, Status("").Valid())
}
