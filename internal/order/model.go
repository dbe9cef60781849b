// Package order keeps the local view of orders in sync with the storefront API.
package order

import (
	"time"

	"github.com/abgdnv/storesync/internal/lifecycle"
	"github.com/shopspring/decimal"
)

const (
	OpCreate       = "create"
	OpFetchMine    = "fetchMine"
	OpFetchList    = "fetchList"
	OpUpdateStatus = "updateStatus"
)

type Status string

// The set of statuses is owned by the server; any of them may replace any other.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var Statuses = []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

// Valid reports whether s is one of Statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

type ProductRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Item is an order line. Price is the unit price at order time.
type Item struct {
	Product ProductRef      `json:"productId"`
	Price   decimal.Decimal `json:"price"`
	Qty     int             `json:"qty"`
	Size    string          `json:"size"`
}

type ShipTo struct {
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
	Zip     string `json:"zip" validate:"required"`
}

type Contact struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Contact   string `json:"contact" validate:"required"`
}

type Customer struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
}

type Order struct {
	ID         string          `json:"_id"`
	OrderNum   string          `json:"orderNum"`
	Status     Status          `json:"status"`
	Items      []Item          `json:"items"`
	ShipTo     ShipTo          `json:"shipTo"`
	Contact    Contact         `json:"contact"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	CreatedAt  time.Time       `json:"createdAt"`
	User       *Customer       `json:"userId,omitempty"`
}

func (o Order) clone() Order {
	if o.Items != nil {
		o.Items = append(make([]Item, 0, len(o.Items)), o.Items...)
	}
	if o.User != nil {
		user := *o.User
		o.User = &user
	}
	return o
}

// State is the page of orders last fetched from the server plus the outcome of the last create.
type State struct {
	lifecycle.Status
	Orders       []Order          `json:"orderList"`
	OrderNum     string           `json:"orderNum"`
	Selected     *Order           `json:"selectedOrder"`
	TotalPageNum int              `json:"totalPageNum"`
	Phases       lifecycle.Phases `json:"phases"`
}

func initialState() State {
	return State{Orders: []Order{}, TotalPageNum: 1}
}

func (s State) clone() State {
	s.Orders = cloneOrders(s.Orders)
	if s.Selected != nil {
		selected := s.Selected.clone()
		s.Selected = &selected
	}
	return s
}

func cloneOrders(orders []Order) []Order {
	if orders == nil {
		return nil
	}
	out := make([]Order, len(orders))
	for i, o := range orders {
		out[i] = o.clone()
	}
	return out
}
