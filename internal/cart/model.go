// Package cart keeps the local view of the shopping cart in sync with the storefront API.
package cart

import (
	"github.com/abgdnv/storesync/internal/lifecycle"
	"github.com/shopspring/decimal"
)

// Operation names, also used as keys of State.Phases.
const (
	OpAdd            = "add"
	OpList           = "list"
	OpDelete         = "delete"
	OpUpdateQuantity = "updateQuantity"
	OpCount          = "count"
)

// Product is the populated product reference of a cart item. Price is the authoritative unit price.
type Product struct {
	ID    string          `json:"_id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type Item struct {
	ID      string  `json:"_id"`
	Product Product `json:"productId"`
	Size    string  `json:"size"`
	Qty     int     `json:"qty"`
}

// Subtotal returns price x qty.
func (i Item) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// State is the cart as last reconciled with the server.
// ItemCount is fetched on its own and may disagree with len(Items).
type State struct {
	lifecycle.Status
	Items      []Item           `json:"cartList"`
	Selected   *Item            `json:"selectedItem"`
	ItemCount  int              `json:"cartItemCount"`
	TotalPrice decimal.Decimal  `json:"totalPrice"`
	Phases     lifecycle.Phases `json:"phases"`
}

func (s State) clone() State {
	s.Items = cloneItems(s.Items)
	if s.Selected != nil {
		selected := *s.Selected
		s.Selected = &selected
	}
	return s
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func totalOf(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
