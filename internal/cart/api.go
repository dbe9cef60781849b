package cart

import (
	"context"

	"github.com/abgdnv/storesync/pkg/gateway"
)

// API is the remote side of the cart.
type API interface {
	// Add puts qty of a product into the cart and returns the new total item count.
	Add(ctx context.Context, req AddRequest) (int, error)
	List(ctx context.Context) ([]Item, error)
	Delete(ctx context.Context, id string) error
	// UpdateQuantity changes the quantity of an item. The server may answer with the full cart.
	UpdateQuantity(ctx context.Context, id string, qty int) (UpdateResult, error)
	Count(ctx context.Context) (int, error)
}

type AddRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Size      string `json:"size" validate:"required"`
	Qty       int    `json:"qty" validate:"required,min=1"`
}

type UpdateRequest struct {
	ID  string `json:"-" validate:"required"`
	Qty int    `json:"qty" validate:"required,min=1"`
}

// UpdateResult is the decoded answer to a quantity update. Replaced is false when the body had no cart.
type UpdateResult struct {
	Items    []Item
	Replaced bool
}

type addResponse struct {
	CartItemQty int `json:"cartItemQty"`
}

type listResponse struct {
	Data []Item `json:"data"`
}

type updateResponse struct {
	Data *[]Item `json:"data"`
}

type countResponse struct {
	Qty int `json:"qty"`
}

// HTTPAPI implements API over the storefront REST endpoints.
type HTTPAPI struct {
	gw gateway.Requester
}

var _ API = (*HTTPAPI)(nil)

func NewHTTPAPI(gw gateway.Requester) *HTTPAPI {
	return &HTTPAPI{gw: gw}
}

func (a *HTTPAPI) Add(ctx context.Context, req AddRequest) (int, error) {
	var resp addResponse
	if err := a.gw.Post(ctx, "cart", req, &resp); err != nil {
		return 0, err
	}
	return resp.CartItemQty, nil
}

func (a *HTTPAPI) List(ctx context.Context) ([]Item, error) {
	var resp listResponse
	if err := a.gw.Get(ctx, "cart", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (a *HTTPAPI) Delete(ctx context.Context, id string) error {
	return a.gw.Delete(ctx, itemPath(id), nil)
}

func (a *HTTPAPI) UpdateQuantity(ctx context.Context, id string, qty int) (UpdateResult, error) {
	var resp updateResponse
	if err := a.gw.Put(ctx, itemPath(id), nil, UpdateRequest{ID: id, Qty: qty}, &resp); err != nil {
		return UpdateResult{}, err
	}
	if resp.Data == nil {
		return UpdateResult{}, nil
	}
	return UpdateResult{Items: *resp.Data, Replaced: true}, nil
}

func (a *HTTPAPI) Count(ctx context.Context) (int, error) {
	var resp countResponse
	if err := a.gw.Get(ctx, "cart/qty", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Qty, nil
}

func itemPath(id string) string {
	return "cart/" + id
}
