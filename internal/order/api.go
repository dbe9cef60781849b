package order

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/abgdnv/storesync/pkg/gateway"
	"github.com/shopspring/decimal"
)

// API is the remote side of orders.
type API interface {
	// Create places an order and returns its number.
	Create(ctx context.Context, req CreateRequest) (string, error)
	FetchMine(ctx context.Context) (Page, error)
	FetchList(ctx context.Context, q Query) (Page, error)
	UpdateStatus(ctx context.Context, req UpdateStatusRequest) (UpdateResult, error)
}

type CreateItem struct {
	ProductID string          `json:"productId" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"gte=0"`
	Qty       int             `json:"qty" validate:"required,min=1"`
	Size      string          `json:"size" validate:"required"`
}

type CreateRequest struct {
	ShipTo     ShipTo          `json:"shipTo" validate:"required"`
	Contact    Contact         `json:"contact" validate:"required"`
	TotalPrice decimal.Decimal `json:"totalPrice" validate:"gte=0"`
	Items      []CreateItem    `json:"items" validate:"required,gt=0,dive"`
}

// Query filters the admin order list. Zero fields are left out of the request.
type Query struct {
	Page      int    `json:"page" validate:"omitempty,min=1"`
	PageSize  int    `json:"pageSize" validate:"omitempty,min=1"`
	Name      string `json:"name"`
	Status    Status `json:"status"`
	SortOrder string `json:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

// Values encodes q as query parameters. A blank name is omitted so the server returns its default view.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if name := strings.TrimSpace(q.Name); name != "" {
		v.Set("name", name)
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", q.SortOrder)
	}
	return v
}

// UpdateStatusRequest changes the status of order ID. Page and OrderNum let the server
// recompute the page the caller is looking at.
type UpdateStatusRequest struct {
	ID       string `json:"id" validate:"required"`
	Status   Status `json:"status" validate:"required"`
	Page     int    `json:"-" validate:"omitempty,min=1"`
	OrderNum string `json:"-"`
}

// Page is one page of orders.
type Page struct {
	Orders       []Order `json:"data"`
	TotalPageNum int     `json:"totalPageNum"`
}

type UpdateResult struct {
	Order        Order
	TotalPageNum int
}

type createResponse struct {
	OrderNum string `json:"orderNum"`
}

type updateResponse struct {
	Data         *Order `json:"data"`
	TotalPageNum int    `json:"totalPageNum"`
}

// HTTPAPI implements API over the storefront REST endpoints.
type HTTPAPI struct {
	gw gateway.Requester
}

var _ API = (*HTTPAPI)(nil)

func NewHTTPAPI(gw gateway.Requester) *HTTPAPI {
	return &HTTPAPI{gw: gw}
}

func (a *HTTPAPI) Create(ctx context.Context, req CreateRequest) (string, error) {
	var resp createResponse
	if err := a.gw.Post(ctx, "order", req, &resp); err != nil {
		return "", err
	}
	return resp.OrderNum, nil
}

func (a *HTTPAPI) FetchMine(ctx context.Context) (Page, error) {
	var page Page
	err := a.gw.Get(ctx, "order/me", nil, &page)
	return page, err
}

func (a *HTTPAPI) FetchList(ctx context.Context, q Query) (Page, error) {
	var page Page
	err := a.gw.Get(ctx, "order", q.Values(), &page)
	return page, err
}

// UpdateStatus accepts both {data: order, totalPageNum} and a bare order body.
func (a *HTTPAPI) UpdateStatus(ctx context.Context, req UpdateStatusRequest) (UpdateResult, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(max(req.Page, 1)))
	if req.OrderNum != "" {
		query.Set("orderNum", req.OrderNum)
	}
	path := "order/" + req.ID

	var raw json.RawMessage
	if err := a.gw.Put(ctx, path, query, req, &raw); err != nil {
		return UpdateResult{}, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return UpdateResult{}, fmt.Errorf("PUT %s: %w: empty body", path, gateway.ErrDecodeResponse)
	}

	var wrapped updateResponse
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return UpdateResult{}, fmt.Errorf("PUT %s: %w: %v", path, gateway.ErrDecodeResponse, err)
	}
	if wrapped.Data != nil {
		return UpdateResult{Order: *wrapped.Data, TotalPageNum: wrapped.TotalPageNum}, nil
	}
	var bare Order
	if err := json.Unmarshal(raw, &bare); err != nil || bare.ID == "" {
		return UpdateResult{}, fmt.Errorf("PUT %s: %w: no order in body", path, gateway.ErrDecodeResponse)
	}
	return UpdateResult{Order: bare, TotalPageNum: wrapped.TotalPageNum}, nil
}
