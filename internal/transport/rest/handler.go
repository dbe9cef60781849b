// Package rest exposes the store operations and state snapshots to the storefront screens.
// Operation endpoints always answer 200 with the resulting snapshot; the outcome of the
// operation is carried by its loading and error fields.
package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/abgdnv/storesync/internal/cart"
	storeerrors "github.com/abgdnv/storesync/internal/errors"
	"github.com/abgdnv/storesync/internal/notify"
	"github.com/abgdnv/storesync/internal/order"
	"github.com/abgdnv/storesync/internal/session"
	"github.com/abgdnv/storesync/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type CartStore interface {
	Add(ctx context.Context, productID, size string) error
	List(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	UpdateQuantity(ctx context.Context, id string, qty int) error
	Count(ctx context.Context) error
	Select(item *cart.Item)
	Snapshot() cart.State
}

type OrderStore interface {
	Create(ctx context.Context, req order.CreateRequest) error
	FetchMine(ctx context.Context) error
	FetchList(ctx context.Context, q order.Query) error
	UpdateStatus(ctx context.Context, id string, status order.Status, page int, orderNum string) error
	Select(o *order.Order)
	Snapshot() order.State
}

type SessionManager interface {
	Login(ctx context.Context, token string) (session.Info, error)
	Logout(ctx context.Context)
	Session() session.Info
}

type NotificationFeed interface {
	List() []notify.Notification
}

type Handler struct {
	cart          CartStore
	orders        OrderStore
	sessions      SessionManager
	notifications NotificationFeed
	validate      *validator.Validate
	logger        *slog.Logger
}

// NewHandler creates a new Handler over the given stores.
func NewHandler(cartStore CartStore, orderStore OrderStore, sessions SessionManager, notifications NotificationFeed, logger *slog.Logger) *Handler {
	return &Handler{
		cart:          cartStore,
		orders:        orderStore,
		sessions:      sessions,
		notifications: notifications,
		validate:      web.NewValidator(),
		logger:        logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes of the control API.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/state", func(r chi.Router) {
		r.Get("/cart", h.CartState)
		r.Put("/cart/selected", h.SelectCartItem)
		r.Get("/order", h.OrderState)
		r.Put("/order/selected", h.SelectOrder)
	})
	r.Route("/cart", func(r chi.Router) {
		r.Get("/count", h.CountCart)
		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.ListCart)
			r.Post("/", h.AddToCart)
			r.Put("/{id}", h.UpdateQuantity)
			r.Delete("/{id}", h.DeleteFromCart)
		})
	})
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Post("/", h.CreateOrder)
		r.Get("/me", h.MyOrders)
		r.Put("/{id}/status", h.UpdateOrderStatus)
	})
	r.Route("/session", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Post("/", h.Login)
		r.Delete("/", h.Logout)
	})
	r.Get("/notifications", h.Notifications)
	r.Get("/healthz", h.HealthCheck)
}

type addToCartRequest struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
}

type updateQuantityRequest struct {
	Qty int `json:"qty"`
}

type selectRequest struct {
	ID string `json:"id"`
}

type updateStatusRequest struct {
	Status   order.Status `json:"status"`
	Page     int          `json:"page"`
	OrderNum string       `json:"orderNum"`
}

type loginRequest struct {
	Token string `json:"token" validate:"required"`
}

func (h *Handler) CartState(w http.ResponseWriter, _ *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, h.cart.Snapshot())
}

func (h *Handler) OrderState(w http.ResponseWriter, _ *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, h.orders.Snapshot())
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if !web.DecodeJSON(w, r, h.logger, h.validate, &req) {
		return
	}
	h.runCart(w, r, "add", func(ctx context.Context) error {
		return h.cart.Add(ctx, req.ProductID, req.Size)
	})
}

func (h *Handler) ListCart(w http.ResponseWriter, r *http.Request) {
	h.runCart(w, r, "list", h.cart.List)
}

func (h *Handler) CountCart(w http.ResponseWriter, r *http.Request) {
	h.runCart(w, r, "count", h.cart.Count)
}

func (h *Handler) DeleteFromCart(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathParam(w, r, h.logger, "id")
	if !ok {
		return
	}
	h.runCart(w, r, "delete", func(ctx context.Context) error {
		return h.cart.Delete(ctx, id)
	})
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathParam(w, r, h.logger, "id")
	if !ok {
		return
	}
	var req updateQuantityRequest
	if !web.DecodeJSON(w, r, h.logger, h.validate, &req) {
		return
	}
	h.runCart(w, r, "updateQuantity", func(ctx context.Context) error {
		return h.cart.UpdateQuantity(ctx, id, req.Qty)
	})
}

// SelectCartItem selects the item with the given id from the current cart list. An empty id clears the selection.
func (h *Handler) SelectCartItem(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !web.DecodeJSON(w, r, h.logger, h.validate, &req) {
		return
	}
	if req.ID == "" {
		h.cart.Select(nil)
		web.RespondJSON(w, h.logger, http.StatusOK, h.cart.Snapshot())
		return
	}
	for _, item := range h.cart.Snapshot().Items {
		if item.ID == req.ID {
			h.cart.Select(&item)
			web.RespondJSON(w, h.logger, http.StatusOK, h.cart.Snapshot())
			return
		}
	}
	web.RespondError(w, h.logger, http.StatusNotFound, "Cart item not found: "+req.ID)
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req order.CreateRequest
	// validated by the store so that bad input is recorded as a rejected create;
	// checkout forms send more than the storefront needs
	if !web.DecodeJSONLenient(w, r, h.logger, nil, &req) {
		return
	}
	h.runOrder(w, r, "create", func(ctx context.Context) error {
		return h.orders.Create(ctx, req)
	})
}

func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	h.runOrder(w, r, "fetchMine", h.orders.FetchMine)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, ok := web.ParseOptionalGte(r, w, h.logger, "page", 1)
	if !ok {
		return
	}
	pageSize, ok := web.ParseOptionalGte(r, w, h.logger, "pageSize", 1)
	if !ok {
		return
	}
	query := r.URL.Query()
	q := order.Query{
		Page:      page,
		PageSize:  pageSize,
		Name:      query.Get("name"),
		Status:    order.Status(query.Get("status")),
		SortOrder: query.Get("sortOrder"),
	}
	h.runOrder(w, r, "fetchList", func(ctx context.Context) error {
		return h.orders.FetchList(ctx, q)
	})
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathParam(w, r, h.logger, "id")
	if !ok {
		return
	}
	var req updateStatusRequest
	if !web.DecodeJSON(w, r, h.logger, h.validate, &req) {
		return
	}
	h.runOrder(w, r, "updateStatus", func(ctx context.Context) error {
		return h.orders.UpdateStatus(ctx, id, req.Status, req.Page, req.OrderNum)
	})
}

// SelectOrder selects the order with the given id from the current page. An empty id clears the selection.
func (h *Handler) SelectOrder(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !web.DecodeJSON(w, r, h.logger, h.validate, &req) {
		return
	}
	if req.ID == "" {
		h.orders.Select(nil)
		web.RespondJSON(w, h.logger, http.StatusOK, h.orders.Snapshot())
		return
	}
	for _, o := range h.orders.Snapshot().Orders {
		if o.ID == req.ID {
			h.orders.Select(&o)
			web.RespondJSON(w, h.logger, http.StatusOK, h.orders.Snapshot())
			return
		}
	}
	web.RespondError(w, h.logger, http.StatusNotFound, "Order not found: "+req.ID)
}

func (h *Handler) GetSession(w http.ResponseWriter, _ *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, h.sessions.Session())
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !web.DecodeJSON(w, r, h.logger, h.validate, &req) {
		return
	}
	info, err := h.sessions.Login(context.WithoutCancel(r.Context()), req.Token)
	if err != nil {
		if errors.Is(err, storeerrors.ErrTokenExpired) {
			web.RespondError(w, h.logger, http.StatusUnauthorized, "Session token expired")
			return
		}
		h.logger.WarnContext(r.Context(), "Rejected session token", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid session token")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, info)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Notifications(w http.ResponseWriter, _ *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, h.notifications.List())
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// runCart runs a cart operation to completion, even if the caller goes away, and answers with the cart snapshot.
func (h *Handler) runCart(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context) error) {
	if err := fn(context.WithoutCancel(r.Context())); err != nil {
		h.logger.DebugContext(r.Context(), "Cart operation did not succeed", "op", op, "error", err)
	}
	web.RespondJSON(w, h.logger, http.StatusOK, h.cart.Snapshot())
}

func (h *Handler) runOrder(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context) error) {
	if err := fn(context.WithoutCancel(r.Context())); err != nil {
		h.logger.DebugContext(r.Context(), "Order operation did not succeed", "op", op, "error", err)
	}
	web.RespondJSON(w, h.logger, http.StatusOK, h.orders.Snapshot())
}
