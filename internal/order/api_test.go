package order

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abgdnv/storesync/pkg/config"
	"github.com/abgdnv/storesync/pkg/gateway"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderJSON = `{
	"_id":"o2","orderNum":"N-200","status":"shipped",
	"items":[{"productId":{"_id":"p1","name":"Linen shirt"},"price":29.9,"qty":2,"size":"m"}],
	"shipTo":{"address":"1 Main St","city":"Seoul","zip":"04524"},
	"contact":{"firstName":"Min","lastName":"Kim","contact":"010-0000-0000"},
	"totalPrice":59.8,"createdAt":"2026-03-01T10:00:00Z",
	"userId":{"_id":"u1","email":"min@example.com"}
}`

func newTestAPI(t *testing.T, router http.Handler) *HTTPAPI {
	t.Helper()
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	gw, err := gateway.New(config.GatewayConfig{BaseURL: server.URL + "/api", Timeout: 2 * time.Second},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return NewHTTPAPI(gw)
}

func TestHTTPAPI_Create(t *testing.T) {
	var body map[string]any
	r := chi.NewRouter()
	r.Post("/api/order", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"status":"success","orderNum":"N-100"}`))
	})
	api := newTestAPI(t, r)

	num, err := api.Create(context.Background(), CreateRequest{
		ShipTo:     ShipTo{Address: "1 Main St", City: "Seoul", Zip: "04524"},
		Contact:    Contact{FirstName: "Min", LastName: "Kim", Contact: "010"},
		TotalPrice: decimal.RequireFromString("59.8"),
		Items:      []CreateItem{{ProductID: "p1", Price: decimal.RequireFromString("29.9"), Qty: 2, Size: "m"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "N-100", num)
	assert.Equal(t, "59.8", body["totalPrice"])
	assert.Equal(t, map[string]any{"address": "1 Main St", "city": "Seoul", "zip": "04524"}, body["shipTo"])
	require.Len(t, body["items"], 1)
}

func TestHTTPAPI_FetchMine(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/order/me", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[` + orderJSON + `],"totalPageNum":1}`))
	})
	api := newTestAPI(t, r)

	page, err := api.FetchMine(context.Background())

	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	o := page.Orders[0]
	assert.Equal(t, "N-200", o.OrderNum)
	assert.Equal(t, StatusShipped, o.Status)
	assert.Equal(t, "Linen shirt", o.Items[0].Product.Name)
	assert.True(t, decimal.RequireFromString("59.8").Equal(o.TotalPrice))
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), o.CreatedAt.UTC())
	require.NotNil(t, o.User)
	assert.Equal(t, "min@example.com", o.User.Email)
	assert.Equal(t, 1, page.TotalPageNum)
}

func TestHTTPAPI_FetchList_Query(t *testing.T) {
	testCases := []struct {
		name     string
		query    Query
		expected string
	}{
		{name: "empty query", query: Query{}, expected: ""},
		{name: "blank name is omitted", query: Query{Name: "  ", Page: 1}, expected: "page=1"},
		{name: "all fields", query: Query{Page: 2, PageSize: 3, Name: "N-1", Status: StatusPending, SortOrder: "desc"},
			expected: "name=N-1&page=2&pageSize=3&sortOrder=desc&status=pending"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var gotQuery string
			r := chi.NewRouter()
			r.Get("/api/order", func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.RawQuery
				_, _ = w.Write([]byte(`{"data":[],"totalPageNum":4}`))
			})
			api := newTestAPI(t, r)

			page, err := api.FetchList(context.Background(), tc.query)

			require.NoError(t, err)
			assert.Equal(t, tc.expected, gotQuery)
			assert.Equal(t, 4, page.TotalPageNum)
		})
	}
}

func TestHTTPAPI_UpdateStatus(t *testing.T) {
	testCases := []struct {
		name      string
		response  string
		wantPages int
		wantErr   error
	}{
		{name: "wrapped order", response: `{"data":` + orderJSON + `,"totalPageNum":3}`, wantPages: 3},
		{name: "bare order", response: orderJSON, wantPages: 0},
		{name: "empty body", response: "", wantErr: gateway.ErrDecodeResponse},
		{name: "no order", response: `{"status":"success"}`, wantErr: gateway.ErrDecodeResponse},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var gotID, gotQuery string
			var body map[string]any
			r := chi.NewRouter()
			r.Put("/api/order/{id}", func(w http.ResponseWriter, r *http.Request) {
				gotID = chi.URLParam(r, "id")
				gotQuery = r.URL.RawQuery
				_ = json.NewDecoder(r.Body).Decode(&body)
				_, _ = w.Write([]byte(tc.response))
			})
			api := newTestAPI(t, r)

			res, err := api.UpdateStatus(context.Background(), UpdateStatusRequest{ID: "o2", Status: StatusShipped, Page: 2, OrderNum: "N-2"})

			assert.Equal(t, "o2", gotID)
			assert.Equal(t, "orderNum=N-2&page=2", gotQuery)
			assert.Equal(t, map[string]any{"id": "o2", "status": "shipped"}, body)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "o2", res.Order.ID)
			assert.Equal(t, StatusShipped, res.Order.Status)
			assert.Equal(t, tc.wantPages, res.TotalPageNum)
		})
	}
}

func TestHTTPAPI_UpdateStatus_DefaultsPage(t *testing.T) {
	var gotQuery string
	r := chi.NewRouter()
	r.Put("/api/order/{id}", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(orderJSON))
	})
	api := newTestAPI(t, r)

	_, err := api.UpdateStatus(context.Background(), UpdateStatusRequest{ID: "o2", Status: StatusShipped})

	require.NoError(t, err)
	assert.Equal(t, "page=1", gotQuery)
}
