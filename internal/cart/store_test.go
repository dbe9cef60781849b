package cart

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	storeerrors "github.com/abgdnv/storesync/internal/errors"
	"github.com/abgdnv/storesync/internal/lifecycle"
	"github.com/abgdnv/storesync/internal/notify"
	"github.com/abgdnv/storesync/pkg/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a hand-written API whose behaviour is set per test.
type fakeAPI struct {
	mu     sync.Mutex
	calls  []string
	add    func(AddRequest) (int, error)
	list   func() ([]Item, error)
	delete func(id string) error
	update func(id string, qty int) (UpdateResult, error)
	count  func() (int, error)
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) Add(_ context.Context, req AddRequest) (int, error) {
	f.record(OpAdd)
	return f.add(req)
}

func (f *fakeAPI) List(_ context.Context) ([]Item, error) {
	f.record(OpList)
	return f.list()
}

func (f *fakeAPI) Delete(_ context.Context, id string) error {
	f.record(OpDelete)
	return f.delete(id)
}

func (f *fakeAPI) UpdateQuantity(_ context.Context, id string, qty int) (UpdateResult, error) {
	f.record(OpUpdateQuantity)
	return f.update(id, qty)
}

func (f *fakeAPI) Count(_ context.Context) (int, error) {
	f.record(OpCount)
	return f.count()
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []notify.Notification
}

func (r *recordingNotifier) Notify(n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *recordingNotifier) All() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.items...)
}

func newTestStore(api API) (*Store, *recordingNotifier) {
	n := &recordingNotifier{}
	return NewStore(api, n, slog.New(slog.NewTextHandler(io.Discard, nil))), n
}

var errServer = &gateway.StatusError{StatusCode: 500, Message: "database unavailable"}

func TestStore_Add(t *testing.T) {
	t.Run("success replaces count with server value", func(t *testing.T) {
		var got AddRequest
		api := &fakeAPI{add: func(req AddRequest) (int, error) { got = req; return 6, nil }}
		store, notifier := newTestStore(api)

		err := store.Add(context.Background(), "p1", "m")

		require.NoError(t, err)
		assert.Equal(t, AddRequest{ProductID: "p1", Size: "m", Qty: 1}, got)
		s := store.Snapshot()
		assert.Equal(t, 6, s.ItemCount)
		assert.False(t, s.Loading)
		assert.Empty(t, s.Error)
		assert.Equal(t, []notify.Notification{{Message: MsgAdded, Severity: notify.Success}}, notifier.All())
	})

	t.Run("failure records error and notifies", func(t *testing.T) {
		api := &fakeAPI{add: func(AddRequest) (int, error) { return 0, errServer }}
		store, notifier := newTestStore(api)

		err := store.Add(context.Background(), "p1", "m")

		require.ErrorIs(t, err, errServer)
		s := store.Snapshot()
		assert.Equal(t, "database unavailable", s.Error)
		assert.Equal(t, 0, s.ItemCount)
		assert.Equal(t, lifecycle.Rejected, s.Phases.Of(OpAdd))
		assert.Equal(t, []notify.Notification{{Message: MsgAddFailed, Severity: notify.Error}}, notifier.All())
	})

	t.Run("missing size is rejected without a request", func(t *testing.T) {
		api := &fakeAPI{}
		store, notifier := newTestStore(api)

		err := store.Add(context.Background(), "p1", "")

		require.ErrorIs(t, err, storeerrors.ErrInvalidInput)
		assert.Empty(t, api.Calls())
		assert.Contains(t, store.Snapshot().Error, "invalid input")
		assert.Equal(t, MsgAddFailed, notifier.All()[0].Message)
	})
}

func TestStore_List(t *testing.T) {
	t.Run("total equals sum of price times qty", func(t *testing.T) {
		api := &fakeAPI{list: func() ([]Item, error) {
			return []Item{item("a", "19.99", 3), item("b", "0.01", 1)}, nil
		}}
		store, notifier := newTestStore(api)

		require.NoError(t, store.List(context.Background()))

		s := store.Snapshot()
		assert.Len(t, s.Items, 2)
		assertDecimal(t, "59.98", s.TotalPrice)
		assert.Empty(t, notifier.All())
	})

	t.Run("failure keeps last good view and does not notify", func(t *testing.T) {
		fail := false
		api := &fakeAPI{list: func() ([]Item, error) {
			if fail {
				return nil, errors.New("connection reset")
			}
			return []Item{item("a", "2", 2)}, nil
		}}
		store, notifier := newTestStore(api)
		require.NoError(t, store.List(context.Background()))
		fail = true

		require.Error(t, store.List(context.Background()))

		s := store.Snapshot()
		assert.Equal(t, gateway.GenericFailureMessage, s.Error)
		assert.Len(t, s.Items, 1)
		assertDecimal(t, "4", s.TotalPrice)
		assert.Empty(t, notifier.All())
	})
}

func TestStore_Count_Idempotent(t *testing.T) {
	api := &fakeAPI{count: func() (int, error) { return 5, nil }}
	store, _ := newTestStore(api)

	require.NoError(t, store.Count(context.Background()))
	first := store.Snapshot().ItemCount
	require.NoError(t, store.Count(context.Background()))

	assert.Equal(t, 5, first)
	assert.Equal(t, first, store.Snapshot().ItemCount)
}

func TestStore_Delete_UsesServerCount(t *testing.T) {
	cart := []Item{item("a", "10", 1), item("b", "5", 2), item("c", "1", 2)}
	api := &fakeAPI{
		list:  func() ([]Item, error) { return cart, nil },
		count: func() (int, error) { return 5, nil },
	}
	store, notifier := newTestStore(api)
	require.NoError(t, store.List(context.Background()))
	require.NoError(t, store.Count(context.Background()))

	cart = []Item{item("a", "10", 1), item("c", "1", 2)}
	api.delete = func(id string) error {
		assert.Equal(t, "b", id)
		return nil
	}
	// another session added to the cart meanwhile; the local 5-2 would be wrong
	api.count = func() (int, error) { return 4, nil }

	err := store.Delete(context.Background(), "b")

	require.NoError(t, err)
	s := store.Snapshot()
	assert.Equal(t, 4, s.ItemCount)
	assert.Len(t, s.Items, 2)
	assertDecimal(t, "12", s.TotalPrice)
	assert.Equal(t, lifecycle.Fulfilled, s.Phases.Of(OpDelete))
	assert.Equal(t, []notify.Notification{{Message: MsgRemoved, Severity: notify.Success}}, notifier.All())
	assert.ElementsMatch(t, []string{OpList, OpCount, OpDelete, OpCount, OpList}, api.Calls())
}

func TestStore_Delete_FailureSkipsRefresh(t *testing.T) {
	api := &fakeAPI{delete: func(string) error {
		return &gateway.StatusError{StatusCode: 404, Message: "cart item not found"}
	}}
	store, notifier := newTestStore(api)

	err := store.Delete(context.Background(), "x")

	require.Error(t, err)
	assert.Equal(t, "cart item not found", store.Snapshot().Error)
	assert.Equal(t, []string{OpDelete}, api.Calls())
	assert.Empty(t, notifier.All())
}

func TestStore_UpdateQuantity(t *testing.T) {
	t.Run("applies returned cart then re-fetches list", func(t *testing.T) {
		api := &fakeAPI{
			update: func(id string, qty int) (UpdateResult, error) {
				return UpdateResult{Items: []Item{item(id, "3", qty)}, Replaced: true}, nil
			},
			list: func() ([]Item, error) { return []Item{item("a", "3", 5), item("b", "1", 1)}, nil },
		}
		store, notifier := newTestStore(api)
		store.apply(Counted{Count: 2})

		err := store.UpdateQuantity(context.Background(), "a", 5)

		require.NoError(t, err)
		s := store.Snapshot()
		assert.Len(t, s.Items, 2)
		assertDecimal(t, "16", s.TotalPrice)
		assert.Equal(t, 2, s.ItemCount, "quantity update must not touch the item count")
		assert.Equal(t, []string{OpUpdateQuantity, OpList}, api.Calls())
		assert.Equal(t, []notify.Notification{{Message: MsgQuantityUpdated, Severity: notify.Success}}, notifier.All())
	})

	t.Run("zero quantity is invalid", func(t *testing.T) {
		api := &fakeAPI{}
		store, _ := newTestStore(api)

		err := store.UpdateQuantity(context.Background(), "a", 0)

		require.ErrorIs(t, err, storeerrors.ErrInvalidInput)
		assert.Empty(t, api.Calls())
		assert.Equal(t, lifecycle.Rejected, store.Snapshot().Phases.Of(OpUpdateQuantity))
	})

	t.Run("failure records error without refresh", func(t *testing.T) {
		api := &fakeAPI{update: func(string, int) (UpdateResult, error) { return UpdateResult{}, errServer }}
		store, notifier := newTestStore(api)

		require.Error(t, store.UpdateQuantity(context.Background(), "a", 2))

		assert.Equal(t, "database unavailable", store.Snapshot().Error)
		assert.Equal(t, []string{OpUpdateQuantity}, api.Calls())
		assert.Empty(t, notifier.All())
	})
}

// gatedList answers each List call with the items of its gate once the gate is released.
type gatedList struct {
	mu      sync.Mutex
	gates   []chan []Item
	entered chan int
}

func newGatedList(n int) *gatedList {
	g := &gatedList{entered: make(chan int, n)}
	for i := 0; i < n; i++ {
		g.gates = append(g.gates, make(chan []Item))
	}
	return g
}

func (g *gatedList) list(call *int) func() ([]Item, error) {
	return func() ([]Item, error) {
		g.mu.Lock()
		idx := *call
		*call++
		g.mu.Unlock()
		g.entered <- idx
		return <-g.gates[idx], nil
	}
}

func waitFor(t *testing.T, ch <-chan int, want int) {
	t.Helper()
	select {
	case got := <-ch:
		require.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("list call %d never started", want)
	}
}

func TestStore_LastAppliedResponseWins(t *testing.T) {
	gated := newGatedList(2)
	var calls int
	api := &fakeAPI{
		list:   gated.list(&calls),
		update: func(string, int) (UpdateResult, error) { return UpdateResult{}, nil },
	}
	store, _ := newTestStore(api)
	stale := []Item{item("a", "10", 1)}
	fresh := []Item{item("a", "10", 5)}

	listDone := make(chan error, 1)
	go func() { listDone <- store.List(context.Background()) }()
	waitFor(t, gated.entered, 0)

	updateDone := make(chan error, 1)
	go func() { updateDone <- store.UpdateQuantity(context.Background(), "a", 5) }()
	waitFor(t, gated.entered, 1)

	// the chained list answers first
	gated.gates[1] <- fresh
	require.NoError(t, <-updateDone)
	assert.Equal(t, 5, store.Snapshot().Items[0].Qty)

	// the original list answers last and overwrites the newer view
	gated.gates[0] <- stale
	require.NoError(t, <-listDone)

	s := store.Snapshot()
	require.Len(t, s.Items, 1)
	assert.Equal(t, 1, s.Items[0].Qty)
	assertDecimal(t, "10", s.TotalPrice)
	assert.False(t, s.Loading)
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	api := &fakeAPI{list: func() ([]Item, error) { return []Item{item("a", "1", 1)}, nil }}
	store, _ := newTestStore(api)
	require.NoError(t, store.List(context.Background()))
	selected := item("a", "1", 1)
	store.Select(&selected)

	snap := store.Snapshot()
	snap.Items[0].Qty = 99
	snap.Selected.Qty = 99

	s := store.Snapshot()
	assert.Equal(t, 1, s.Items[0].Qty)
	assert.Equal(t, 1, s.Selected.Qty)
}

func TestStore_Reset(t *testing.T) {
	api := &fakeAPI{count: func() (int, error) { return 3, nil }}
	store, _ := newTestStore(api)
	require.NoError(t, store.Count(context.Background()))

	store.Reset()

	assert.Equal(t, initialState(), store.Snapshot())
}
