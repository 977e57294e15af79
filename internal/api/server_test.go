package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"paperdrive/pkg/eventlog"
	"paperdrive/pkg/replica"
	"paperdrive/pkg/tree"
)

func newTestServer(t *testing.T) (*httptest.Server, *eventlog.MemStore) {
	t.Helper()
	store := eventlog.NewMemStore()
	srv := httptest.NewServer(New(store, zaptest.NewLogger(t)))
	t.Cleanup(srv.Close)
	return srv, store
}

func testEvent(id string) *eventlog.Event {
	return &eventlog.Event{
		ID:   id,
		Type: eventlog.EventNodeCreated,
		Node: "n1",
		Kind: eventlog.KindOutline,
	}
}

func putJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPutEvent(t *testing.T) {
	srv, store := newTestServer(t)
	e := testEvent("2030-01-01T00:00:00.000Z+aaaa")

	resp := putJSON(t, srv.URL+"/api/events/"+e.ID, e)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	stored, err := store.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, *e, *stored)

	// Same ID again answers 409 and leaves the record alone.
	changed := *e
	changed.Node = "other"
	resp = putJSON(t, srv.URL+"/api/events/"+e.ID, &changed)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	stored, err = store.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, eventlog.NodeID("n1"), stored.Node)
}

func TestPutEventValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	// Body ID disagreeing with the path is rejected.
	e := testEvent("id-a")
	resp := putJSON(t, srv.URL+"/api/events/id-b", e)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Missing type is rejected.
	resp = putJSON(t, srv.URL+"/api/events/id-c", &eventlog.Event{ID: "id-c"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetEventNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/events/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListEvents(t *testing.T) {
	srv, store := newTestServer(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, store.Put(ctx, testEvent(id)))
	}

	var events []eventlog.Event
	resp, err := http.Get(srv.URL + "/api/events?after=a&limit=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))

	require.Len(t, events, 2)
	assert.Equal(t, "b", events[0].ID)
	assert.Equal(t, "c", events[1].ID)
}

func TestListEventsEmpty(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	var events []eventlog.Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestStatusAndHealth(t *testing.T) {
	srv, store := newTestServer(t)
	require.NoError(t, store.Put(context.Background(), testEvent("a")))

	resp, err := http.Get(srv.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	var status struct {
		Events int `json:"events"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, 1, status.Events)

	resp2, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

// The HTTP client store against a live server behaves like any other
// DurableLog.
func TestHTTPStoreRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()
	client := eventlog.NewHTTPStore(srv.URL)

	e := testEvent("a")
	require.NoError(t, client.Put(ctx, e))
	require.ErrorIs(t, client.Put(ctx, e), eventlog.ErrConflict)

	got, err := client.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, *e, *got)

	_, err = client.Get(ctx, "missing")
	require.ErrorIs(t, err, eventlog.ErrNotFound)

	require.NoError(t, client.Put(ctx, testEvent("b")))
	events, err := client.Since(ctx, "a", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "b", events[0].ID)

	n, err := client.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// Two replicas syncing through a real HTTP server converge on the same
// document.
func TestReplicasConvergeOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	log1 := eventlog.NewLog()
	r1 := replica.New(log1, eventlog.NewMemStore(),
		eventlog.NewHTTPStore(srv.URL), zaptest.NewLogger(t))
	require.NoError(t, r1.Open(ctx))
	root1, ok := tree.Root(log1)
	require.True(t, ok)
	child, err := tree.Create(log1, eventlog.KindOutline, &root1)
	require.NoError(t, err)
	require.NoError(t, child.SetName("shopping list"))
	require.NoError(t, r1.SyncOnce(ctx))

	log2 := eventlog.NewLog()
	r2 := replica.New(log2, eventlog.NewMemStore(),
		eventlog.NewHTTPStore(srv.URL), zaptest.NewLogger(t))
	require.NoError(t, r2.Open(ctx))

	assert.Equal(t, log1.Len(), log2.Len())
	root2, ok := tree.Root(log2)
	require.True(t, ok)
	assert.Equal(t, root1.ID(), root2.ID())
	assert.Equal(t, "shopping list", tree.Text(log2, child.ID(), "name"))
	assert.Equal(t, replica.RootName, root2.Name())
}
