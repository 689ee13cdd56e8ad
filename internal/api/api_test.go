package api

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/livebridge/internal/bridge"
	"github.com/mattjoyce/livebridge/internal/events"
	"github.com/mattjoyce/livebridge/internal/protocol"
	"github.com/mattjoyce/livebridge/internal/server"
)

// fakeBridge implements Bridge for testing
type fakeBridge struct {
	mu       sync.Mutex
	stats    bridge.Stats
	actions  []string
	received []*protocol.Request
}

func (f *fakeBridge) Stats() bridge.Stats { return f.stats }
func (f *fakeBridge) Actions() []string  { return f.actions }

func (f *fakeBridge) Submit(_ context.Context, req *protocol.Request) protocol.Result {
	f.mu.Lock()
	f.received = append(f.received, req)
	f.mu.Unlock()
	switch req.Action {
	case "ping":
		return protocol.OK("message", "pong")
	case "not_a_number":
		return protocol.OK("value", math.NaN())
	}
	return protocol.Failf("Unknown action: %s", req.Action)
}

func (f *fakeBridge) requests() []*protocol.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*protocol.Request(nil), f.received...)
}

type fakeConns struct{ stats server.Stats }

func (f fakeConns) Stats() server.Stats { return f.stats }

func newTestServer(t *testing.T, apiKey string, hub *events.Hub) (*httptest.Server, *fakeBridge) {
	t.Helper()
	fb := &fakeBridge{
		stats:   bridge.Stats{QueueDepth: 3, PendingRequests: 2, Processed: 7, Cancelled: 1, ToolCount: 4, Uptime: 95 * time.Second},
		actions: []string{"health_check", "ping", "set_tempo"},
	}
	var src EventSource
	if hub != nil {
		src = hub
	}
	s := New(Config{Listen: "127.0.0.1:0", APIKey: apiKey}, fb, fakeConns{stats: server.Stats{ActiveConnections: 1, TotalConnections: 5}}, src,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.keepAlive = 20 * time.Millisecond
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, fb
}

func get(t *testing.T, url, key string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, "secret", nil)

	resp := get(t, ts.URL+"/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body HealthzResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 3, body.QueueDepth)
	assert.Equal(t, 2, body.PendingRequests)
	assert.Equal(t, uint64(7), body.Processed)
	assert.Equal(t, uint64(1), body.Cancelled)
	assert.Equal(t, int64(95), body.UptimeSeconds)
	assert.Equal(t, int64(1), body.ActiveConnections)
	assert.Equal(t, uint64(5), body.TotalConnections)
	assert.Equal(t, 4, body.ToolCount)
}

func TestActionsRequiresKeyWhenConfigured(t *testing.T) {
	ts, _ := newTestServer(t, "secret", nil)

	assert.Equal(t, http.StatusUnauthorized, get(t, ts.URL+"/actions", "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, get(t, ts.URL+"/actions", "wrong").StatusCode)

	resp := get(t, ts.URL+"/actions", "secret")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body ActionsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"health_check", "ping", "set_tempo"}, body.Actions)
	assert.Equal(t, 3, body.Count)
}

func TestOpenWithoutKey(t *testing.T) {
	ts, _ := newTestServer(t, "", nil)
	assert.Equal(t, http.StatusOK, get(t, ts.URL+"/actions", "").StatusCode)
}

func TestCommand(t *testing.T) {
	ts, fb := newTestServer(t, "", nil)

	resp, err := http.Post(ts.URL+"/command", "application/json", strings.NewReader(`{"action":"ping","x":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"message":"pong"}`, string(raw))

	reqs := fb.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "ping", reqs[0].Action)
	assert.Contains(t, reqs[0].Params, "x")
}

func TestCommandUnencodableResult(t *testing.T) {
	ts, _ := newTestServer(t, "", nil)

	resp, err := http.Post(ts.URL+"/command", "application/json", strings.NewReader(`{"action":"not_a_number"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, false, body["ok"])
	assert.Contains(t, body["error"], "Failed to encode result")
}

func TestCommandInvalidJSON(t *testing.T) {
	ts, fb := newTestServer(t, "", nil)

	resp, err := http.Post(ts.URL+"/command", "application/json", strings.NewReader(`[1,2]`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, false, body["ok"])
	assert.True(t, strings.HasPrefix(body["error"].(string), "Invalid JSON: "))
	assert.Empty(t, fb.requests())
}

func TestOpenAPIListsActions(t *testing.T) {
	ts, _ := newTestServer(t, "", nil)

	resp := get(t, ts.URL+"/openapi.json", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var doc map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, "3.1.0", doc["openapi"])
	paths := doc["paths"].(map[string]any)
	assert.Contains(t, paths, "/command")
}

func TestEventsDisabled(t *testing.T) {
	ts, _ := newTestServer(t, "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, ts.URL+"/events", "").StatusCode)
}

type sseEvent struct {
	id   string
	typ  string
	data string
}

// readEvents parses SSE frames until n events arrive, skipping comments.
func readEvents(t *testing.T, r *bufio.Reader, n int) []sseEvent {
	t.Helper()
	var out []sseEvent
	var cur sseEvent
	for len(out) < n {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if cur.data != "" {
				out = append(out, cur)
			}
			cur = sseEvent{}
		case strings.HasPrefix(line, "id: "):
			cur.id = line[4:]
		case strings.HasPrefix(line, "event: "):
			cur.typ = line[7:]
		case strings.HasPrefix(line, "data: "):
			cur.data = line[6:]
		}
	}
	return out
}

func openStream(t *testing.T, url, lastID string) *bufio.Reader {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/events", nil)
	require.NoError(t, err)
	if lastID != "" {
		req.Header.Set("Last-Event-ID", lastID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	return bufio.NewReader(resp.Body)
}

func TestEventsReplayAndLive(t *testing.T) {
	hub := events.NewHub(16)
	ts, _ := newTestServer(t, "", hub)

	hub.Publish(events.ConnectionOpened, map[string]any{"conn_id": "a"})
	hub.Publish(events.CommandCompleted, map[string]any{"request_id": 1})

	r := openStream(t, ts.URL, "1")
	got := readEvents(t, r, 1)
	assert.Equal(t, "2", got[0].id)
	assert.Equal(t, string(events.CommandCompleted), got[0].typ)

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	hub.Publish(events.CommandTimeout, map[string]any{"request_id": 2})

	got = readEvents(t, r, 1)
	assert.Equal(t, "3", got[0].id)
	assert.Equal(t, string(events.CommandTimeout), got[0].typ)
	assert.JSONEq(t, `{"request_id":2}`, got[0].data)
}

func TestEventsKeepAlive(t *testing.T) {
	hub := events.NewHub(4)
	ts, _ := newTestServer(t, "", hub)

	r := openStream(t, ts.URL, "")
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": keep-alive\n", line)
}

func TestParseLastEventID(t *testing.T) {
	assert.Equal(t, int64(0), parseLastEventID(""))
	assert.Equal(t, int64(0), parseLastEventID("-4"))
	assert.Equal(t, int64(0), parseLastEventID("abc"))
	assert.Equal(t, int64(12), parseLastEventID("12"))
}
