package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	id    string
	event string
	data  string
}

// readFrame reads one blank-line terminated SSE frame
func readFrame(t *testing.T, r *bufio.Reader) frame {
	t.Helper()
	var f frame
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSuffix(line, "\n")
		if line == "" {
			return f
		}
		key, value, _ := strings.Cut(line, ": ")
		switch key {
		case "id":
			f.id = value
		case "event":
			f.event = value
		case "data":
			f.data = value
		}
	}
}

func openStream(t *testing.T, h *Hub, query string) (*bufio.Reader, *http.Response, context.CancelFunc) {
	t.Helper()
	srv := httptest.NewServer(Handler(h))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+query, nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return bufio.NewReader(resp.Body), resp, cancel
}

func TestHandler_StreamsEvents(t *testing.T) {
	h := startHub(t)
	r, resp, cancel := openStream(t, h, "?types=recipe.crafted,recipe.limit_reached")
	defer cancel()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	hello := readFrame(t, r)
	assert.Equal(t, EventTypeConnected, hello.event)
	var connected struct {
		Payload ConnectedPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(hello.data), &connected))
	assert.Equal(t, hello.id, connected.Payload.ClientID)
	assert.Equal(t, []string{"recipe.crafted", "recipe.limit_reached"}, connected.Payload.Filters)

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, waitFor, time.Millisecond)

	h.Broadcast("recipe.registered", map[string]string{"recipe_id": "skipped"})
	h.Broadcast("recipe.crafted", map[string]string{"recipe_id": "torch"})

	got := readFrame(t, r)
	assert.Equal(t, "recipe.crafted", got.event)
	assert.Contains(t, got.data, `"recipe_id":"torch"`)

	cancel()
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, waitFor, time.Millisecond)
}

func TestHandler_HubStopEndsStream(t *testing.T) {
	h := NewHub()
	h.Start()
	r, _, cancel := openStream(t, h, "")
	defer cancel()

	assert.Equal(t, EventTypeConnected, readFrame(t, r).event)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, waitFor, time.Millisecond)

	h.Stop()

	_, err := r.ReadString('\n')
	assert.Error(t, err, "stream should end once the hub stops")
}

func TestHandler_StoppedHub(t *testing.T) {
	h := NewHub()
	h.Start()
	h.Stop()

	w := httptest.NewRecorder()
	Handler(h)(w, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
