package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/festival-live-api/internal/broadcast"
	"github.com/noah-isme/festival-live-api/internal/models"
)

func newStreamServer(t *testing.T, keepalive time.Duration) (*httptest.Server, *broadcast.Bus) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	bus := broadcast.NewBus(8, nil, nil)
	h := NewStreamHandler(bus, keepalive, nil, nil)

	r := gin.New()
	r.GET("/api/stream", h.SSE)
	r.GET("/api/ws", h.Websocket)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		bus.Close()
		srv.Close()
	})
	return srv, bus
}

// readSSEFrame returns the event name and data of the next frame.
func readSSEFrame(t *testing.T, reader *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if event != "" || data != "" {
				return event, data
			}
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimPrefix(line, "data:")
		}
	}
}

func TestStreamHandlerSSE(t *testing.T) {
	srv, bus := newStreamServer(t, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	event, data := readSSEFrame(t, reader)
	assert.Equal(t, "ping", event)
	assert.Equal(t, `"hello"`, data)

	require.Eventually(t, func() bool { return bus.Len() == 1 }, time.Second, 10*time.Millisecond)
	bus.Broadcast(broadcast.Event{Type: broadcast.EventResultDeleted, Payload: models.ResultDeleted{ID: "r1", EventID: "E1"}})

	event, data = readSSEFrame(t, reader)
	assert.Equal(t, "result_deleted", event)
	assert.JSONEq(t, `{"id":"r1","eventId":"E1"}`, data)

	cancel()
	require.Eventually(t, func() bool { return bus.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStreamHandlerSSEKeepalive(t *testing.T) {
	srv, _ := newStreamServer(t, 20*time.Millisecond)

	resp, err := http.Get(srv.URL + "/api/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	event, _ := readSSEFrame(t, reader)
	require.Equal(t, "ping", event)
	event, data := readSSEFrame(t, reader)
	assert.Equal(t, "keepalive", event)
	assert.Equal(t, "{}", data)
}

func TestStreamHandlerWebsocket(t *testing.T) {
	srv, bus := newStreamServer(t, time.Hour)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	var frame struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "ping", frame.Type)

	bus.Broadcast(broadcast.Event{Type: broadcast.EventFinalize, Payload: models.FinalizeState{Finalized: true}})
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "finalize", frame.Type)
	assert.JSONEq(t, `{"finalized":true}`, string(frame.Payload))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return bus.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
