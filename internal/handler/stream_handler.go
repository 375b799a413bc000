package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/noah-isme/festival-live-api/internal/broadcast"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 512
)

type subscriber interface {
	Register() *broadcast.Subscription
}

// StreamHandler relays bus frames to long-lived SSE and websocket clients.
type StreamHandler struct {
	bus       subscriber
	keepalive time.Duration
	upgrader  websocket.Upgrader
	logger    *zap.Logger
}

// NewStreamHandler builds a stream handler. allowOrigin decides websocket
// origins; nil accepts every origin.
func NewStreamHandler(bus subscriber, keepalive time.Duration, allowOrigin func(origin string) bool, logger *zap.Logger) *StreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if keepalive <= 0 {
		keepalive = 25 * time.Second
	}
	return &StreamHandler{
		bus:       bus,
		keepalive: keepalive,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowOrigin == nil || origin == "" || allowOrigin(origin)
			},
		},
	}
}

// SSE godoc
// @Summary Live event stream
// @Tags Stream
// @Produce text/event-stream
// @Success 200 {string} string "event:<type> data:<json>"
// @Router /stream [get]
func (h *StreamHandler) SSE(c *gin.Context) {
	sub := h.bus.Register()
	defer sub.Release()

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache, no-transform")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-sub.Frames():
			if !ok {
				return
			}
			if err := writeSSE(c, frame); err != nil {
				h.logger.Debug("sse write", zap.Uint64("subscriber", sub.ID()), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := writeSSE(c, broadcast.KeepaliveFrame()); err != nil {
				return
			}
		}
	}
}

func writeSSE(c *gin.Context, frame broadcast.Frame) error {
	if err := sse.Encode(c.Writer, sse.Event{Event: string(frame.Type), Data: string(frame.Data)}); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

// Websocket godoc
// @Summary Live event stream over websocket
// @Tags Stream
// @Success 101 {string} string "JSON {type,payload} messages"
// @Router /ws [get]
func (h *StreamHandler) Websocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := h.bus.Register()
	defer sub.Release()

	// The reader only services control frames; it ends when the peer goes away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(wsMaxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Debug("websocket read", zap.Error(err))
				}
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-gone:
			return
		case <-c.Request.Context().Done():
			return
		case frame, ok := <-sub.Frames():
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				return
			}
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		case <-keepalive.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(broadcast.KeepaliveFrame()); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
