package handler

import (
	"net/http"

	"github.com/TrustArcade/trustgate/internal/pkg/logger"
	"github.com/TrustArcade/trustgate/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Operator tooling connects from arbitrary origins behind the admin key.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveHandler streams detection entries to operator websockets as they
// happen.
type LiveHandler struct {
	feed *service.DetectionFeed
}

func NewLiveHandler(feed *service.DetectionFeed) *LiveHandler {
	return &LiveHandler{feed: feed}
}

func (h *LiveHandler) Detections(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	entries, cancel := h.feed.Subscribe()
	defer cancel()

	// Drain client frames so close handshakes are noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return
			}
			if err := conn.WriteJSON(entry); err != nil {
				logger.Debug("detection feed write failed", "error", err)
				return
			}
		case <-done:
			return
		}
	}
}
