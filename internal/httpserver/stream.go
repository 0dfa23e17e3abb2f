package httpserver

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event kinds broadcast on the feed stream.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

const streamWriteTimeout = 5 * time.Second

// feedEvent is the wire format pushed to stream subscribers.
type feedEvent struct {
	Kind   string `json:"kind"`
	PostID string `json:"postId"`
	TimeUS int64  `json:"time_us"`
}

// Hub fans out feed events to connected websocket subscribers. Clients use
// the stream to learn that their local projection is stale; the events carry
// no post content, only the id and kind.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// handleStream upgrades the request to a websocket and registers it as a
// subscriber until the peer disconnects.
func (h *Hub) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.add(conn)
	defer h.remove(conn)
	h.logger.Info("stream subscriber connected", "remote", conn.RemoteAddr())

	// Subscribers only receive; the read loop exists to notice the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast pushes an event to every subscriber. A connection that cannot be
// written to within the timeout is dropped rather than allowed to block the
// feed.
func (h *Hub) Broadcast(kind, postID string) {
	ev := feedEvent{Kind: kind, PostID: postID, TimeUS: time.Now().UnixMicro()}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteJSON(ev); err != nil {
			h.logger.Warn("dropping stream subscriber", "remote", conn.RemoteAddr(), "error", err)
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; ok {
		conn.Close()
		delete(h.conns, conn)
	}
}
