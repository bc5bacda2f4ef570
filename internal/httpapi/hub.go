package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pijudev/piju/internal/snapshot"
)

// wsClient is a single connected websocket peer. Grounded on
// arung-agamani-denpa-radio/internal/radio/stream.go's Broadcaster
// clientSub: a buffered outbound channel so one slow reader can't stall the
// broadcaster, and a drop-if-full policy rather than blocking.
type wsClient struct {
	id uuid.UUID
	ch chan []byte
}

// hub fans a snapshot out to every connected websocket client, mirroring the
// teacher's Broadcaster.clients map guarded by a RWMutex, generalized from
// "subscribe to an audio byte stream" to "subscribe to JSON snapshot
// pushes."
type hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*wsClient
}

func newHub() *hub {
	return &hub{clients: make(map[uuid.UUID]*wsClient)}
}

func (h *hub) subscribe() *wsClient {
	c := &wsClient{id: uuid.New(), ch: make(chan []byte, 16)}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	return c
}

func (h *hub) unsubscribe(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	close(c.ch)
}

// broadcast encodes snap once and pushes it to every client's channel,
// dropping the message for clients whose buffer is full instead of blocking
// the caller (the broadcaster never waits on slow network I/O).
func (h *hub) broadcast(snap snapshot.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		slog.Error("marshaling snapshot for websocket broadcast", "error", err)
		return
	}

	h.mu.RLock()
	peers := make([]*wsClient, 0, len(h.clients))
	for _, c := range h.clients {
		peers = append(peers, c)
	}
	h.mu.RUnlock()

	for _, c := range peers {
		select {
		case c.ch <- payload:
		default:
			slog.Warn("dropping websocket snapshot for slow client", "client", c.id)
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Every response carries Access-Control-Allow-Origin: * (§4.10); the
	// websocket handshake honors the same permissive policy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebsocket upgrades the connection, sends the current snapshot
// immediately (§4.11), then relays every subsequent broadcast until the
// connection closes. Incoming client messages are read and discarded only
// to process control frames and detect client-initiated close; no read
// deadline is set.
func (s *Server) handleWebsocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	client := s.hub.subscribe()
	defer s.hub.unsubscribe(client)

	if snap, err := s.snapshots.Build(); err == nil {
		if payload, err := json.Marshal(snap); err == nil {
			_ = conn.WriteMessage(websocket.TextMessage, payload)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case payload, ok := <-client.ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}
