// Package realtime bridges the page shell to the hotcue engine over a
// websocket. The shell forwards raw key, pointer, and player events; the
// engine answers with seek/play/pause commands, trigger flashes, dirty state,
// and notices. One engine session per connection, torn down on disconnect.
package realtime

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cuetube/cuetube/internal/auth"
	"github.com/cuetube/cuetube/internal/editor"
	"github.com/cuetube/cuetube/internal/player"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     sameOrigin,
}

// sameOrigin admits requests with no Origin header (non-browser clients) and
// browser requests originating from the host we are serving.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// SaverFactory builds the persistence client a session saves through. The
// caller's bearer token is passed along so saves run with the connecting
// user's own credentials.
type SaverFactory func(token string) editor.Saver

// Handler upgrades authenticated connections and runs one engine session per
// client.
type Handler struct {
	saverFor SaverFactory
	opts     player.Options

	mu      sync.Mutex
	clients map[*Client]struct{}
}

func NewHandler(saverFor SaverFactory) *Handler {
	return &Handler{
		saverFor: saverFor,
		clients:  make(map[*Client]struct{}),
	}
}

// ServeWS handles GET /api/ws. Must sit behind the auth middleware; the
// session is bound to the authenticated username.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	username := auth.UsernameFromContext(r.Context())
	token := bearerToken(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("realtime: upgrade failed", "user", username, "error", err)
		return
	}

	client := &Client{
		handler: h,
		conn:    conn,
		send:    make(chan []byte, 256),
	}
	client.sess = newSession(username, h.saverFor(token), h.opts, client.enqueue)

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	slog.Info("realtime: session opened", "user", username)

	go client.writePump()
	go client.readPump()
}

// ActiveSessions reports the number of open connections.
func (h *Handler) ActiveSessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll disconnects every client, used during graceful shutdown.
func (h *Handler) CloseAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		_ = c.conn.Close()
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func (h *Handler) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// Client is one websocket connection with its engine session and outbound
// queue.
type Client struct {
	handler *Handler
	conn    *websocket.Conn
	send    chan []byte
	sess    *session

	mu     sync.Mutex
	closed bool
}

// enqueue queues an outbound frame without blocking the engine. A full
// buffer means the client has stalled; the frame is dropped and the caller
// logs it. A save finishing after disconnect lands here too, so enqueue must
// stay safe after teardown.
func (c *Client) enqueue(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

// readPump feeds inbound frames to the engine session. It owns teardown: on
// exit the session's player is destroyed and the connection closed.
func (c *Client) readPump() {
	defer func() {
		c.handler.unregister(c)
		c.sess.close()
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.send)
		_ = c.conn.Close()
		slog.Info("realtime: session closed", "user", c.sess.username)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("realtime: read failed", "user", c.sess.username, "error", err)
			}
			return
		}
		c.sess.handle(message)
	}
}

// writePump drains the outbound queue and keeps the connection alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
