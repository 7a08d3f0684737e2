package events

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second

	// pingPeriod keeps idle connections alive.
	pingPeriod = 30 * time.Second

	// clientBuffer is the per-client send queue. A client this far
	// behind is dropped rather than allowed to block the feed.
	clientBuffer = 16
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans out published messages to every connected WebSocket client.
//
// A single goroutine (Run) owns the client set. Registration,
// unregistration, and broadcast all pass through channels, so the set
// needs no lock and a slow client never blocks a publisher.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	upgrader   websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Run owns the client set until ctx is cancelled. Start it once, in
// its own goroutine, before serving connections.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	clients := map[*client]struct{}{}
	for {
		select {
		case c := <-h.register:
			clients[c] = struct{}{}

		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
			}

		case message := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- message:
				default:
					// not keeping up
					delete(clients, c)
					close(c.send)
				}
			}

		case <-ctx.Done():
			for c := range clients {
				delete(clients, c)
				close(c.send)
			}
			return
		}
	}
}

// Publish queues message for every connected client. It never blocks;
// when the hub queue is full the message is dropped.
func (h *Hub) Publish(message []byte) {
	select {
	case h.broadcast <- message:
	default:
	}
}

// Serve upgrades the request to a WebSocket and streams published
// messages until the client disconnects or the hub stops.
//
// It does not return before the connection is over.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return nil
	}

	go c.writePump()
	c.readPump(h)
	return nil
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client frames; the feed is one-way. Reading is
// still needed to notice disconnects and answer control frames.
func (c *client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
