// Package ws implements the websocket hub: connections grouped into named
// channels with fan-out broadcast. The chat layer keys channels by group ID.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Connectioner is the write side of a websocket connection.
type Connectioner interface {
	SendMessage(message []byte) error
	Close() error
}

// Connection wraps a single websocket client. Writes go through a buffered
// channel drained by a single writer goroutine, so SendMessage is safe from
// any goroutine.
type Connection struct {
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

// SendMessage queues a message for delivery. A client that cannot keep up
// fills its buffer and gets dropped instead of blocking the broadcaster.
func (c *Connection) SendMessage(message []byte) error {
	select {
	case <-c.closed:
		return websocket.ErrCloseSent
	case c.send <- message:
		return nil
	default:
		c.Close()
		return websocket.ErrCloseSent
	}
}

func (c *Connection) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

type HubOptions struct {
	Logger      *logrus.Logger
	CheckOrigin func(r *http.Request) bool

	// OnConnect runs after the upgrade; returning an error closes the
	// connection immediately. OnDisconnect runs exactly once per connection.
	OnConnect    func(r *http.Request, hub *Hub, conn *Connection) error
	OnDisconnect func(conn *Connection)
}

type Huber interface {
	http.Handler
	JoinChannel(channel string, conn *Connection)
	LeaveChannel(channel string, conn *Connection)
	BroadcastToChannel(channel string, message []byte)
	ConnectionsInChannel(channel string) []*Connection
}

type Hub struct {
	opts     HubOptions
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	channels map[string]map[*Connection]struct{}
	conns    map[*Connection]struct{}
}

func NewHub(opts *HubOptions) *Hub {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Hub{
		opts: *opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     opts.CheckOrigin,
		},
		channels: make(map[string]map[*Connection]struct{}),
		conns:    make(map[*Connection]struct{}),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.opts.Logger.WithError(err).Error("websocket upgrade failed")
		return
	}

	conn := &Connection{
		conn:   wsConn,
		send:   make(chan []byte, sendBuffer),
		closed: make(chan struct{}),
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	if h.opts.OnConnect != nil {
		if err := h.opts.OnConnect(r, h, conn); err != nil {
			h.opts.Logger.WithError(err).Warn("websocket connection rejected")
			h.remove(conn)
			_ = wsConn.Close()
			return
		}
	}

	go h.writePump(conn)
	h.readPump(conn)
}

func (h *Hub) JoinChannel(channel string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.channels[channel]
	if !ok {
		members = make(map[*Connection]struct{})
		h.channels[channel] = members
	}
	members[conn] = struct{}{}
}

func (h *Hub) LeaveChannel(channel string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.channels[channel]; ok {
		delete(members, conn)
		if len(members) == 0 {
			delete(h.channels, channel)
		}
	}
}

func (h *Hub) ConnectionsInChannel(channel string) []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := h.channels[channel]
	out := make([]*Connection, 0, len(members))
	for conn := range members {
		out = append(out, conn)
	}
	return out
}

// BroadcastToChannel fans a message out to every member of the channel.
// Slow clients drop themselves via SendMessage.
func (h *Hub) BroadcastToChannel(channel string, message []byte) {
	for _, conn := range h.ConnectionsInChannel(channel) {
		_ = conn.SendMessage(message)
	}
}

func (h *Hub) remove(conn *Connection) {
	h.mu.Lock()
	delete(h.conns, conn)
	for channel, members := range h.channels {
		delete(members, conn)
		if len(members) == 0 {
			delete(h.channels, channel)
		}
	}
	h.mu.Unlock()

	conn.Close()
	if h.opts.OnDisconnect != nil {
		h.opts.OnDisconnect(conn)
	}
}

// readPump discards inbound frames, it exists to run the pong handler and to
// notice the peer going away.
func (h *Hub) readPump(conn *Connection) {
	defer h.remove(conn)

	conn.conn.SetReadLimit(maxMessageSize)
	_ = conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.opts.Logger.WithError(err).Debug("websocket read failed")
			}
			return
		}
	}
}

func (h *Hub) writePump(conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.conn.Close()
	}()

	for {
		select {
		case <-conn.closed:
			_ = conn.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
			return
		case message := <-conn.send:
			_ = conn.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
