package ws

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T, opts *HubOptions) (*Hub, *httptest.Server) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	if opts == nil {
		opts = &HubOptions{}
	}
	opts.Logger = log
	if opts.CheckOrigin == nil {
		opts.CheckOrigin = func(*http.Request) bool { return true }
	}
	hub := NewHub(opts)
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_BroadcastToChannel(t *testing.T) {
	joined := make(chan *Connection, 2)
	hub, srv := newTestHub(t, &HubOptions{
		OnConnect: func(_ *http.Request, h *Hub, conn *Connection) error {
			h.JoinChannel("group/alpha", conn)
			joined <- conn
			return nil
		},
	})

	first := dial(t, srv)
	second := dial(t, srv)
	<-joined
	<-joined

	hub.BroadcastToChannel("group/alpha", []byte(`{"hello":"world"}`))

	for _, client := range []*websocket.Conn{first, second} {
		require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, payload, err := client.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"hello":"world"}`, string(payload))
	}
}

func TestHub_ChannelIsolation(t *testing.T) {
	channels := []string{"group/alpha", "group/beta"}
	next := make(chan struct{}, 2)
	var i int
	hub, srv := newTestHub(t, &HubOptions{
		OnConnect: func(_ *http.Request, h *Hub, conn *Connection) error {
			h.JoinChannel(channels[i], conn)
			i++
			next <- struct{}{}
			return nil
		},
	})

	alpha := dial(t, srv)
	<-next
	beta := dial(t, srv)
	<-next

	hub.BroadcastToChannel("group/beta", []byte("for beta only"))

	require.NoError(t, beta.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := beta.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "for beta only", string(payload))

	require.NoError(t, alpha.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = alpha.ReadMessage()
	assert.Error(t, err, "alpha must not see beta traffic")
}

func TestHub_OnConnectErrorRejects(t *testing.T) {
	_, srv := newTestHub(t, &HubOptions{
		OnConnect: func(*http.Request, *Hub, *Connection) error {
			return websocket.ErrBadHandshake
		},
	})

	conn := dial(t, srv)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "rejected connection is closed by the server")
}

func TestHub_DisconnectLeavesChannels(t *testing.T) {
	joined := make(chan *Connection, 1)
	gone := make(chan *Connection, 1)
	hub, srv := newTestHub(t, &HubOptions{
		OnConnect: func(_ *http.Request, h *Hub, conn *Connection) error {
			h.JoinChannel("group/alpha", conn)
			joined <- conn
			return nil
		},
		OnDisconnect: func(conn *Connection) { gone <- conn },
	})

	client := dial(t, srv)
	<-joined
	require.Len(t, hub.ConnectionsInChannel("group/alpha"), 1)

	require.NoError(t, client.Close())
	select {
	case <-gone:
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect callback never fired")
	}
	assert.Empty(t, hub.ConnectionsInChannel("group/alpha"))
}
