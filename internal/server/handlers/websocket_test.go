// internal/server/handlers/websocket_test.go

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestConn upgrades a loopback HTTP connection and hands back the
// server-side websocket, which is the side WebSocketClient wraps.
func newTestConn(t *testing.T) (*websocket.Conn, func()) {
	t.Helper()

	connCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		assert.NoError(t, err)
		connCh <- conn
	}))

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	serverConn := <-connCh
	require.NotNil(t, serverConn)

	return serverConn, func() {
		clientConn.Close()
		srv.Close()
	}
}

func TestTrySendAfterClose(t *testing.T) {
	conn, cleanup := newTestConn(t)
	defer cleanup()

	client := &WebSocketClient{conn: conn, send: make(chan []byte, 16)}
	assert.True(t, client.trySend([]byte(`{"topics":[]}`)))

	client.closeConnection()

	// A subscription callback arriving after shutdown must be a no-op,
	// not a send on a closed channel.
	assert.NotPanics(t, func() {
		assert.False(t, client.trySend([]byte(`{"topics":[]}`)))
	})
}

func TestCloseConnectionIdempotent(t *testing.T) {
	conn, cleanup := newTestConn(t)
	defer cleanup()

	client := &WebSocketClient{conn: conn, send: make(chan []byte, 16)}
	client.closeConnection()
	assert.NotPanics(t, client.closeConnection)
}

func TestTrySendDropsWhenBufferFull(t *testing.T) {
	conn, cleanup := newTestConn(t)
	defer cleanup()

	client := &WebSocketClient{conn: conn, send: make(chan []byte, 1)}
	assert.True(t, client.trySend([]byte("a")))
	assert.False(t, client.trySend([]byte("b")))
	client.closeConnection()
}
