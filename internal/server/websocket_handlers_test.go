package server

import (
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T, ts *testServer) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = ts.app.Listener(ln) }()
	t.Cleanup(func() { _ = ts.app.ShutdownWithTimeout(time.Second) })
	return ln.Addr().String()
}

func TestWebSocket_RejectsAnonymousUpgrade(t *testing.T) {
	mr := miniredis.RunT(t)
	ts := newTestServerWithRedis(t, redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	addr := listen(t, ts)

	_, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/api/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocket_DeliversNotificationsToCaller(t *testing.T) {
	mr := miniredis.RunT(t)
	ts := newTestServerWithRedis(t, redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	m := ts.member(t)
	addr := listen(t, ts)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/api/ws?token="+m.Token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool {
		return ts.srv.hub.ConnectionCount(m.User.ID) == 1
	}, time.Second, 10*time.Millisecond)

	ts.srv.hub.Broadcast(m.User.ID, `{"type":"new_follower","payload":{"followerId":2}}`)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"new_follower","payload":{"followerId":2}}`, string(payload))
}
