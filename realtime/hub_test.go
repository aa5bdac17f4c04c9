package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, h *Hub) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := strings.TrimPrefix(r.URL.Path, "/")
		_ = h.ServeWS(w, r, session, map[string]string{"hello": session})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, session string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/" + session
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	var v map[string]any
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&v))
	return v
}

func TestHub_PublishReachesOnlyThatSession(t *testing.T) {
	h := NewHub(zerolog.Nop())
	srv := newTestServer(t, h)

	a := dial(t, srv, "s1")
	b := dial(t, srv, "s2")
	require.Equal(t, "s1", readJSON(t, a)["hello"])
	require.Equal(t, "s2", readJSON(t, b)["hello"])

	require.Eventually(t, func() bool { return h.Watching("s1") && h.Watching("s2") }, time.Second, 10*time.Millisecond)

	h.Publish("s1", map[string]any{"totalItems": 3})
	require.EqualValues(t, 3, readJSON(t, a)["totalItems"])

	require.NoError(t, b.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := b.ReadMessage()
	require.Error(t, err, "other sessions must not receive the update")
}

func TestHub_UnregistersOnClose(t *testing.T) {
	h := NewHub(zerolog.Nop())
	srv := newTestServer(t, h)

	conn := dial(t, srv, "s1")
	readJSON(t, conn)
	require.Eventually(t, func() bool { return h.Watching("s1") }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return !h.Watching("s1") }, 2*time.Second, 10*time.Millisecond)

	// publishing to a session with no sockets is a no-op
	h.Publish("s1", map[string]any{"totalItems": 0})
}

func TestHub_RejectsPlainHTTP(t *testing.T) {
	h := NewHub(zerolog.Nop())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/s1", nil)

	require.Error(t, h.ServeWS(rec, req, "s1", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, h.Watching("s1"))
}
