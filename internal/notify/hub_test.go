package notify

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub, sessionID string) (*websocket.Conn, func()) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Subscribe(w, r, sessionID)
	}))

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func waitForCount(t *testing.T, hub *Hub, sessionID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.SubscriberCount(sessionID) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("subscriber count for %s never reached %d", sessionID, want)
}

func TestBroadcastReachesSubscriber(t *testing.T) {
	hub := NewHub()
	conn, cleanup := dialHub(t, hub, "s1")
	defer cleanup()

	waitForCount(t, hub, "s1", 1)

	hub.Broadcast("s1", Envelope{Type: "chat", Data: map[string]string{"response": "hi"}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, "chat", env.Type)
}

func TestBroadcastIsScopedToSession(t *testing.T) {
	hub := NewHub()
	conn, cleanup := dialHub(t, hub, "s1")
	defer cleanup()

	waitForCount(t, hub, "s1", 1)

	hub.Broadcast("other-session", Envelope{Type: "chat", Data: "nope"})

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var env Envelope
	err := conn.ReadJSON(&env)
	assert.Error(t, err, "no frame should arrive for another session")
}

func TestDisconnectCleansRegistry(t *testing.T) {
	hub := NewHub()
	conn, cleanup := dialHub(t, hub, "s1")
	defer cleanup()

	waitForCount(t, hub, "s1", 1)
	conn.Close()
	waitForCount(t, hub, "s1", 0)
}

func TestConcurrentBroadcastsToOneSubscriber(t *testing.T) {
	hub := NewHub()
	conn, cleanup := dialHub(t, hub, "s1")
	defer cleanup()

	waitForCount(t, hub, "s1", 1)

	const frames = 40
	var wg sync.WaitGroup
	for i := 0; i < frames; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			hub.Broadcast("s1", Envelope{Type: "chat", Data: n})
		}(i)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for i := 0; i < frames; i++ {
		var env Envelope
		require.NoError(t, conn.ReadJSON(&env), "frame %d must arrive intact", i)
		assert.Equal(t, "chat", env.Type)
	}

	wg.Wait()
	assert.Equal(t, 1, hub.SubscriberCount("s1"), "no subscriber dropped by concurrent writes")
}

func TestEcho(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Echo(w, r, "s1")
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "ping", string(message))
}
