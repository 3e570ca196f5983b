package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsPair returns the server and client ends of one websocket connection.
func wsPair(t *testing.T) (*websocket.Conn, *websocket.Conn) {
	t.Helper()
	up := websocket.Upgrader{}
	conns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- c
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	select {
	case server := <-conns:
		t.Cleanup(func() { _ = server.Close() })
		return server, client
	case <-time.After(2 * time.Second):
		t.Fatal("websocket upgrade did not complete")
		return nil, nil
	}
}

func TestRealtimeHub_DeliversToSession(t *testing.T) {
	t.Parallel()

	server, client := wsPair(t)
	hub := NewRealtimeHub()
	hub.Register(&WSClient{SessionID: "s1", Conn: server})

	hub.EntryCommitted("other", entryAt("e0", "Toast", 120, "breakfast", testDay))
	hub.EntryCommitted("s1", entryAt("e1", "Apple", 95, "snack", testDay))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg entryEvent
	require.NoError(t, client.ReadJSON(&msg))
	assert.Equal(t, "entry.created", msg.Kind)
	assert.Equal(t, "e1", msg.Entry.ID)
	assert.Equal(t, 1, hub.Subscribers("s1"))
}

func TestRealtimeHub_FailedWriteUnregisters(t *testing.T) {
	t.Parallel()

	server, _ := wsPair(t)
	hub := NewRealtimeHub()
	hub.Register(&WSClient{SessionID: "s1", Conn: server})
	require.NoError(t, server.UnderlyingConn().Close())

	hub.EntryCommitted("s1", entryAt("e1", "Apple", 95, "snack", testDay))
	assert.Equal(t, 0, hub.Subscribers("s1"))
}

func TestWSClient_StalledPeerTimesOut(t *testing.T) {
	t.Parallel()

	// the client end never reads, so the socket buffers eventually fill
	server, _ := wsPair(t)
	cl := &WSClient{SessionID: "s1", Conn: server, WriteWait: 50 * time.Millisecond}
	chunk := make([]byte, 1<<20)

	done := make(chan error, 1)
	go func() {
		for i := 0; i < 512; i++ {
			if err := cl.Write(websocket.BinaryMessage, chunk); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("write to a stalled peer did not time out")
	}
}
