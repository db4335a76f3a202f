package server

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ViktorTassen/conflictology-server-go/internal/game"
	"github.com/ViktorTassen/conflictology-server-go/internal/lobby"
	"github.com/ViktorTassen/conflictology-server-go/internal/store"
)

func newTestWSServer(t *testing.T) *WSServer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	st := store.NewMemoryStore(logger)
	t.Cleanup(st.Close)
	d := NewDispatcher(st, game.NewEngineWithSeed(logger, 21), lobby.NewManager(logger), 0, logger)
	return NewWSServer(d, st, logger)
}

// dialTestClient connects a real websocket client and returns the server-side
// client record once it is registered.
func dialTestClient(t *testing.T, s *WSServer) (*websocket.Conn, *wsClient) {
	t.Helper()
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	var client *wsClient
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		for c := range s.clients {
			client = c
			return true
		}
		return false
	}, time.Second, 5*time.Millisecond)
	return conn, client
}

// A disconnect must never race a store broadcast into a send on a closed
// channel: the watcher goroutine may already hold a snapshot when the reader
// tears the client down.
func TestDropClientDoesNotRaceSends(t *testing.T) {
	s := newTestWSServer(t)
	_, client := dialTestClient(t, s)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.sendJSON(client, serverMessage{Type: "state"})
		}
	}()
	go func() {
		defer wg.Done()
		s.dropClient(client)
	}()
	wg.Wait()

	// Late sends and repeated drops are no-ops, not panics.
	s.sendJSON(client, serverMessage{Type: "error", Error: "late"})
	s.dropClient(client)
}

func TestCloseAllWithPendingSends(t *testing.T) {
	s := newTestWSServer(t)
	_, client := dialTestClient(t, s)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.sendError(client, "shutting down")
		}
	}()
	s.CloseAll()
	wg.Wait()

	s.mu.Lock()
	remaining := len(s.clients)
	s.mu.Unlock()
	require.Zero(t, remaining)
}
