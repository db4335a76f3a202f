package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ViktorTassen/conflictology-server-go/internal/game"
	"github.com/ViktorTassen/conflictology-server-go/internal/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// serverMessage is the envelope pushed to clients.
type serverMessage struct {
	Type   string         `json:"type"` // "result", "state" or "error"
	Error  string         `json:"error,omitempty"`
	Result *Result        `json:"result,omitempty"`
	View   *game.GameView `json:"view,omitempty"`
}

// WSServer terminates websocket connections, feeds commands to the
// dispatcher and streams committed snapshots back, redacted per viewer.
type WSServer struct {
	dispatcher *Dispatcher
	store      store.GameStore
	logger     *zap.Logger
	upgrader   websocket.Upgrader

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte

	mu          sync.Mutex
	closed      bool
	playerID    game.PlayerID
	gameID      string
	cancelWatch func()
}

// NewWSServer creates the websocket boundary.
func NewWSServer(dispatcher *Dispatcher, st store.GameStore, logger *zap.Logger) *WSServer {
	return &WSServer{
		dispatcher: dispatcher,
		store:      st,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Origin policy belongs to the deployment's proxy layer.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// ServeHTTP upgrades the connection and runs the client pumps.
func (s *WSServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, 32),
	}
	s.mu.Lock()
	s.clients[client] = struct{}{}
	s.mu.Unlock()

	go s.writePump(client)
	s.readPump(r.Context(), client)
}

func (s *WSServer) readPump(ctx context.Context, client *wsClient) {
	defer s.dropClient(client)

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.sendError(client, "malformed command")
			continue
		}
		s.handleCommand(ctx, client, cmd)
	}
}

func (s *WSServer) handleCommand(ctx context.Context, client *wsClient, cmd Command) {
	// The connection's identity wins over whatever the payload claims.
	client.mu.Lock()
	if client.playerID != "" {
		cmd.PlayerID = client.playerID
	}
	if client.gameID != "" && cmd.GameID == "" {
		cmd.GameID = client.gameID
	}
	client.mu.Unlock()

	result, err := s.dispatcher.Dispatch(ctx, cmd)
	if err != nil {
		s.sendError(client, err.Error())
		return
	}

	if cmd.Type == CmdCreateGame || cmd.Type == CmdJoinGame {
		s.bindClient(client, result.GameID, result.PlayerID)
	}
	s.sendJSON(client, serverMessage{Type: "result", Result: result})
}

// bindClient attaches the connection to a game: subsequent snapshots for
// that game id are pushed as redacted views.
func (s *WSServer) bindClient(client *wsClient, gameID string, playerID game.PlayerID) {
	client.mu.Lock()
	if client.cancelWatch != nil {
		client.cancelWatch()
	}
	client.playerID = playerID
	client.gameID = gameID
	snapshots, cancel := s.store.Watch(gameID)
	client.cancelWatch = cancel
	client.mu.Unlock()

	go func() {
		for g := range snapshots {
			view := g.View(playerID)
			s.sendJSON(client, serverMessage{Type: "state", View: &view})
		}
	}()

	s.logger.Info("client bound to game",
		zap.String("game_id", gameID),
		zap.String("player_id", string(playerID)),
	)
}

func (s *WSServer) writePump(client *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *WSServer) sendJSON(client *wsClient, msg serverMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("marshal server message", zap.Error(err))
		return
	}
	// The closed flag and the send share client.mu: a watcher goroutine
	// holding a snapshot must never race dropClient into a send on a
	// closed channel.
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.closed {
		return
	}
	select {
	case client.send <- data:
	default:
		// Slow consumer; the next snapshot will carry the full state.
	}
}

func (s *WSServer) sendError(client *wsClient, text string) {
	s.sendJSON(client, serverMessage{Type: "error", Error: text})
}

func (s *WSServer) dropClient(client *wsClient) {
	client.mu.Lock()
	if client.cancelWatch != nil {
		client.cancelWatch()
		client.cancelWatch = nil
	}
	wasClosed := client.closed
	client.closed = true
	client.mu.Unlock()

	s.mu.Lock()
	delete(s.clients, client)
	s.mu.Unlock()

	// Safe to close without the lock: every sender checks the closed flag
	// under client.mu before touching the channel.
	if !wasClosed {
		close(client.send)
	}
	_ = client.conn.Close()
}

// CloseAll disconnects every client, used during graceful shutdown.
func (s *WSServer) CloseAll() {
	s.mu.Lock()
	clients := make([]*wsClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		s.dropClient(c)
	}
}
