package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kingdomforge/kingdom-server-go/internal/game"
	"github.com/kingdomforge/kingdom-server-go/internal/game/engine"
	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 256
)

// WSMessage is the envelope for every WebSocket frame in both directions.
type WSMessage struct {
	Type   string          `json:"type"`
	GameID string          `json:"game_id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Outgoing message types.
const (
	MsgEvents = "events"
	MsgState  = "state"
	MsgError  = "error"
)

// Incoming message types.
const (
	MsgCommand      = "command"
	MsgStateRequest = "get_state"
)

type wsCommand struct {
	Command   string   `json:"command"`
	Card      string   `json:"card"`
	Selection []string `json:"selection"`
}

type wsError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type wsClient struct {
	conn     *websocket.Conn
	send     chan []byte
	gameID   string
	playerID string
}

type gameMessage struct {
	gameID  string
	payload []byte
}

type clientMessage struct {
	client  *wsClient
	payload []byte
}

// Hub fans committed events out to the sockets watching each game.
type Hub struct {
	manager *game.Manager
	logger  *zap.Logger

	upgrader   websocket.Upgrader
	clients    map[*wsClient]bool
	broadcast  chan gameMessage
	direct     chan clientMessage
	register   chan *wsClient
	unregister chan *wsClient
	done       chan struct{}
}

// NewHub creates a hub for m and subscribes it to m's committed events.
// allowedOrigins empty accepts any origin.
func NewHub(m *game.Manager, allowedOrigins []string, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		manager:    m,
		logger:     logger,
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan gameMessage, sendBuffer),
		direct:     make(chan clientMessage, sendBuffer),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)}
	m.OnEvents(h.Publish)
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		return set[r.Header.Get("Origin")]
	}
}

// Run serves hub traffic until ctx is done. It must only be called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("websocket client registered",
				zap.String("game_id", client.gameID),
				zap.String("player", client.playerID),
			)

		case client := <-h.unregister:
			if h.clients[client] {
				h.drop(client)
				h.logger.Debug("websocket client unregistered",
					zap.String("game_id", client.gameID),
					zap.String("player", client.playerID),
				)
			}

		case msg := <-h.direct:
			if h.clients[msg.client] {
				h.deliver(msg.client, msg.payload)
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				if client.gameID == msg.gameID {
					h.deliver(client, msg.payload)
				}
			}
		}
	}
}

// deliver drops clients that cannot keep up.
func (h *Hub) deliver(client *wsClient, payload []byte) {
	select {
	case client.send <- payload:
	default:
		h.drop(client)
	}
}

func (h *Hub) drop(client *wsClient) {
	delete(h.clients, client)
	close(client.send)
}

// Publish queues a committed batch for the game's sockets.
func (h *Hub) Publish(gameID string, events []rules.Event) {
	payload, err := encode(MsgEvents, gameID, events)
	if err != nil {
		h.logger.Error("failed to encode events", zap.String("game_id", gameID), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- gameMessage{gameID: gameID, payload: payload}:
	case <-h.done:
	}
}

func encode(kind, gameID string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{Type: kind, GameID: gameID, Data: raw})
}

// ServeHTTP upgrades /ws?game=<id>&player=<id>&since=<seq>. The socket first
// receives the events after since, then every later batch.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	gameID := q.Get("game")
	var since uint64
	if raw := q.Get("since"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			http.Error(w, "since must be a sequence number", http.StatusBadRequest)
			return
		}
		since = n
	}

	backlog, err := h.manager.Events(r.Context(), gameID, since)
	if errors.Is(err, game.ErrGameNotFound) {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to load game", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &wsClient{
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		gameID:   gameID,
		playerID: q.Get("player"),
	}
	if len(backlog) > 0 {
		if payload, err := encode(MsgEvents, gameID, backlog); err == nil {
			client.send <- payload
		}
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump(h)
}

func (c *wsClient) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.reply(h, MsgError, wsError{Message: "malformed message"})
			continue
		}
		h.handleMessage(c, msg)
	}
}

func (h *Hub) handleMessage(c *wsClient, msg WSMessage) {
	ctx := context.Background()
	switch msg.Type {
	case MsgCommand:
		var cmd wsCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			c.reply(h, MsgError, wsError{Message: "malformed command"})
			return
		}
		_, err := h.manager.Execute(ctx, c.gameID, game.Command{
			Type:      game.CommandType(cmd.Command),
			Player:    c.playerID,
			Card:      cmd.Card,
			Selection: cmd.Selection,
		})
		if err != nil {
			var cmdErr *engine.CommandError
			if errors.As(err, &cmdErr) {
				c.reply(h, MsgError, wsError{Code: string(cmdErr.Code), Message: cmdErr.Message})
				return
			}
			c.reply(h, MsgError, wsError{Message: err.Error()})
		}

	case MsgStateRequest:
		st, err := h.manager.State(ctx, c.gameID)
		if err != nil {
			c.reply(h, MsgError, wsError{Message: err.Error()})
			return
		}
		c.reply(h, MsgState, NewGameView(st, c.playerID))

	default:
		c.reply(h, MsgError, wsError{Message: "unknown message type " + strconv.Quote(msg.Type)})
	}
}

// reply sends to this client alone, through the hub so a dropped client is
// never written to.
func (c *wsClient) reply(h *Hub, kind string, data any) {
	payload, err := encode(kind, c.gameID, data)
	if err != nil {
		h.logger.Error("failed to encode reply", zap.Error(err))
		return
	}
	select {
	case h.direct <- clientMessage{client: c, payload: payload}:
	case <-h.done:
	}
}

func (c *wsClient) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
