package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kingdomforge/kingdom-server-go/internal/game"
	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
	"github.com/kingdomforge/kingdom-server-go/internal/store"
)

func startHub(t *testing.T) (*httptest.Server, *game.Manager, string) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	manager := game.NewManager(logger, store.NewMemory(), nil, nil)
	hub := NewHub(manager, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	g, err := manager.CreateGame(context.Background(), game.CreateRequest{Players: []string{"alice", "bob"}, Seed: 8})
	require.NoError(t, err)
	return srv, manager, g.ID()
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func readEvents(t *testing.T, conn *websocket.Conn) []rules.Event {
	t.Helper()
	msg := readMessage(t, conn)
	require.Equal(t, MsgEvents, msg.Type)
	var events []rules.Event
	require.NoError(t, json.Unmarshal(msg.Data, &events))
	return events
}

func TestWebSocketBacklogAndBroadcast(t *testing.T) {
	srv, manager, id := startHub(t)

	alice := dial(t, srv, "game="+id+"&player=alice")
	watcher := dial(t, srv, "game="+id+"&since=4")

	backlog := readEvents(t, alice)
	require.NotEmpty(t, backlog)
	assert.Equal(t, rules.EventGameStarted, backlog[0].Type)
	assert.Equal(t, uint64(5), readEvents(t, watcher)[0].Seq)

	// a socket is registered once a state request round-trips
	views := make([]GameView, 2)
	for i, conn := range []*websocket.Conn{alice, watcher} {
		require.NoError(t, conn.WriteJSON(WSMessage{Type: MsgStateRequest}))
		state := readMessage(t, conn)
		require.Equal(t, MsgState, state.Type)
		require.NoError(t, json.Unmarshal(state.Data, &views[i]))
	}
	assert.Equal(t, "alice", views[0].Active)
	assert.Len(t, views[0].Players[0].Hand, 5)
	assert.Empty(t, views[1].Players[0].Hand)

	_, err := manager.Execute(context.Background(), id, game.Command{Type: game.CommandEndPhase, Player: "alice"})
	require.NoError(t, err)

	for _, conn := range []*websocket.Conn{alice, watcher} {
		events := readEvents(t, conn)
		require.Len(t, events, 1)
		assert.Equal(t, rules.EventPhaseChanged, events[0].Type)
	}
}

func TestWebSocketCommands(t *testing.T) {
	srv, _, id := startHub(t)
	bob := dial(t, srv, "game="+id+"&player=bob")
	readEvents(t, bob)

	data, err := json.Marshal(wsCommand{Command: string(game.CommandEndPhase)})
	require.NoError(t, err)
	require.NoError(t, bob.WriteJSON(WSMessage{Type: MsgCommand, Data: data}))

	msg := readMessage(t, bob)
	require.Equal(t, MsgError, msg.Type)
	var wsErr wsError
	require.NoError(t, json.Unmarshal(msg.Data, &wsErr))
	assert.Equal(t, "not_your_turn", wsErr.Code)

	require.NoError(t, bob.WriteJSON(WSMessage{Type: "shout"}))
	assert.Equal(t, MsgError, readMessage(t, bob).Type)
}

func TestWebSocketUnknownGame(t *testing.T) {
	srv, _, _ := startHub(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?game=missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://kingdom.example"})
	ok := httptest.NewRequest(http.MethodGet, "/ws", nil)
	ok.Header.Set("Origin", "https://kingdom.example")
	bad := httptest.NewRequest(http.MethodGet, "/ws", nil)
	bad.Header.Set("Origin", "https://elsewhere.example")

	assert.True(t, check(ok))
	assert.False(t, check(bad))
	assert.True(t, originChecker(nil)(bad))
}
