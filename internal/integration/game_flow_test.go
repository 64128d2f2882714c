package integration

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/kingdomforge/kingdom-server-go/internal/game"
	"github.com/kingdomforge/kingdom-server-go/internal/game/cards"
	"github.com/kingdomforge/kingdom-server-go/internal/game/engine"
	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
	"github.com/kingdomforge/kingdom-server-go/internal/store"
)

const maxTurns = 200

type gameServerEnv struct {
	store     *store.SQLite
	recorder  *game.ReplayRecorder
	manager   *game.Manager
	replayDir string
	logger    *zap.Logger
}

func newGameServerEnv(t testing.TB) *gameServerEnv {
	logger := zaptest.NewLogger(t)
	dir := t.TempDir()

	events, err := store.OpenSQLite(filepath.Join(dir, "kingdom.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = events.Close() })

	replayDir := filepath.Join(dir, "replays")
	recorder := game.NewReplayRecorder(logger, replayDir)
	return &gameServerEnv{
		store:     events,
		recorder:  recorder,
		manager:   game.NewManager(logger, events, nil, recorder),
		replayDir: replayDir,
		logger:    logger,
	}
}

// bigMoney plays one turn: treasures, then the best of Province, Gold or
// Silver the coins allow.
func bigMoney(t *testing.T, m *game.Manager, gameID string) {
	t.Helper()
	ctx := context.Background()
	s, err := m.State(ctx, gameID)
	require.NoError(t, err)
	player := s.Active

	exec := func(cmd game.Command) {
		cmd.Player = player
		_, err := m.Execute(ctx, gameID, cmd)
		require.NoError(t, err, "%s %s", player, cmd.Type)
	}

	exec(game.Command{Type: game.CommandEndPhase})
	exec(game.Command{Type: game.CommandPlayAllTreasures})

	s, err = m.State(ctx, gameID)
	require.NoError(t, err)
	for _, pick := range []string{cards.Province, cards.Gold, cards.Silver} {
		if s.Coins >= cards.Cost(pick) && s.SupplyCount(pick) > 0 {
			exec(game.Command{Type: game.CommandBuyCard, Card: pick})
			break
		}
	}
	exec(game.Command{Type: game.CommandEndPhase})
}

func TestFullGamePersistsAndReplays(t *testing.T) {
	ctx := context.Background()
	env := newGameServerEnv(t)

	var committed []rules.Event
	env.manager.OnEvents(func(_ string, events []rules.Event) {
		committed = append(committed, events...)
	})

	g, err := env.manager.CreateGame(ctx, game.CreateRequest{Players: []string{"alice", "bob"}, Seed: 2024})
	require.NoError(t, err)
	id := g.ID()

	for turn := 0; turn < maxTurns && !g.State().GameOver; turn++ {
		bigMoney(t, env.manager, id)
	}

	final := g.State()
	require.True(t, final.GameOver, "big money should finish a game")
	assert.Zero(t, final.SupplyCount(cards.Province))
	assert.Equal(t, engine.Scores(final), final.Scores)
	assert.Equal(t, engine.Winner(final, final.Scores), final.Winner)
	assert.Nil(t, final.Pending)

	// every committed event reached the store and the handlers
	stored, err := env.store.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, stored, len(g.Events()))
	assert.Len(t, committed, len(stored))
	liveDigest, err := game.LogDigest(g.Events())
	require.NoError(t, err)
	storedDigest, err := game.LogDigest(committed)
	require.NoError(t, err)
	assert.Equal(t, liveDigest, storedDigest)

	// the finished game was saved as a replay file
	assert.False(t, env.recorder.IsRecording(id))
	replay, err := game.LoadReplayFromFile(env.replayDir, id)
	require.NoError(t, err)
	assert.Equal(t, game.Checksum(final), game.Checksum(replay.Final()))

	// a fresh process restores the same game from the store
	restarted := game.NewManager(env.logger, env.store, nil, nil)
	restored, err := restarted.State(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, game.Checksum(final), game.Checksum(restored))

	_, err = restarted.Execute(ctx, id, game.Command{Type: game.CommandEndPhase, Player: final.Active})
	var cmdErr *engine.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, engine.CodeGameOver, cmdErr.Code)
}

func TestGamesAreIndependent(t *testing.T) {
	ctx := context.Background()
	env := newGameServerEnv(t)

	first, err := env.manager.CreateGame(ctx, game.CreateRequest{Players: []string{"alice", "bob"}, Seed: 1})
	require.NoError(t, err)
	second, err := env.manager.CreateGame(ctx, game.CreateRequest{Players: []string{"carol", "dave", "erin"}, Preset: "Deck Top", Seed: 1})
	require.NoError(t, err)

	bigMoney(t, env.manager, first.ID())
	assert.Equal(t, "bob", first.State().Active)
	assert.Equal(t, "carol", second.State().Active)
	assert.Equal(t, 12, second.State().SupplyCount(cards.Province))

	ids, err := env.store.ListGames(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first.ID(), second.ID()}, ids)
}
