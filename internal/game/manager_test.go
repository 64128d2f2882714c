package game

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kingdomforge/kingdom-server-go/internal/game/cards"
	"github.com/kingdomforge/kingdom-server-go/internal/game/engine"
	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
	"github.com/kingdomforge/kingdom-server-go/internal/store"
)

var seats = []string{"alice", "bob"}

func TestManagerCreateGameDefaults(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	m := NewManager(zaptest.NewLogger(t), mem, nil, nil)

	g, err := m.CreateGame(ctx, CreateRequest{Players: seats})
	require.NoError(t, err)

	s := g.State()
	presets, err := cards.BuiltinPresets()
	require.NoError(t, err)
	want, err := presets.Kingdom(cards.DefaultPreset)
	require.NoError(t, err)
	assert.ElementsMatch(t, want, s.Kingdom)
	assert.NotZero(t, s.Seed)
	assert.Equal(t, "alice", s.Active)

	stored, err := mem.Load(ctx, g.ID())
	require.NoError(t, err)
	assert.Len(t, stored, len(g.Events()))
	assert.Equal(t, []string{g.ID()}, m.GameIDs())
}

func TestManagerCreateGameKingdomAndPreset(t *testing.T) {
	ctx := context.Background()
	m := NewManager(zaptest.NewLogger(t), nil, nil, nil)

	kingdom := []string{"Cellar", "Chapel", "Moat", "Harbinger", "Merchant", "Vassal", "Village", "Workshop", "Bureaucrat", "Gardens"}
	g, err := m.CreateGame(ctx, CreateRequest{Players: seats, Kingdom: kingdom, Preset: "ignored", Seed: 3})
	require.NoError(t, err)
	assert.Equal(t, kingdom, g.State().Kingdom)
	assert.Equal(t, uint64(3), g.State().Seed)

	_, err = m.CreateGame(ctx, CreateRequest{Players: seats, Preset: "No Such Preset"})
	assert.ErrorIs(t, err, engine.ErrInvalidSetup)

	_, err = m.CreateGame(ctx, CreateRequest{Players: []string{"solo"}})
	assert.ErrorIs(t, err, engine.ErrInvalidSetup)
}

func TestManagerExecutePersistsAndNotifies(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	m := NewManager(zaptest.NewLogger(t), mem, nil, nil)

	var mu sync.Mutex
	var seen []rules.Event
	m.OnEvents(func(gameID string, events []rules.Event) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, events...)
	})

	g, err := m.CreateGame(ctx, CreateRequest{Players: seats, Seed: 5})
	require.NoError(t, err)

	res, err := m.Execute(ctx, g.ID(), Command{Type: CommandEndPhase, Player: "alice"})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, rules.EventPhaseChanged, res.Events[0].Type)

	_, err = m.Execute(ctx, g.ID(), Command{Type: CommandPlayAllTreasures, Player: "alice"})
	require.NoError(t, err)

	last, err := mem.LastSeq(ctx, g.ID())
	require.NoError(t, err)
	assert.Equal(t, g.State().LastSeq, last)

	mu.Lock()
	assert.Equal(t, g.Events(), seen)
	mu.Unlock()
}

func TestManagerRejectionIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	m := NewManager(zaptest.NewLogger(t), mem, nil, nil)
	g, err := m.CreateGame(ctx, CreateRequest{Players: seats, Seed: 5})
	require.NoError(t, err)
	before, err := mem.LastSeq(ctx, g.ID())
	require.NoError(t, err)

	_, err = m.Execute(ctx, g.ID(), Command{Type: CommandEndPhase, Player: "bob"})
	var cmdErr *engine.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, engine.CodeNotYourTurn, cmdErr.Code)

	_, err = m.Execute(ctx, g.ID(), Command{Type: "dance", Player: "alice"})
	assert.ErrorIs(t, err, ErrUnknownCommand)

	after, err := mem.LastSeq(ctx, g.ID())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestManagerRestoresFromStore(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	first := NewManager(zaptest.NewLogger(t), mem, nil, nil)
	g, err := first.CreateGame(ctx, CreateRequest{Players: seats, Seed: 9})
	require.NoError(t, err)
	_, err = first.Execute(ctx, g.ID(), Command{Type: CommandEndPhase, Player: "alice"})
	require.NoError(t, err)

	second := NewManager(zaptest.NewLogger(t), mem, nil, nil)
	s, err := second.State(ctx, g.ID())
	require.NoError(t, err)
	assert.Equal(t, Checksum(g.State()), Checksum(s))

	_, err = second.Execute(ctx, g.ID(), Command{Type: CommandEndPhase, Player: "alice"})
	require.NoError(t, err)
	restored, err := second.Game(ctx, g.ID())
	require.NoError(t, err)
	assert.Equal(t, "bob", restored.State().Active)

	events, err := second.Events(ctx, g.ID(), g.State().LastSeq)
	require.NoError(t, err)
	assert.NotEmpty(t, events)
	assert.Equal(t, g.State().LastSeq+1, events[0].Seq)

	last, err := mem.LastSeq(ctx, g.ID())
	require.NoError(t, err)
	assert.Equal(t, restored.State().LastSeq, last)
}

func TestManagerUnknownGame(t *testing.T) {
	ctx := context.Background()
	for name, s := range map[string]store.EventStore{"no store": nil, "memory": store.NewMemory()} {
		t.Run(name, func(t *testing.T) {
			m := NewManager(zaptest.NewLogger(t), s, nil, nil)
			_, err := m.Execute(ctx, "missing", Command{Type: CommandEndPhase, Player: "alice"})
			assert.ErrorIs(t, err, ErrGameNotFound)
		})
	}
}

func TestManagerRecordsReplay(t *testing.T) {
	ctx := context.Background()
	recorder := NewReplayRecorder(zaptest.NewLogger(t), t.TempDir())
	m := NewManager(zaptest.NewLogger(t), nil, nil, recorder)

	g, err := m.CreateGame(ctx, CreateRequest{Players: seats, Seed: 2})
	require.NoError(t, err)
	_, err = m.Execute(ctx, g.ID(), Command{Type: CommandEndPhase, Player: "alice"})
	require.NoError(t, err)

	replay, ok := recorder.GetReplay(g.ID())
	require.True(t, ok)
	assert.Equal(t, len(g.Events()), replay.Size())

	m.Remove(g.ID())
	_, ok = recorder.GetReplay(g.ID())
	assert.False(t, ok)
	assert.Empty(t, m.GameIDs())
}

func TestManagerHandlersRunAfterPersist(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	m := NewManager(zaptest.NewLogger(t), mem, nil, nil)

	var batches int
	cancel := m.OnEvents(func(gameID string, events []rules.Event) {
		batches++
		last, err := mem.LastSeq(ctx, gameID)
		require.NoError(t, err)
		assert.Equal(t, events[len(events)-1].Seq, last, "batch delivered before it was stored")
	})

	g, err := m.CreateGame(ctx, CreateRequest{Players: seats, Seed: 4})
	require.NoError(t, err)
	_, err = m.Execute(ctx, g.ID(), Command{Type: CommandEndPhase, Player: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 2, batches)

	cancel()
	_, err = m.Execute(ctx, g.ID(), Command{Type: CommandPlayAllTreasures, Player: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 2, batches)
}

func TestManagerSavesReplayOnGameEnd(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	recorder := NewReplayRecorder(zaptest.NewLogger(t), dir)
	m := NewManager(zaptest.NewLogger(t), nil, nil, recorder)

	g, err := m.CreateGame(ctx, CreateRequest{Players: seats, Seed: 6})
	require.NoError(t, err)
	require.True(t, recorder.IsRecording(g.ID()))

	// a batch without GAME_ENDED keeps recording
	m.bus.PublishBatch(g.ID(), nil)
	require.True(t, recorder.IsRecording(g.ID()))

	ended := rules.NewEvent(rules.EventGameEnded, "alice", "", "")
	ended.Seq = g.State().LastSeq + 1
	m.bus.PublishBatch(g.ID(), []rules.Event{ended})

	assert.False(t, recorder.IsRecording(g.ID()))
	replay, err := LoadReplayFromFile(dir, g.ID())
	require.NoError(t, err)
	assert.Equal(t, len(g.Events())+1, replay.Size())
	assert.Equal(t, rules.EventGameEnded, replay.Events[replay.Size()-1].Type)
}

func TestManagerConcurrentGames(t *testing.T) {
	ctx := context.Background()
	m := NewManager(zaptest.NewLogger(t), store.NewMemory(), nil, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := m.CreateGame(ctx, CreateRequest{Players: seats})
			if err != nil {
				errs <- err
				return
			}
			if _, err := m.Execute(ctx, g.ID(), Command{Type: CommandEndPhase, Player: "alice"}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	assert.Len(t, m.GameIDs(), 8)
}
