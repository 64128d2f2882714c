// Package game hosts running games: it creates them, routes commands to
// their engines, persists committed events and replays finished logs.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kingdomforge/kingdom-server-go/internal/game/cards"
	"github.com/kingdomforge/kingdom-server-go/internal/game/engine"
	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
	"github.com/kingdomforge/kingdom-server-go/internal/game/state"
	"github.com/kingdomforge/kingdom-server-go/internal/store"
)

// ErrGameNotFound is returned for an unknown game id.
var ErrGameNotFound = errors.New("game not found")

// ErrUnknownCommand is returned for a command type the engine does not have.
var ErrUnknownCommand = errors.New("unknown command")

// CommandType names an engine command.
type CommandType string

const (
	CommandPlayAction       CommandType = "play_action"
	CommandPlayTreasure     CommandType = "play_treasure"
	CommandPlayAllTreasures CommandType = "play_all_treasures"
	CommandBuyCard          CommandType = "buy_card"
	CommandEndPhase         CommandType = "end_phase"
	CommandSubmitDecision   CommandType = "submit_decision"
)

// Command is a player's request against a game.
type Command struct {
	Type      CommandType
	Player    string
	Card      string
	Selection []string
}

// CreateRequest describes a new game. Kingdom wins over Preset; with neither
// the default preset is used. A zero Seed picks a random one.
type CreateRequest struct {
	Players []string
	Kingdom []string
	Preset  string
	Seed    uint64
}

// Handler is called with each committed batch, in log order per game.
type Handler = rules.BatchListener

type entry struct {
	mu   sync.Mutex // orders command, persist and notify per game
	game *engine.Game
}

// Manager owns the running games.
type Manager struct {
	mu       sync.RWMutex
	games    map[string]*entry
	store    store.EventStore
	presets  cards.Presets
	recorder *ReplayRecorder
	bus      *rules.EventBus
	logger   *zap.Logger
}

// NewManager creates a manager. store and recorder may be nil; nil presets
// means the builtin set.
func NewManager(logger *zap.Logger, eventStore store.EventStore, presets cards.Presets, recorder *ReplayRecorder) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if presets == nil {
		var err error
		if presets, err = cards.BuiltinPresets(); err != nil {
			logger.Error("builtin presets are invalid", zap.Error(err))
		}
	}
	m := &Manager{
		games:    make(map[string]*entry),
		store:    eventStore,
		presets:  presets,
		recorder: recorder,
		bus:      rules.NewEventBus(),
		logger:   logger,
	}
	if recorder != nil {
		m.bus.SubscribeBatch(recorder.RecordEvents)
		m.bus.SubscribeTyped(rules.EventGameEnded, func(gameID string, _ rules.Event) {
			m.finish(gameID)
		})
	}
	if logger.Core().Enabled(zap.DebugLevel) {
		m.bus.Subscribe(m.logEvent)
	}
	return m
}

// OnEvents registers h to receive every committed batch after it is
// persisted. The returned func removes h.
func (m *Manager) OnEvents(h Handler) (cancel func()) {
	handle := m.bus.SubscribeBatch(h)
	return func() { m.bus.Unsubscribe(handle) }
}

func (m *Manager) logEvent(gameID string, evt rules.Event) {
	fields := []zap.Field{
		zap.String("game_id", gameID),
		zap.Uint64("seq", evt.Seq),
		zap.String("type", string(evt.Type)),
		zap.String("player", evt.Player),
	}
	if evt.Type.IsZoneChange() {
		fields = append(fields,
			zap.String("card", evt.Card),
			zap.Stringer("from", evt.From),
			zap.Stringer("to", evt.To),
		)
	}
	m.logger.Debug("event committed", fields...)
}

// CreateGame sets up a new game, persists its opening events and returns it.
func (m *Manager) CreateGame(ctx context.Context, req CreateRequest) (*engine.Game, error) {
	kingdom := req.Kingdom
	if len(kingdom) == 0 {
		name := req.Preset
		if name == "" {
			name = cards.DefaultPreset
		}
		var err error
		if kingdom, err = m.presets.Kingdom(name); err != nil {
			return nil, fmt.Errorf("%w: %v", engine.ErrInvalidSetup, err)
		}
	}
	seed := req.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	g, err := engine.New(engine.Setup{
		GameID:  uuid.NewString(),
		Players: req.Players,
		Kingdom: kingdom,
		Seed:    seed,
	}, m.logger)
	if err != nil {
		return nil, err
	}

	e := &entry{game: g}
	e.mu.Lock()
	defer e.mu.Unlock()

	m.mu.Lock()
	m.games[g.ID()] = e
	m.mu.Unlock()

	if m.recorder != nil {
		m.recorder.StartRecording(g.ID())
	}
	if err := m.publish(ctx, g, g.Events()); err != nil {
		return g, err
	}
	return g, nil
}

// Game returns a running game, restoring it from the store if needed.
func (m *Manager) Game(ctx context.Context, gameID string) (*engine.Game, error) {
	e, err := m.entry(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return e.game, nil
}

// State returns a copy of a game's current state.
func (m *Manager) State(ctx context.Context, gameID string) (*state.GameState, error) {
	g, err := m.Game(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return g.State(), nil
}

// Events returns a game's events after seq.
func (m *Manager) Events(ctx context.Context, gameID string, since uint64) ([]rules.Event, error) {
	g, err := m.Game(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return g.EventsSince(since), nil
}

// GameIDs lists the games held in memory.
func (m *Manager) GameIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Remove drops a game from memory; its stored log is kept.
func (m *Manager) Remove(gameID string) {
	m.mu.Lock()
	delete(m.games, gameID)
	m.mu.Unlock()

	if m.recorder != nil {
		m.recorder.ClearReplay(gameID)
	}
	m.logger.Info("game removed", zap.String("game_id", gameID))
}

// Execute runs a command. Command rejections come back as
// *engine.CommandError; persistence failures are wrapped.
func (m *Manager) Execute(ctx context.Context, gameID string, cmd Command) (engine.Result, error) {
	e, err := m.entry(ctx, gameID)
	if err != nil {
		return engine.Result{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := dispatch(e.game, cmd)
	if err != nil {
		return res, err
	}
	if err := m.publish(ctx, e.game, res.Events); err != nil {
		return res, err
	}
	return res, nil
}

func dispatch(g *engine.Game, cmd Command) (engine.Result, error) {
	switch cmd.Type {
	case CommandPlayAction:
		return g.PlayAction(cmd.Player, cmd.Card)
	case CommandPlayTreasure:
		return g.PlayTreasure(cmd.Player, cmd.Card)
	case CommandPlayAllTreasures:
		return g.PlayAllTreasures(cmd.Player)
	case CommandBuyCard:
		return g.BuyCard(cmd.Player, cmd.Card)
	case CommandEndPhase:
		return g.EndPhase(cmd.Player)
	case CommandSubmitDecision:
		return g.SubmitDecision(cmd.Player, cmd.Selection)
	}
	return engine.Result{}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
}

func (m *Manager) entry(ctx context.Context, gameID string) (*entry, error) {
	m.mu.RLock()
	e, ok := m.games[gameID]
	m.mu.RUnlock()
	if ok {
		return e, nil
	}
	if m.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}

	events, err := m.store.Load(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", gameID, err)
	}
	g, err := engine.Restore(events, m.logger)
	if err != nil {
		return nil, fmt.Errorf("restore game %s: %w", gameID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.games[gameID]; ok {
		return existing, nil
	}
	e = &entry{game: g}
	m.games[gameID] = e
	m.logger.Info("game restored",
		zap.String("game_id", gameID),
		zap.Int("events", len(events)),
	)
	return e, nil
}

// publish persists everything the store is missing, then puts the batch on
// the bus. Callers hold the game's entry lock.
func (m *Manager) publish(ctx context.Context, g *engine.Game, batch []rules.Event) error {
	if m.store != nil {
		last, err := m.store.LastSeq(ctx, g.ID())
		if err != nil {
			return fmt.Errorf("persist game %s: %w", g.ID(), err)
		}
		if missing := g.EventsSince(last); len(missing) > 0 {
			if err := m.store.Append(ctx, g.ID(), missing); err != nil {
				m.logger.Error("failed to persist events",
					zap.String("game_id", g.ID()),
					zap.Uint64("from_seq", last+1),
					zap.Error(err),
				)
				return fmt.Errorf("persist game %s: %w", g.ID(), err)
			}
		}
	}

	m.bus.PublishBatch(g.ID(), batch)
	return nil
}

func (m *Manager) finish(gameID string) {
	if !m.recorder.IsRecording(gameID) {
		return
	}
	m.recorder.StopRecording(gameID)
	if err := m.recorder.SaveReplay(gameID); err != nil {
		m.logger.Warn("failed to save replay", zap.String("game_id", gameID), zap.Error(err))
	}
}
