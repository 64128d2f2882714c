// Package engine runs games: it validates commands, drives card resolution
// and appends the resulting events to the game's log.
package engine

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kingdomforge/kingdom-server-go/internal/game/cards"
	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
	"github.com/kingdomforge/kingdom-server-go/internal/game/state"
)

// ErrInvalidSetup is returned when a game cannot be created as requested.
var ErrInvalidSetup = errors.New("invalid game setup")

// Setup describes a new game.
type Setup struct {
	GameID  string
	Players []string // seating order; the first player starts
	Kingdom []string
	Seed    uint64
}

// Result is the outcome of an accepted command.
type Result struct {
	Events  []rules.Event
	Pending *rules.PendingChoice
}

// Game owns one game's event log. Commands are serialized; the log only
// grows.
type Game struct {
	mu        sync.Mutex
	id        string
	namespace uuid.UUID
	log       []rules.Event
	state     *state.GameState
	logger    *zap.Logger
}

// New validates setup and deals the opening hands.
func New(setup Setup, logger *zap.Logger) (*Game, error) {
	if setup.GameID == "" {
		return nil, fmt.Errorf("%w: game id is required", ErrInvalidSetup)
	}
	if n := len(setup.Players); n < cards.MinPlayers || n > cards.MaxPlayers {
		return nil, fmt.Errorf("%w: %d players, need %d to %d", ErrInvalidSetup, n, cards.MinPlayers, cards.MaxPlayers)
	}
	seen := make(map[string]bool, len(setup.Players))
	for _, id := range setup.Players {
		if id == "" || seen[id] {
			return nil, fmt.Errorf("%w: player ids must be unique and non-empty", ErrInvalidSetup)
		}
		seen[id] = true
	}
	if err := cards.ValidateKingdom(setup.Kingdom); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSetup, err)
	}

	g := newGame(setup.GameID, logger)
	b := g.begin()
	b.setup(setup)
	g.commit(b)

	if g.logger != nil {
		g.logger.Info("game created",
			zap.String("game_id", g.id),
			zap.Strings("players", setup.Players),
			zap.Strings("kingdom", setup.Kingdom),
			zap.Uint64("seed", setup.Seed),
		)
	}
	return g, nil
}

// Restore rebuilds a game from a stored log.
func Restore(events []rules.Event, logger *zap.Logger) (*Game, error) {
	if len(events) == 0 || events[0].Type != rules.EventGameStarted {
		return nil, fmt.Errorf("restore: log must begin with %s", rules.EventGameStarted)
	}
	for i, evt := range events {
		if evt.Seq != uint64(i+1) {
			return nil, fmt.Errorf("restore: event %d has seq %d", i+1, evt.Seq)
		}
	}
	g := newGame(events[0].Game, logger)
	g.log = append([]rules.Event(nil), events...)
	g.state = state.Project(g.log)
	return g, nil
}

func newGame(id string, logger *zap.Logger) *Game {
	return &Game{
		id:        id,
		namespace: uuid.NewSHA1(uuid.NameSpaceURL, []byte("kingdom:game:"+id)),
		state:     state.New(),
		logger:    logger,
	}
}

// ID returns the game id.
func (g *Game) ID() string {
	return g.id
}

// State returns a copy of the current state.
func (g *Game) State() *state.GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Clone()
}

// Events returns a copy of the full log.
func (g *Game) Events() []rules.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]rules.Event(nil), g.log...)
}

// EventsSince returns the events with a sequence number above seq.
func (g *Game) EventsSince(seq uint64) []rules.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	if seq >= uint64(len(g.log)) {
		return nil
	}
	return append([]rules.Event(nil), g.log[seq:]...)
}

// Pending returns the outstanding choice, if any.
func (g *Game) Pending() *rules.PendingChoice {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Pending.Clone()
}

// batch collects the events of one command against a working copy of state.
type batch struct {
	g      *Game
	state  *state.GameState
	events []rules.Event
	seq    uint64
}

func (g *Game) begin() *batch {
	return &batch{g: g, state: g.state, seq: uint64(len(g.log))}
}

// emit stamps events with their sequence number and id, applies them and
// returns the stamped copies.
func (b *batch) emit(events ...rules.Event) []rules.Event {
	stamped := make([]rules.Event, 0, len(events))
	for _, evt := range events {
		b.seq++
		evt.Seq = b.seq
		evt.ID = b.g.eventID(b.seq)
		stamped = append(stamped, evt)
	}
	b.state = state.ApplyAll(b.state, stamped)
	b.events = append(b.events, stamped...)
	return stamped
}

func (b *batch) emitOne(evt rules.Event) rules.Event {
	return b.emit(evt)[0]
}

func (g *Game) eventID(seq uint64) string {
	return uuid.NewSHA1(g.namespace, []byte(strconv.FormatUint(seq, 10))).String()
}

func (g *Game) commit(b *batch) Result {
	g.log = append(g.log, b.events...)
	g.state = b.state
	if g.logger != nil && g.state.GameOver {
		for _, evt := range b.events {
			if evt.Type == rules.EventGameEnded {
				g.logger.Info("game ended",
					zap.String("game_id", g.id),
					zap.String("winner", evt.Player),
					zap.Any("scores", evt.Scores),
				)
			}
		}
	}
	return Result{Events: b.events, Pending: g.state.Pending.Clone()}
}
