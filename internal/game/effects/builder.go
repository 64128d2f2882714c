package effects

import (
	"github.com/kingdomforge/kingdom-server-go/internal/game/decision"
	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
	"github.com/kingdomforge/kingdom-server-go/internal/game/state"
)

// effect accumulates a resolver's events and keeps a private projection of
// them so later steps see earlier ones. The input state is never touched.
type effect struct {
	in     Input
	state  *state.GameState
	events []rules.Event
}

func begin(in Input) *effect {
	return &effect{in: in, state: in.State}
}

func (e *effect) emit(events ...rules.Event) {
	if len(events) == 0 {
		return
	}
	for i := range events {
		if events[i].CausedBy == "" {
			events[i].CausedBy = e.in.Source
		}
	}
	e.events = append(e.events, events...)
	e.state = state.ApplyAll(e.state, events)
}

func (e *effect) player(id string) *state.PlayerState {
	return e.state.Player(id)
}

// hand returns a copy of the player's hand.
func (e *effect) hand(id string) []string {
	return append([]string(nil), e.player(id).Zone(rules.ZoneHand)...)
}

func (e *effect) draw(id string, n int) {
	e.emit(state.DrawEvents(e.state, id, n, e.in.Source)...)
}

func (e *effect) reveal(id string, n int) {
	e.emit(state.RevealEvents(e.state, id, n, e.in.Source)...)
}

func (e *effect) gain(id, card string, to rules.Zone) bool {
	events := state.GainEvents(e.state, id, card, to, e.in.Source)
	e.emit(events...)
	return len(events) > 0
}

// move emits a zone change when the card is actually in from.
func (e *effect) move(typ rules.EventType, id, card string, from, to rules.Zone) bool {
	if !e.player(id).Has(from, card) {
		return false
	}
	e.emit(rules.NewMoveEvent(typ, id, card, from, to, e.in.Source))
	return true
}

func (e *effect) discard(id, card string, from rules.Zone) bool {
	return e.move(rules.EventCardDiscarded, id, card, from, rules.ZoneDiscard)
}

func (e *effect) trash(id, card string, from rules.Zone) bool {
	return e.move(rules.EventCardTrashed, id, card, from, rules.ZoneTrash)
}

func (e *effect) topdeck(id, card string, from rules.Zone) bool {
	return e.move(rules.EventCardTopdecked, id, card, from, rules.ZoneDeck)
}

func (e *effect) setAside(id, card string, from rules.Zone) bool {
	return e.move(rules.EventCardSetAside, id, card, from, rules.ZoneSetAside)
}

func (e *effect) coins(n int) {
	if n != 0 {
		e.emit(rules.NewEventWithAmount(rules.EventCoinsChanged, e.in.Player, n, e.in.Source))
	}
}

// choice builds a pending choice for responder from spec.
func (e *effect) choice(spec *decision.Spec, responder string, meta rules.Metadata) *rules.PendingChoice {
	choice := decision.Build(spec, decision.Context{
		State:  e.state,
		Player: responder,
		Stage:  spec.Stage,
		Meta:   meta,
	})
	choice.Controller = e.in.Player
	choice.Card = e.in.Card
	choice.Source = e.in.Source
	return choice
}

func (e *effect) pause(choice *rules.PendingChoice) Result {
	return Result{Events: e.events, Pending: choice}
}

func (e *effect) play(intent PlayIntent) Result {
	return Result{Events: e.events, Play: &intent}
}

func (e *effect) done() Result {
	return Result{Events: e.events}
}

// selection returns the answer being resumed with, or nil.
func (e *effect) selection() []string {
	if e.in.Decision == nil {
		return nil
	}
	return e.in.Decision.Selection
}

// meta returns the metadata carried by the answered choice.
func (e *effect) meta() rules.Metadata {
	if e.in.Decision == nil {
		return nil
	}
	return e.in.Decision.Metadata
}
