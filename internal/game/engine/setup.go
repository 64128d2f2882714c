package engine

import (
	"github.com/kingdomforge/kingdom-server-go/internal/game/cards"
	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
	"github.com/kingdomforge/kingdom-server-go/internal/game/state"
)

const handSize = 5

func (b *batch) setup(setup Setup) {
	started := rules.Event{
		Type:    rules.EventGameStarted,
		Game:    setup.GameID,
		Seed:    setup.Seed,
		Cards:   append([]string(nil), setup.Players...),
		Kingdom: append([]string(nil), setup.Kingdom...),
		Supply:  cards.NewSupply(setup.Kingdom, len(setup.Players)),
	}
	root := b.emitOne(started)

	for _, player := range setup.Players {
		dealt := rules.NewEvent(rules.EventDeckDealt, player, "", root.ID)
		dealt.Cards = state.ShuffleOrder(b.state.Seed, b.state.Shuffles, cards.StartingDeck())
		b.emit(dealt)
	}
	for _, player := range setup.Players {
		b.emit(state.DrawEvents(b.state, player, handSize, root.ID)...)
	}
	b.emit(rules.NewEventWithAmount(rules.EventTurnStarted, setup.Players[0], 1, root.ID))
}
