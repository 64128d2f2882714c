package effects

import (
	"github.com/kingdomforge/kingdom-server-go/internal/game/cards"
	"github.com/kingdomforge/kingdom-server-go/internal/game/decision"
	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
	"github.com/kingdomforge/kingdom-server-go/internal/game/state"
)

var throneRoom = Stages{
	StageStart: askFirst,
	"choose": func(in Input) Result {
		e := begin(in)
		selection := e.selection()
		if len(selection) == 0 || !cards.IsType(selection[0], cards.TypeAction) {
			return e.done()
		}
		if !e.player(in.Player).Has(rules.ZoneHand, selection[0]) {
			return e.done()
		}
		return e.play(PlayIntent{Card: selection[0], From: rules.ZoneHand, Times: 2})
	},
}

var vassalPlay = &decision.Spec{
	Stage:  "play",
	From:   rules.ZoneDiscard,
	Prompt: decision.Say("You may play the discarded Action card"),
	Options: func(ctx decision.Context) []string {
		return []string{ctx.Meta[rules.MetaCard]}
	},
	Min: decision.Lit(0),
	Max: decision.Lit(1),
}

var vassal = Stages{
	StageStart: func(in Input) Result {
		e := begin(in)
		discarded := len(e.events)
		e.emit(takeTop(e, in.Player)...)
		if len(e.events) == discarded {
			return e.done()
		}
		card := e.events[len(e.events)-1].Card
		if !cards.IsType(card, cards.TypeAction) {
			return e.done()
		}
		return e.pause(e.choice(vassalPlay, in.Player, rules.Metadata{}.With(rules.MetaCard, card)))
	},
	"play": func(in Input) Result {
		e := begin(in)
		card := e.meta()[rules.MetaCard]
		if len(e.selection()) == 0 || card == "" || !e.player(in.Player).Has(rules.ZoneDiscard, card) {
			return e.done()
		}
		return e.play(PlayIntent{Card: card, From: rules.ZoneDiscard, Times: 1})
	},
}

// takeTop discards the top card of the player's deck, shuffling first when
// the deck is empty.
func takeTop(e *effect, player string) []rules.Event {
	return state.TakeFromDeck(e.state, player, 1, e.in.Source, func(card string) rules.Event {
		return rules.Event{Type: rules.EventCardDiscarded, From: rules.ZoneDeck, To: rules.ZoneDiscard}
	})
}

var merchant = single(func(in Input) Result {
	e := begin(in)
	bonus := rules.NewEvent(rules.EventTreasureBonusAdded, in.Player, cards.Silver, in.Source)
	bonus.Amount = 1
	e.emit(bonus)
	return e.done()
})

var chapel = Stages{
	StageStart: askFirst,
	"trash": func(in Input) Result {
		e := begin(in)
		for i, card := range e.selection() {
			if i == 4 {
				break
			}
			e.trash(in.Player, card, rules.ZoneHand)
		}
		return e.done()
	},
}

const moneylenderCoins = 3

var moneylender = Stages{
	StageStart: askFirst,
	"trash": func(in Input) Result {
		e := begin(in)
		for _, card := range e.selection() {
			if card == cards.Copper && e.trash(in.Player, card, rules.ZoneHand) {
				e.coins(moneylenderCoins)
				break
			}
		}
		return e.done()
	},
}

var poacher = Stages{
	StageStart: askFirst,
	"discard": func(in Input) Result {
		e := begin(in)
		for _, card := range e.selection() {
			e.discard(in.Player, card, rules.ZoneHand)
		}
		return e.done()
	},
}
