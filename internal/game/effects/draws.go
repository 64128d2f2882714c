package effects

import (
	"github.com/kingdomforge/kingdom-server-go/internal/game/cards"
	"github.com/kingdomforge/kingdom-server-go/internal/game/decision"
	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
)

var cellar = Stages{
	StageStart: askFirst,
	"discard": func(in Input) Result {
		e := begin(in)
		discarded := 0
		for _, card := range e.selection() {
			if e.discard(in.Player, card, rules.ZoneHand) {
				discarded++
			}
		}
		e.draw(in.Player, discarded)
		return e.done()
	},
}

var harbinger = Stages{
	StageStart: askFirst,
	"topdeck": func(in Input) Result {
		e := begin(in)
		for _, card := range e.selection() {
			e.topdeck(in.Player, card, rules.ZoneDiscard)
		}
		return e.done()
	},
}

var councilRoom = single(func(in Input) Result {
	e := begin(in)
	for _, other := range rules.OthersInTurnOrder(in.State.Order, in.Player) {
		e.draw(other, 1)
	}
	return e.done()
})

const libraryHandSize = 7

var librarySkip = &decision.Spec{
	Stage:  "set_aside",
	From:   rules.ZoneHand,
	Prompt: decision.Say("Set this Action card aside?"),
	Options: func(ctx decision.Context) []string {
		return []string{ctx.Meta[rules.MetaCard]}
	},
	Min: decision.Lit(0),
	Max: decision.Lit(1),
}

// libraryDraw draws one card at a time until the hand is full or nothing is
// left, stopping to ask about each Action card. Set-aside cards collect in the
// set-aside zone and are discarded when the loop ends.
func libraryDraw(e *effect) Result {
	player := e.in.Player
	for len(e.hand(player)) < libraryHandSize {
		drawn := len(e.events)
		e.draw(player, 1)
		if len(e.events) == drawn {
			break
		}
		card := e.events[len(e.events)-1].Card
		if cards.IsType(card, cards.TypeAction) {
			return e.pause(e.choice(librarySkip, player, rules.Metadata{}.With(rules.MetaCard, card)))
		}
	}
	for _, card := range append([]string(nil), e.player(player).SetAside...) {
		e.discard(player, card, rules.ZoneSetAside)
	}
	return e.done()
}

var library = Stages{
	StageStart: func(in Input) Result {
		return libraryDraw(begin(in))
	},
	"set_aside": func(in Input) Result {
		e := begin(in)
		for _, card := range e.selection() {
			e.setAside(in.Player, card, rules.ZoneHand)
		}
		return libraryDraw(e)
	},
}

const sentryLook = 2

func sentrySpec(stage, prompt string, exact bool) *decision.Spec {
	spec := &decision.Spec{
		Stage:   stage,
		From:    rules.ZoneRevealed,
		Prompt:  decision.Say(prompt),
		Options: decision.Zone(rules.ZoneRevealed, decision.Any),
		Min:     decision.Lit(0),
		Max:     decision.All(),
	}
	if exact {
		spec.Min = decision.All()
	}
	return spec
}

var (
	sentryTrash   = sentrySpec("trash", "Trash any number of the revealed cards", false)
	sentryDiscard = sentrySpec("discard", "Discard any number of the remaining cards", false)
	sentryReorder = sentrySpec("reorder", "Put the rest back in order; the first card ends on top", true)
)

// sentryNext asks the next question about whatever is still revealed.
func sentryNext(e *effect, spec *decision.Spec) Result {
	remaining := e.player(e.in.Player).Revealed
	switch {
	case len(remaining) == 0:
		return e.done()
	case spec == sentryReorder && len(remaining) == 1:
		e.topdeck(e.in.Player, remaining[0], rules.ZoneRevealed)
		return e.done()
	}
	return e.pause(e.choice(spec, e.in.Player, nil))
}

var sentry = Stages{
	StageStart: func(in Input) Result {
		e := begin(in)
		e.reveal(in.Player, sentryLook)
		return sentryNext(e, sentryTrash)
	},
	"trash": func(in Input) Result {
		e := begin(in)
		for _, card := range e.selection() {
			e.trash(in.Player, card, rules.ZoneRevealed)
		}
		return sentryNext(e, sentryDiscard)
	},
	"discard": func(in Input) Result {
		e := begin(in)
		for _, card := range e.selection() {
			e.discard(in.Player, card, rules.ZoneRevealed)
		}
		return sentryNext(e, sentryReorder)
	},
	"reorder": func(in Input) Result {
		e := begin(in)
		order := e.selection()
		for i := len(order) - 1; i >= 0; i-- {
			e.topdeck(in.Player, order[i], rules.ZoneRevealed)
		}
		for _, card := range append([]string(nil), e.player(in.Player).Revealed...) {
			e.topdeck(in.Player, card, rules.ZoneRevealed)
		}
		return e.done()
	},
}
