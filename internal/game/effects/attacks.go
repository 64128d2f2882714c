package effects

import (
	"github.com/kingdomforge/kingdom-server-go/internal/game/cards"
	"github.com/kingdomforge/kingdom-server-go/internal/game/decision"
	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
)

const militiaHandSize = 3

var militiaAttack = Attack{
	Stage: "discard_down",
	Filter: func(e *effect, opponent string) (rules.Metadata, bool) {
		return nil, len(e.hand(opponent)) > militiaHandSize
	},
	Decide: func(e *effect, opponent string, _ rules.Metadata) *rules.PendingChoice {
		excess := len(e.hand(opponent)) - militiaHandSize
		return e.choice(&decision.Spec{
			Stage:   "discard_down",
			From:    rules.ZoneHand,
			Prompt:  decision.Say("Discard down to 3 cards in hand"),
			Options: decision.Hand(decision.Any),
			Min:     decision.Lit(excess),
			Max:     decision.Lit(excess),
		}, opponent, nil)
	},
	Process: func(e *effect, opponent string, selection []string, _ rules.Metadata) {
		for _, card := range selection {
			e.discard(opponent, card, rules.ZoneHand)
		}
	},
}

var militia = Stages{
	StageStart: func(in Input) Result {
		return militiaAttack.Start(begin(in), in.Targets)
	},
	"discard_down": func(in Input) Result {
		return militiaAttack.Resume(begin(in))
	},
}

var bureaucratAttack = Attack{
	Stage: "victory_to_deck",
	Filter: func(e *effect, opponent string) (rules.Metadata, bool) {
		victory := distinct(filterCards(e.hand(opponent), cards.TypeVictory))
		switch len(victory) {
		case 0:
			evt := rules.NewEvent(rules.EventHandRevealed, opponent, "", e.in.Source)
			evt.Cards = e.hand(opponent)
			e.emit(evt)
			return nil, false
		case 1:
			e.topdeck(opponent, victory[0], rules.ZoneHand)
			return nil, false
		}
		return nil, true
	},
	Decide: func(e *effect, opponent string, _ rules.Metadata) *rules.PendingChoice {
		return e.choice(&decision.Spec{
			Stage:   "victory_to_deck",
			From:    rules.ZoneHand,
			Prompt:  decision.Say("Put a Victory card from your hand onto your deck"),
			Options: decision.Hand(cards.OfType(cards.TypeVictory)),
			Min:     decision.Lit(1),
			Max:     decision.Lit(1),
		}, opponent, nil)
	},
	Process: func(e *effect, opponent string, selection []string, _ rules.Metadata) {
		for _, card := range selection {
			e.topdeck(opponent, card, rules.ZoneHand)
		}
	},
}

var bureaucrat = Stages{
	StageStart: func(in Input) Result {
		e := begin(in)
		e.gain(in.Player, cards.Silver, rules.ZoneDeck)
		return bureaucratAttack.Start(e, in.Targets)
	},
	"victory_to_deck": func(in Input) Result {
		return bureaucratAttack.Resume(begin(in))
	},
}

const banditReveal = 2

var banditAttack = Attack{
	Stage: "trash_treasure",
	Filter: func(e *effect, opponent string) (rules.Metadata, bool) {
		e.reveal(opponent, banditReveal)
		candidates := distinct(banditTargets(e.player(opponent).Revealed))
		switch len(candidates) {
		case 0:
			banditDiscardRevealed(e, opponent)
			return nil, false
		case 1:
			e.trash(opponent, candidates[0], rules.ZoneRevealed)
			banditDiscardRevealed(e, opponent)
			return nil, false
		}
		return nil, true
	},
	Decide: func(e *effect, opponent string, _ rules.Metadata) *rules.PendingChoice {
		return e.choice(&decision.Spec{
			Stage:  "trash_treasure",
			From:   rules.ZoneRevealed,
			Prompt: decision.Say("Trash a revealed Treasure other than Copper"),
			Options: decision.Zone(rules.ZoneRevealed, func(ctx decision.Context, card string) bool {
				return card != cards.Copper && cards.IsType(card, cards.TypeTreasure)
			}),
			Min: decision.Lit(1),
			Max: decision.Lit(1),
		}, opponent, nil)
	},
	Process: func(e *effect, opponent string, selection []string, _ rules.Metadata) {
		for _, card := range selection {
			e.trash(opponent, card, rules.ZoneRevealed)
		}
		banditDiscardRevealed(e, opponent)
	},
}

var bandit = Stages{
	StageStart: func(in Input) Result {
		e := begin(in)
		e.gain(in.Player, cards.Gold, rules.ZoneDiscard)
		return banditAttack.Start(e, in.Targets)
	},
	"trash_treasure": func(in Input) Result {
		return banditAttack.Resume(begin(in))
	},
}

func banditTargets(revealed []string) []string {
	var out []string
	for _, card := range revealed {
		if card != cards.Copper && cards.IsType(card, cards.TypeTreasure) {
			out = append(out, card)
		}
	}
	return out
}

func banditDiscardRevealed(e *effect, opponent string) {
	for _, card := range append([]string(nil), e.player(opponent).Revealed...) {
		e.discard(opponent, card, rules.ZoneRevealed)
	}
}

var witch = single(func(in Input) Result {
	e := begin(in)
	for _, target := range in.Targets {
		e.gain(target, cards.Curse, rules.ZoneDiscard)
	}
	return e.done()
})

func filterCards(list []string, t cards.Type) []string {
	var out []string
	for _, card := range list {
		if cards.IsType(card, t) {
			out = append(out, card)
		}
	}
	return out
}

// distinct returns the unique names in list, keeping first-seen order.
func distinct(list []string) []string {
	seen := make(map[string]bool, len(list))
	var out []string
	for _, card := range list {
		if !seen[card] {
			seen[card] = true
			out = append(out, card)
		}
	}
	return out
}
