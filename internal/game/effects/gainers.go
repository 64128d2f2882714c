package effects

import (
	"github.com/kingdomforge/kingdom-server-go/internal/game/cards"
	"github.com/kingdomforge/kingdom-server-go/internal/game/decision"
	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
)

// Cost bonuses for the trash-then-gain cards.
const (
	remodelBonus = 2
	mineBonus    = 3
)

// askFirst opens the card's catalog choice, or finishes when there is nothing
// to choose from.
func askFirst(in Input) Result {
	e := begin(in)
	def := cards.Get(in.Card)
	if def == nil || def.Decision == nil {
		return e.done()
	}
	choice := e.choice(def.Decision, in.Player, nil)
	if len(choice.Options) == 0 || choice.Max == 0 {
		return e.done()
	}
	return e.pause(choice)
}

// gainSpec offers supply cards of an optional type costing up to the
// max_cost metadata value.
func gainSpec(stage string, t cards.Type, to rules.Zone) *decision.Spec {
	maxCost := func(ctx decision.Context) int { return ctx.Meta.Int(rules.MetaMaxCost) }
	filter := cards.CostingUpTo(maxCost)
	if t != "" {
		filter = cards.Both(filter, cards.OfType(t))
	}
	prompt := "Gain a card costing up to the shown cost"
	if to == rules.ZoneHand {
		prompt = "Gain a card to your hand costing up to the shown cost"
	}
	return &decision.Spec{
		Stage:   stage,
		From:    rules.ZoneSupply,
		Prompt:  decision.Say(prompt),
		Options: decision.Supply(filter),
		Min:     decision.Lit(1),
		Max:     decision.Lit(1),
	}
}

var (
	remodelGain = gainSpec("gain", "", rules.ZoneDiscard)
	mineGain    = gainSpec("gain", cards.TypeTreasure, rules.ZoneHand)
)

// trashForGain builds the two-step trash then gain card.
func trashForGain(bonus int, gain *decision.Spec, to rules.Zone) Stages {
	return Stages{
		StageStart: askFirst,
		"trash": func(in Input) Result {
			e := begin(in)
			selection := e.selection()
			if len(selection) == 0 {
				return e.done()
			}
			trashed := selection[0]
			if !e.trash(in.Player, trashed, rules.ZoneHand) {
				return e.done()
			}
			meta := rules.Metadata{}.
				WithInt(rules.MetaMaxCost, cards.Cost(trashed)+bonus).
				With(rules.MetaCard, trashed)
			choice := e.choice(gain, in.Player, meta)
			if len(choice.Options) == 0 {
				return e.done()
			}
			return e.pause(choice)
		},
		"gain": func(in Input) Result {
			e := begin(in)
			selection := e.selection()
			if len(selection) == 0 || cards.Cost(selection[0]) > e.meta().Int(rules.MetaMaxCost) {
				return e.done()
			}
			e.gain(in.Player, selection[0], to)
			return e.done()
		},
	}
}

var (
	remodel = trashForGain(remodelBonus, remodelGain, rules.ZoneDiscard)
	mine    = trashForGain(mineBonus, mineGain, rules.ZoneHand)
)

var workshop = Stages{
	StageStart: askFirst,
	"gain": func(in Input) Result {
		e := begin(in)
		for _, card := range e.selection() {
			if cards.Cost(card) <= 4 {
				e.gain(in.Player, card, rules.ZoneDiscard)
			}
		}
		return e.done()
	},
}

var artisanTopdeck = &decision.Spec{
	Stage:   "topdeck",
	From:    rules.ZoneHand,
	Prompt:  decision.Say("Put a card from your hand onto your deck"),
	Options: decision.Hand(decision.Any),
	Min:     decision.Lit(1),
	Max:     decision.Lit(1),
}

var artisan = Stages{
	StageStart: askFirst,
	"gain": func(in Input) Result {
		e := begin(in)
		for _, card := range e.selection() {
			if cards.Cost(card) <= 5 {
				e.gain(in.Player, card, rules.ZoneHand)
			}
		}
		choice := e.choice(artisanTopdeck, in.Player, nil)
		if len(choice.Options) == 0 {
			return e.done()
		}
		return e.pause(choice)
	},
	"topdeck": func(in Input) Result {
		e := begin(in)
		for _, card := range e.selection() {
			e.topdeck(in.Player, card, rules.ZoneHand)
		}
		return e.done()
	},
}
