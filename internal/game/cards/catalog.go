package cards

import (
	"sort"

	"github.com/kingdomforge/kingdom-server-go/internal/game/decision"
	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
)

// Base card names.
const (
	Copper   = "Copper"
	Silver   = "Silver"
	Gold     = "Gold"
	Estate   = "Estate"
	Duchy    = "Duchy"
	Province = "Province"
	Curse    = "Curse"
	Gardens  = "Gardens"
)

var catalog map[string]*Definition

func init() {
	catalog = make(map[string]*Definition)
	for _, def := range definitions() {
		catalog[def.Name] = def
	}
}

// Lookup returns the definition for name.
func Lookup(name string) (*Definition, bool) {
	def, ok := catalog[name]
	return def, ok
}

// Get returns the definition for name, or nil.
func Get(name string) *Definition {
	return catalog[name]
}

// IsType reports whether the named card has type t. Unknown cards have no types.
func IsType(name string, t Type) bool {
	return catalog[name].Is(t)
}

// Cost returns the named card's cost; unknown cards cost 0.
func Cost(name string) int {
	if def, ok := catalog[name]; ok {
		return def.Cost
	}
	return 0
}

// All returns every definition sorted by cost, then name.
func All() []*Definition {
	all := make([]*Definition, 0, len(catalog))
	for _, def := range catalog {
		all = append(all, def)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Cost != all[j].Cost {
			return all[i].Cost < all[j].Cost
		}
		return all[i].Name < all[j].Name
	})
	return all
}

// OfType is a decision filter accepting cards of type t.
func OfType(t Type) decision.Filter {
	return func(_ decision.Context, card string) bool {
		return IsType(card, t)
	}
}

// Named is a decision filter accepting one card name.
func Named(name string) decision.Filter {
	return func(_ decision.Context, card string) bool {
		return card == name
	}
}

// CostingUpTo is a decision filter accepting cards whose cost is at most max.
func CostingUpTo(max decision.Number) decision.Filter {
	return func(ctx decision.Context, card string) bool {
		def, ok := catalog[card]
		return ok && def.Cost <= max(ctx)
	}
}

// Both combines two filters.
func Both(a, b decision.Filter) decision.Filter {
	return func(ctx decision.Context, card string) bool {
		return a(ctx, card) && b(ctx, card)
	}
}

// VictoryPoints scores a player's complete card list.
func VictoryPoints(owned []string) int {
	total := 0
	for _, name := range owned {
		def, ok := catalog[name]
		if !ok {
			continue
		}
		total += def.VP
		if name == Gardens {
			total += len(owned) / 10
		}
	}
	return total
}

func definitions() []*Definition {
	return []*Definition{
		{Name: Copper, Cost: 0, Types: []Type{TypeTreasure}, Benefit: Benefit{Coins: 1}, Text: "$1"},
		{Name: Silver, Cost: 3, Types: []Type{TypeTreasure}, Benefit: Benefit{Coins: 2}, Text: "$2"},
		{Name: Gold, Cost: 6, Types: []Type{TypeTreasure}, Benefit: Benefit{Coins: 3}, Text: "$3"},
		{Name: Estate, Cost: 2, Types: []Type{TypeVictory}, VP: 1, Text: "1 VP"},
		{Name: Duchy, Cost: 5, Types: []Type{TypeVictory}, VP: 3, Text: "3 VP"},
		{Name: Province, Cost: 8, Types: []Type{TypeVictory}, VP: 6, Text: "6 VP"},
		{Name: Curse, Cost: 0, Types: []Type{TypeCurse}, VP: -1, Text: "-1 VP"},

		{
			Name: "Cellar", Cost: 2, Kingdom: true, Types: []Type{TypeAction},
			Benefit: Benefit{Actions: 1},
			Text:    "+1 Action. Discard any number of cards, then draw that many.",
			Decision: &decision.Spec{
				Stage:   "discard",
				From:    rules.ZoneHand,
				Prompt:  decision.Say("Discard any number of cards, then draw that many"),
				Options: decision.Hand(decision.Any),
				Min:     decision.Lit(0),
				Max:     decision.All(),
			},
		},
		{
			Name: "Chapel", Cost: 2, Kingdom: true, Types: []Type{TypeAction},
			Text: "Trash up to 4 cards from your hand.",
			Decision: &decision.Spec{
				Stage:   "trash",
				From:    rules.ZoneHand,
				Prompt:  decision.Say("Trash up to 4 cards from your hand"),
				Options: decision.Hand(decision.Any),
				Min:     decision.Lit(0),
				Max:     decision.Lit(4),
			},
		},
		{
			Name: "Moat", Cost: 2, Kingdom: true, Types: []Type{TypeAction, TypeReaction},
			Benefit:  Benefit{Cards: 2},
			Reaction: ReactionBlockAttack,
			Text:     "+2 Cards. When another player plays an Attack card, you may first reveal this from your hand, to be unaffected by it.",
		},
		{
			Name: "Harbinger", Cost: 3, Kingdom: true, Types: []Type{TypeAction},
			Benefit: Benefit{Cards: 1, Actions: 1},
			Text:    "+1 Card, +1 Action. Look through your discard pile. You may put a card from it onto your deck.",
			Decision: &decision.Spec{
				Stage:   "topdeck",
				From:    rules.ZoneDiscard,
				Prompt:  decision.Say("You may put a card from your discard pile onto your deck"),
				Options: decision.Zone(rules.ZoneDiscard, decision.Any),
				Min:     decision.Lit(0),
				Max:     decision.Lit(1),
			},
		},
		{
			Name: "Merchant", Cost: 3, Kingdom: true, Types: []Type{TypeAction},
			Benefit: Benefit{Cards: 1, Actions: 1},
			Text:    "+1 Card, +1 Action. The first time you play a Silver this turn, +$1.",
		},
		{
			Name: "Vassal", Cost: 3, Kingdom: true, Types: []Type{TypeAction},
			Benefit: Benefit{Coins: 2},
			Text:    "+$2. Discard the top card of your deck. If it's an Action card, you may play it.",
		},
		{
			Name: "Village", Cost: 3, Kingdom: true, Types: []Type{TypeAction},
			Benefit: Benefit{Cards: 1, Actions: 2},
			Text:    "+1 Card, +2 Actions.",
		},
		{
			Name: "Workshop", Cost: 3, Kingdom: true, Types: []Type{TypeAction},
			Text: "Gain a card costing up to $4.",
			Decision: &decision.Spec{
				Stage:   "gain",
				From:    rules.ZoneSupply,
				Prompt:  decision.Say("Gain a card costing up to $4"),
				Options: decision.Supply(CostingUpTo(decision.Lit(4))),
				Min:     decision.Lit(1),
				Max:     decision.Lit(1),
			},
		},
		{
			Name: "Bureaucrat", Cost: 4, Kingdom: true, Types: []Type{TypeAction, TypeAttack},
			Text: "Gain a Silver onto your deck. Each other player reveals a Victory card from their hand and puts it onto their deck (or reveals a hand with no Victory cards).",
		},
		{
			Name: Gardens, Cost: 4, Kingdom: true, Types: []Type{TypeVictory},
			Text: "Worth 1 VP per 10 cards you have (round down).",
		},
		{
			Name: "Militia", Cost: 4, Kingdom: true, Types: []Type{TypeAction, TypeAttack},
			Benefit: Benefit{Coins: 2},
			Text:    "+$2. Each other player discards down to 3 cards in hand.",
		},
		{
			Name: "Moneylender", Cost: 4, Kingdom: true, Types: []Type{TypeAction},
			Text: "You may trash a Copper from your hand for +$3.",
			Decision: &decision.Spec{
				Stage:   "trash",
				From:    rules.ZoneHand,
				Prompt:  decision.Say("You may trash a Copper for +$3"),
				Options: decision.Hand(Named(Copper)),
				Min:     decision.Lit(0),
				Max:     decision.Lit(1),
			},
		},
		{
			Name: "Poacher", Cost: 4, Kingdom: true, Types: []Type{TypeAction},
			Benefit: Benefit{Cards: 1, Actions: 1, Coins: 1},
			Text:    "+1 Card, +1 Action, +$1. Discard a card per empty Supply pile.",
			Decision: &decision.Spec{
				Stage:   "discard",
				From:    rules.ZoneHand,
				Prompt:  decision.Say("Discard a card per empty Supply pile"),
				Options: decision.Hand(decision.Any),
				Min:     emptyPiles,
				Max:     emptyPiles,
			},
		},
		{
			Name: "Remodel", Cost: 4, Kingdom: true, Types: []Type{TypeAction},
			Text: "Trash a card from your hand. Gain a card costing up to $2 more than it.",
			Decision: &decision.Spec{
				Stage:   "trash",
				From:    rules.ZoneHand,
				Prompt:  decision.Say("Trash a card from your hand"),
				Options: decision.Hand(decision.Any),
				Min:     decision.Lit(1),
				Max:     decision.Lit(1),
			},
		},
		{
			Name: "Smithy", Cost: 4, Kingdom: true, Types: []Type{TypeAction},
			Benefit: Benefit{Cards: 3},
			Text:    "+3 Cards.",
		},
		{
			Name: "Throne Room", Cost: 4, Kingdom: true, Types: []Type{TypeAction},
			Text: "You may play an Action card from your hand twice.",
			Decision: &decision.Spec{
				Stage:   "choose",
				From:    rules.ZoneHand,
				Prompt:  decision.Say("You may play an Action card from your hand twice"),
				Options: decision.Hand(OfType(TypeAction)),
				Min:     decision.Lit(0),
				Max:     decision.Lit(1),
			},
		},
		{
			Name: "Bandit", Cost: 5, Kingdom: true, Types: []Type{TypeAction, TypeAttack},
			Text: "Gain a Gold. Each other player reveals the top 2 cards of their deck, trashes a revealed Treasure other than Copper, and discards the rest.",
		},
		{
			Name: "Council Room", Cost: 5, Kingdom: true, Types: []Type{TypeAction},
			Benefit: Benefit{Cards: 4, Buys: 1},
			Text:    "+4 Cards, +1 Buy. Each other player draws a card.",
		},
		{
			Name: "Festival", Cost: 5, Kingdom: true, Types: []Type{TypeAction},
			Benefit: Benefit{Actions: 2, Buys: 1, Coins: 2},
			Text:    "+2 Actions, +1 Buy, +$2.",
		},
		{
			Name: "Laboratory", Cost: 5, Kingdom: true, Types: []Type{TypeAction},
			Benefit: Benefit{Cards: 2, Actions: 1},
			Text:    "+2 Cards, +1 Action.",
		},
		{
			Name: "Library", Cost: 5, Kingdom: true, Types: []Type{TypeAction},
			Text: "Draw until you have 7 cards in hand, skipping any Action cards you choose to; set those aside, discarding them afterwards.",
		},
		{
			Name: "Market", Cost: 5, Kingdom: true, Types: []Type{TypeAction},
			Benefit: Benefit{Cards: 1, Actions: 1, Buys: 1, Coins: 1},
			Text:    "+1 Card, +1 Action, +1 Buy, +$1.",
		},
		{
			Name: "Mine", Cost: 5, Kingdom: true, Types: []Type{TypeAction},
			Text: "You may trash a Treasure from your hand. Gain a Treasure to your hand costing up to $3 more than it.",
			Decision: &decision.Spec{
				Stage:   "trash",
				From:    rules.ZoneHand,
				Prompt:  decision.Say("You may trash a Treasure from your hand"),
				Options: decision.Hand(OfType(TypeTreasure)),
				Min:     decision.Lit(0),
				Max:     decision.Lit(1),
			},
		},
		{
			Name: "Sentry", Cost: 5, Kingdom: true, Types: []Type{TypeAction},
			Benefit: Benefit{Cards: 1, Actions: 1},
			Text:    "+1 Card, +1 Action. Look at the top 2 cards of your deck. Trash and/or discard any number of them. Put the rest back on top in any order.",
		},
		{
			Name: "Witch", Cost: 5, Kingdom: true, Types: []Type{TypeAction, TypeAttack},
			Benefit: Benefit{Cards: 2},
			Text:    "+2 Cards. Each other player gains a Curse.",
		},
		{
			Name: "Artisan", Cost: 6, Kingdom: true, Types: []Type{TypeAction},
			Text: "Gain a card to your hand costing up to $5. Put a card from your hand onto your deck.",
			Decision: &decision.Spec{
				Stage:   "gain",
				From:    rules.ZoneSupply,
				Prompt:  decision.Say("Gain a card to your hand costing up to $5"),
				Options: decision.Supply(CostingUpTo(decision.Lit(5))),
				Min:     decision.Lit(1),
				Max:     decision.Lit(1),
			},
		},
	}
}

func emptyPiles(ctx decision.Context) int {
	return ctx.State.EmptyPiles()
}
