// Package cards is the read-only catalog of card definitions.
package cards

import (
	"github.com/kingdomforge/kingdom-server-go/internal/game/decision"
)

// Type is a card type tag.
type Type string

const (
	TypeTreasure Type = "treasure"
	TypeVictory  Type = "victory"
	TypeCurse    Type = "curse"
	TypeAction   Type = "action"
	TypeAttack   Type = "attack"
	TypeReaction Type = "reaction"
)

// Benefit is the fixed bonus a card grants when it resolves. For treasures
// Coins is the coin value.
type Benefit struct {
	Cards   int
	Actions int
	Buys    int
	Coins   int
}

// IsZero reports whether the benefit grants nothing.
func (b Benefit) IsZero() bool {
	return b == Benefit{}
}

// Reaction is what a card in hand does when another player attacks.
type Reaction int

const (
	ReactionNone Reaction = iota
	// ReactionBlockAttack makes the holder unaffected by the attack.
	ReactionBlockAttack
)

// Definition describes one card.
type Definition struct {
	Name     string
	Cost     int
	Types    []Type
	Benefit  Benefit
	VP       int
	Reaction Reaction
	Text     string
	Kingdom  bool // eligible for the ten kingdom piles

	// Decision is the first choice the card asks for, if any.
	Decision *decision.Spec
}

// Is reports whether the card has type t.
func (d *Definition) Is(t Type) bool {
	if d == nil {
		return false
	}
	for _, have := range d.Types {
		if have == t {
			return true
		}
	}
	return false
}
