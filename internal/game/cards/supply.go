package cards

import (
	"errors"
	"fmt"
)

// KingdomSize is the number of kingdom piles in a game.
const KingdomSize = 10

// Player count limits.
const (
	MinPlayers = 2
	MaxPlayers = 4
)

// Starting deck composition.
const (
	StartingCoppers = 7
	StartingEstates = 3
)

// ErrInvalidKingdom is returned for a kingdom that cannot be used.
var ErrInvalidKingdom = errors.New("invalid kingdom")

// StartingDeck returns the unshuffled starting deck.
func StartingDeck() []string {
	deck := make([]string, 0, StartingCoppers+StartingEstates)
	for i := 0; i < StartingCoppers; i++ {
		deck = append(deck, Copper)
	}
	for i := 0; i < StartingEstates; i++ {
		deck = append(deck, Estate)
	}
	return deck
}

// ValidateKingdom checks that kingdom names ten distinct kingdom cards.
func ValidateKingdom(kingdom []string) error {
	if len(kingdom) != KingdomSize {
		return fmt.Errorf("%w: need %d cards, got %d", ErrInvalidKingdom, KingdomSize, len(kingdom))
	}
	seen := make(map[string]bool, len(kingdom))
	for _, name := range kingdom {
		def, ok := Lookup(name)
		if !ok || !def.Kingdom {
			return fmt.Errorf("%w: %q is not a kingdom card", ErrInvalidKingdom, name)
		}
		if seen[name] {
			return fmt.Errorf("%w: %q listed twice", ErrInvalidKingdom, name)
		}
		seen[name] = true
	}
	return nil
}

// NewSupply returns the starting pile counts for a game. Starting decks are
// taken from the Copper pile.
func NewSupply(kingdom []string, players int) map[string]int {
	victory := 8
	if players > 2 {
		victory = 12
	}
	supply := map[string]int{
		Copper:   60 - StartingCoppers*players,
		Silver:   40,
		Gold:     30,
		Estate:   victory,
		Duchy:    victory,
		Province: victory,
		Curse:    10 * (players - 1),
	}
	for _, name := range kingdom {
		if IsType(name, TypeVictory) {
			supply[name] = victory
			continue
		}
		supply[name] = 10
	}
	return supply
}
