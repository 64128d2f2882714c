package state

import (
	"math/rand/v2"

	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
)

// ShuffleOrder returns cards in the order produced by the counter-th shuffle
// of a game seeded with seed. The input slice is not modified.
func ShuffleOrder(seed uint64, counter int, cards []string) []string {
	order := cloneStrings(cards)
	if len(order) < 2 {
		return order
	}
	rng := rand.New(rand.NewPCG(seed, uint64(counter)))
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

// TakeFromDeck builds the events that remove up to n cards from the top of a
// player's deck, one build call per card. When the deck runs out and the
// discard pile is not empty, the cards taken so far are followed by a single
// DECK_SHUFFLED event carrying the new deck order and then the remaining
// cards. Fewer than n cards are taken when deck and discard run dry.
func TakeFromDeck(s *GameState, playerID string, n int, causedBy string, build func(card string) rules.Event) []rules.Event {
	p := s.Player(playerID)
	if p == nil || n <= 0 {
		return nil
	}

	deck := cloneStrings(p.Deck)
	events := make([]rules.Event, 0, n+1)
	shuffled := false

	for taken := 0; taken < n; taken++ {
		if len(deck) == 0 {
			if shuffled || len(p.Discard) == 0 {
				break
			}
			deck = ShuffleOrder(s.Seed, s.Shuffles, p.Discard)
			shuffle := rules.NewEvent(rules.EventDeckShuffled, playerID, "", causedBy)
			shuffle.Cards = cloneStrings(deck)
			events = append(events, shuffle)
			shuffled = true
		}
		card := deck[0]
		deck = deck[1:]
		evt := build(card)
		evt.Player = playerID
		evt.Card = card
		evt.CausedBy = causedBy
		events = append(events, evt)
	}
	return events
}

// DrawEvents builds the events for playerID drawing n cards.
func DrawEvents(s *GameState, playerID string, n int, causedBy string) []rules.Event {
	return TakeFromDeck(s, playerID, n, causedBy, func(card string) rules.Event {
		return rules.Event{Type: rules.EventCardDrawn, From: rules.ZoneDeck, To: rules.ZoneHand}
	})
}

// RevealEvents builds the events for revealing the top n cards of a deck into
// the player's revealed zone.
func RevealEvents(s *GameState, playerID string, n int, causedBy string) []rules.Event {
	return TakeFromDeck(s, playerID, n, causedBy, func(card string) rules.Event {
		return rules.Event{Type: rules.EventCardRevealed, From: rules.ZoneDeck, To: rules.ZoneRevealed}
	})
}

// GainEvents builds the event for playerID gaining card into the given zone.
// It returns nil when the supply pile is empty or absent; callers rely on this
// as the only supply check.
func GainEvents(s *GameState, playerID, card string, to rules.Zone, causedBy string) []rules.Event {
	if s.Player(playerID) == nil || s.SupplyCount(card) <= 0 {
		return nil
	}
	return []rules.Event{rules.NewMoveEvent(rules.EventCardGained, playerID, card, rules.ZoneSupply, gainDestination(to), causedBy)}
}
