package state

import (
	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
)

// Apply returns the state that results from applying evt to s. The input is
// never modified. Events that reference an unknown player, or a card that is
// not where the event says it is, leave the state unchanged apart from the
// sequence watermark.
func Apply(s *GameState, evt rules.Event) *GameState {
	if s == nil {
		s = New()
	}
	next := s.Clone()
	if evt.Seq > next.LastSeq {
		next.LastSeq = evt.Seq
	}
	next.apply(evt)
	return next
}

// ApplyAll applies events in order and returns the resulting state.
func ApplyAll(s *GameState, events []rules.Event) *GameState {
	if s == nil {
		s = New()
	}
	next := s.Clone()
	for _, evt := range events {
		if evt.Seq > next.LastSeq {
			next.LastSeq = evt.Seq
		}
		next.apply(evt)
	}
	return next
}

// Project folds the log from the empty state.
func Project(events []rules.Event) *GameState {
	return ApplyAll(New(), events)
}

// apply mutates s in place; callers hold a private copy.
func (s *GameState) apply(evt rules.Event) {
	switch evt.Type {
	case rules.EventGameStarted:
		s.GameID = evt.Game
		s.Seed = evt.Seed
		s.Order = cloneStrings(evt.Cards)
		s.Kingdom = cloneStrings(evt.Kingdom)
		s.Supply = cloneCounts(evt.Supply)
		if s.Supply == nil {
			s.Supply = make(map[string]int)
		}
		s.Players = make(map[string]*PlayerState, len(evt.Cards))
		for _, id := range evt.Cards {
			s.Players[id] = &PlayerState{ID: id}
		}
		return

	case rules.EventTurnStarted:
		p := s.Player(evt.Player)
		if p == nil {
			return
		}
		s.Started = true
		s.Active = evt.Player
		s.Turn = evt.Amount
		s.Phase = rules.PhaseAction
		s.Actions = 1
		s.Buys = 1
		s.Coins = 0
		p.TurnsTaken++
		return

	case rules.EventPhaseChanged:
		s.Phase = evt.Phase
		return

	case rules.EventGameEnded:
		s.GameOver = true
		s.Winner = evt.Player
		s.Scores = cloneCounts(evt.Scores)
		s.Pending = nil
		s.Queue = nil
		return

	case rules.EventActionsChanged:
		s.Actions = clampZero(s.Actions + evt.Amount)
		return
	case rules.EventBuysChanged:
		s.Buys = clampZero(s.Buys + evt.Amount)
		return
	case rules.EventCoinsChanged:
		s.Coins = clampZero(s.Coins + evt.Amount)
		return

	case rules.EventCardBought:
		s.Coins = clampZero(s.Coins - evt.Amount)
		s.Buys = clampZero(s.Buys - 1)
		return

	case rules.EventCardTrashed:
		p := s.Player(evt.Player)
		if p == nil {
			return
		}
		if zone := p.zonePtr(evt.From); zone != nil && removeCard(zone, evt.Card) {
			s.Trash = append(s.Trash, evt.Card)
		}
		return

	case rules.EventCardGained:
		p := s.Player(evt.Player)
		if p == nil || s.Supply[evt.Card] <= 0 {
			return
		}
		s.Supply[evt.Card]--
		p.put(gainDestination(evt.To), evt.Card)
		return

	case rules.EventResolveQueued:
		if s.Player(evt.Player) == nil {
			return
		}
		item := WorkItem{Player: evt.Player, Card: evt.Card, Source: evt.CausedBy}
		s.Queue = append([]WorkItem{item}, s.Queue...)
		return

	case rules.EventResolveStarted:
		if len(s.Queue) > 0 {
			s.Queue = append([]WorkItem(nil), s.Queue[1:]...)
		}
		if len(s.Queue) == 0 {
			s.Queue = nil
		}
		return

	case rules.EventDecisionRequired:
		s.Pending = evt.Choice.Clone()
		return
	case rules.EventDecisionResolved:
		s.Pending = nil
		return
	}

	p := s.Player(evt.Player)
	if p == nil {
		return
	}

	switch evt.Type {
	case rules.EventDeckDealt:
		p.Deck = cloneStrings(evt.Cards)
		s.Shuffles++

	case rules.EventDeckShuffled:
		p.Discard = nil
		p.Deck = append(p.Deck, evt.Cards...)
		s.Shuffles++

	case rules.EventCardDrawn:
		p.move(rules.ZoneDeck, rules.ZoneHand, evt.Card)

	case rules.EventCardDiscarded:
		p.move(evt.From, rules.ZoneDiscard, evt.Card)

	case rules.EventCardPlayed:
		from := evt.From
		if from == rules.ZoneNone {
			from = rules.ZoneHand
		}
		p.move(from, rules.ZoneInPlay, evt.Card)

	case rules.EventCardTopdecked:
		p.move(evt.From, rules.ZoneDeck, evt.Card)

	case rules.EventCardSetAside:
		from := evt.From
		if from == rules.ZoneNone {
			from = rules.ZoneHand
		}
		p.move(from, rules.ZoneSetAside, evt.Card)

	case rules.EventCardRevealed:
		p.move(rules.ZoneDeck, rules.ZoneRevealed, evt.Card)

	case rules.EventTreasureBonusAdded:
		if p.TreasureBonus == nil {
			p.TreasureBonus = make(map[string]int)
		}
		p.TreasureBonus[evt.Card] += evt.Amount

	case rules.EventTreasureBonusCashed:
		delete(p.TreasureBonus, evt.Card)
		if len(p.TreasureBonus) == 0 {
			p.TreasureBonus = nil
		}

	case rules.EventTurnEnded:
		p.Discard = append(p.Discard, p.InPlay...)
		p.Discard = append(p.Discard, p.SetAside...)
		p.Discard = append(p.Discard, p.Revealed...)
		p.Discard = append(p.Discard, p.Hand...)
		p.InPlay = nil
		p.SetAside = nil
		p.Revealed = nil
		p.Hand = nil
		p.TreasureBonus = nil
		s.Phase = rules.PhaseCleanup
		s.Actions = 0
		s.Buys = 0
		s.Coins = 0
	}
}

// move transfers one copy of card between zones. Cards moved onto the deck go
// on top.
func (p *PlayerState) move(from, to rules.Zone, card string) bool {
	src := p.zonePtr(from)
	if src == nil || p.zonePtr(to) == nil {
		return false
	}
	if !removeCard(src, card) {
		return false
	}
	p.put(to, card)
	return true
}

func (p *PlayerState) put(to rules.Zone, card string) {
	if to == rules.ZoneDeck {
		p.Deck = append([]string{card}, p.Deck...)
		return
	}
	dst := p.zonePtr(to)
	if dst == nil {
		dst = &p.Discard
	}
	*dst = append(*dst, card)
}

func gainDestination(z rules.Zone) rules.Zone {
	switch z {
	case rules.ZoneHand, rules.ZoneDeck:
		return z
	}
	return rules.ZoneDiscard
}

func clampZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
