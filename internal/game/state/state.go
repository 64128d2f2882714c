// Package state holds the projected game state and the reducer that builds it
// from the event log.
package state

import (
	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
)

// PlayerState holds one player's zones. Deck index 0 is the top of the deck;
// the last discard entry is the top of the discard pile.
type PlayerState struct {
	ID       string
	Hand     []string
	Deck     []string
	Discard  []string
	InPlay   []string
	SetAside []string
	Revealed []string

	TurnsTaken    int
	TreasureBonus map[string]int // coins added the next time the named treasure is played
}

// WorkItem is a queued card resolution waiting for the engine.
type WorkItem struct {
	Player string
	Card   string
	Source string // ID of the CARD_PLAYED event the resolution belongs to
}

// GameState is the projection of a game's event log.
type GameState struct {
	GameID  string
	Seed    uint64
	Order   []string
	Players map[string]*PlayerState
	Supply  map[string]int
	Kingdom []string
	Trash   []string

	Turn    int
	Active  string
	Phase   rules.Phase
	Actions int
	Buys    int
	Coins   int

	Pending  *rules.PendingChoice
	Queue    []WorkItem
	Shuffles int

	Started  bool
	GameOver bool
	Winner   string
	Scores   map[string]int

	LastSeq uint64
}

// New returns the empty state that every projection starts from.
func New() *GameState {
	return &GameState{
		Players: make(map[string]*PlayerState),
		Supply:  make(map[string]int),
	}
}

// Player returns the named player's state, or nil.
func (s *GameState) Player(id string) *PlayerState {
	if s == nil {
		return nil
	}
	return s.Players[id]
}

// SupplyCount returns the remaining count of a pile; unknown piles read as zero.
func (s *GameState) SupplyCount(card string) int {
	return s.Supply[card]
}

// InSupply reports whether the game was set up with a pile for card.
func (s *GameState) InSupply(card string) bool {
	_, ok := s.Supply[card]
	return ok
}

// EmptyPiles returns the number of supply piles at zero.
func (s *GameState) EmptyPiles() int {
	n := 0
	for _, count := range s.Supply {
		if count <= 0 {
			n++
		}
	}
	return n
}

// AllCards returns every card the player owns across all zones.
func (p *PlayerState) AllCards() []string {
	if p == nil {
		return nil
	}
	all := make([]string, 0, len(p.Hand)+len(p.Deck)+len(p.Discard)+len(p.InPlay)+len(p.SetAside)+len(p.Revealed))
	all = append(all, p.Hand...)
	all = append(all, p.Deck...)
	all = append(all, p.Discard...)
	all = append(all, p.InPlay...)
	all = append(all, p.SetAside...)
	all = append(all, p.Revealed...)
	return all
}

// Zone returns the cards in the given zone. Shared zones (supply, trash) and
// unknown zones return nil.
func (p *PlayerState) Zone(z rules.Zone) []string {
	if p == nil {
		return nil
	}
	switch z {
	case rules.ZoneHand:
		return p.Hand
	case rules.ZoneDeck:
		return p.Deck
	case rules.ZoneDiscard:
		return p.Discard
	case rules.ZoneInPlay:
		return p.InPlay
	case rules.ZoneSetAside:
		return p.SetAside
	case rules.ZoneRevealed:
		return p.Revealed
	}
	return nil
}

func (p *PlayerState) zonePtr(z rules.Zone) *[]string {
	switch z {
	case rules.ZoneHand:
		return &p.Hand
	case rules.ZoneDeck:
		return &p.Deck
	case rules.ZoneDiscard:
		return &p.Discard
	case rules.ZoneInPlay:
		return &p.InPlay
	case rules.ZoneSetAside:
		return &p.SetAside
	case rules.ZoneRevealed:
		return &p.Revealed
	}
	return nil
}

// Has reports whether card is present in the zone.
func (p *PlayerState) Has(z rules.Zone, card string) bool {
	return indexOf(p.Zone(z), card) >= 0
}

// Clone returns a deep copy of the state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Order = cloneStrings(s.Order)
	cp.Kingdom = cloneStrings(s.Kingdom)
	cp.Trash = cloneStrings(s.Trash)
	cp.Supply = cloneCounts(s.Supply)
	cp.Scores = cloneCounts(s.Scores)
	cp.Pending = s.Pending.Clone()
	if s.Queue != nil {
		cp.Queue = append([]WorkItem(nil), s.Queue...)
	}
	cp.Players = make(map[string]*PlayerState, len(s.Players))
	for id, p := range s.Players {
		cp.Players[id] = p.clone()
	}
	return &cp
}

func (p *PlayerState) clone() *PlayerState {
	cp := *p
	cp.Hand = cloneStrings(p.Hand)
	cp.Deck = cloneStrings(p.Deck)
	cp.Discard = cloneStrings(p.Discard)
	cp.InPlay = cloneStrings(p.InPlay)
	cp.SetAside = cloneStrings(p.SetAside)
	cp.Revealed = cloneStrings(p.Revealed)
	cp.TreasureBonus = cloneCounts(p.TreasureBonus)
	return &cp
}

func cloneStrings(src []string) []string {
	if src == nil {
		return nil
	}
	return append([]string(nil), src...)
}

func cloneCounts(src map[string]int) map[string]int {
	if src == nil {
		return nil
	}
	cp := make(map[string]int, len(src))
	for k, v := range src {
		cp[k] = v
	}
	return cp
}

func indexOf(cards []string, card string) int {
	for i, c := range cards {
		if c == card {
			return i
		}
	}
	return -1
}

// removeCard removes the first occurrence of card and reports whether it was found.
func removeCard(cards *[]string, card string) bool {
	i := indexOf(*cards, card)
	if i < 0 {
		return false
	}
	*cards = append((*cards)[:i:i], (*cards)[i+1:]...)
	if len(*cards) == 0 {
		*cards = nil
	}
	return true
}
