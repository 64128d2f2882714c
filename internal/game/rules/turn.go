package rules

import (
	"fmt"
)

// Phase represents the phases of a turn.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseAction
	PhaseBuy
	PhaseCleanup
)

var phaseNames = map[Phase]string{
	PhaseNone:    "NONE",
	PhaseAction:  "ACTION",
	PhaseBuy:     "BUY",
	PhaseCleanup: "CLEANUP",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// Zone identifies where a card is.
type Zone int

const (
	ZoneNone Zone = iota
	ZoneDeck
	ZoneHand
	ZoneDiscard
	ZoneInPlay
	ZoneSupply
	ZoneTrash
	ZoneSetAside
	ZoneRevealed
)

var zoneNames = map[Zone]string{
	ZoneNone:     "NONE",
	ZoneDeck:     "DECK",
	ZoneHand:     "HAND",
	ZoneDiscard:  "DISCARD",
	ZoneInPlay:   "IN_PLAY",
	ZoneSupply:   "SUPPLY",
	ZoneTrash:    "TRASH",
	ZoneSetAside: "SET_ASIDE",
	ZoneRevealed: "REVEALED",
}

func (z Zone) String() string {
	if name, ok := zoneNames[z]; ok {
		return name
	}
	return fmt.Sprintf("ZONE_%d", int(z))
}

// NextPlayer returns the player seated after current, wrapping around.
// An unknown current player yields the first seat.
func NextPlayer(order []string, current string) string {
	if len(order) == 0 {
		return ""
	}
	for i, id := range order {
		if id == current {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}

// OthersInTurnOrder returns every player except playerID, starting with the
// player to their left and continuing around the table.
func OthersInTurnOrder(order []string, playerID string) []string {
	start := -1
	for i, id := range order {
		if id == playerID {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}
	others := make([]string, 0, len(order)-1)
	for i := 1; i < len(order); i++ {
		others = append(others, order[(start+i)%len(order)])
	}
	return others
}
