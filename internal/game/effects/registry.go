package effects

import (
	"fmt"
	"sort"

	"github.com/kingdomforge/kingdom-server-go/internal/game/cards"
)

// registry maps every action card to its stage table. Cards whose whole
// effect is their fixed benefit resolve with noop.
var registry = map[string]Stages{
	"Artisan":      artisan,
	"Bandit":       bandit,
	"Bureaucrat":   bureaucrat,
	"Cellar":       cellar,
	"Chapel":       chapel,
	"Council Room": councilRoom,
	"Festival":     single(noop),
	"Harbinger":    harbinger,
	"Laboratory":   single(noop),
	"Library":      library,
	"Market":       single(noop),
	"Merchant":     merchant,
	"Militia":      militia,
	"Mine":         mine,
	"Moat":         single(noop),
	"Moneylender":  moneylender,
	"Poacher":      poacher,
	"Remodel":      remodel,
	"Sentry":       sentry,
	"Smithy":       single(noop),
	"Throne Room":  throneRoom,
	"Vassal":       vassal,
	"Village":      single(noop),
	"Witch":        witch,
	"Workshop":     workshop,
}

func init() {
	if missing := Missing(); len(missing) > 0 {
		panic(fmt.Sprintf("effects: action cards without a resolver: %v", missing))
	}
}

// Missing lists catalog action cards that have no stage table, or whose
// catalog decision stage is not handled.
func Missing() []string {
	var missing []string
	for _, def := range cards.All() {
		if !def.Is(cards.TypeAction) {
			continue
		}
		st, ok := registry[def.Name]
		if !ok || (def.Decision != nil && !st.Has(def.Decision.Stage)) {
			missing = append(missing, def.Name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Lookup returns the stage table for card.
func Lookup(card string) (Stages, bool) {
	st, ok := registry[card]
	return st, ok
}

// Resolve runs card's resolver. Unknown cards resolve to an empty result.
func Resolve(card string, in Input) Result {
	st, ok := registry[card]
	if !ok {
		return Result{}
	}
	in.Card = card
	return st.Resolve(in)
}
