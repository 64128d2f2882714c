// Package decision describes the choices cards ask players to make and
// checks the answers against them.
package decision

import (
	"sort"

	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
	"github.com/kingdomforge/kingdom-server-go/internal/game/state"
)

// Context is what dynamic spec fields are evaluated against.
type Context struct {
	State  *state.GameState
	Player string // who will answer
	Stage  string
	Meta   rules.Metadata
}

// Text produces a prompt.
type Text func(Context) string

// CardList produces the selectable options.
type CardList func(Context) []string

// Number produces a selection bound.
type Number func(Context) int

// Meta produces metadata to carry into the next stage.
type Meta func(Context) rules.Metadata

// Spec is a declarative description of one choice. Nil fields fall back to
// an empty prompt, no options, zero bounds and the context metadata.
type Spec struct {
	Stage    string
	From     rules.Zone
	Prompt   Text
	Options  CardList
	Min      Number
	Max      Number
	Metadata Meta
}

// Say returns a constant prompt.
func Say(prompt string) Text {
	return func(Context) string { return prompt }
}

// Lit returns a constant bound.
func Lit(n int) Number {
	return func(Context) int { return n }
}

// All returns the number of options, for "any number" choices.
func All() Number {
	return func(ctx Context) int { return -1 }
}

// Fixed returns a constant option list.
func Fixed(cards ...string) CardList {
	list := append([]string(nil), cards...)
	return func(Context) []string { return append([]string(nil), list...) }
}

// Filter selects cards for Hand and Supply options.
type Filter func(ctx Context, card string) bool

// Any accepts every card.
func Any(Context, string) bool { return true }

// Hand lists the cards in the answering player's hand that pass filter, in
// hand order. Duplicates are kept so each copy can be selected.
func Hand(filter Filter) CardList {
	return Zone(rules.ZoneHand, filter)
}

// Zone lists the cards in one of the answering player's zones that pass filter.
func Zone(zone rules.Zone, filter Filter) CardList {
	return func(ctx Context) []string {
		p := ctx.State.Player(ctx.Player)
		if p == nil {
			return []string{}
		}
		options := []string{}
		for _, card := range p.Zone(zone) {
			if filter == nil || filter(ctx, card) {
				options = append(options, card)
			}
		}
		return options
	}
}

// Supply lists supply piles that pass filter, sorted by name. Empty piles are
// listed too; gaining from them has no effect.
func Supply(filter Filter) CardList {
	return func(ctx Context) []string {
		if ctx.State == nil {
			return []string{}
		}
		options := []string{}
		for card := range ctx.State.Supply {
			if filter == nil || filter(ctx, card) {
				options = append(options, card)
			}
		}
		sort.Strings(options)
		return options
	}
}

// Build evaluates spec for ctx. Bounds are clamped to the number of options
// and Min never exceeds Max.
func Build(spec *Spec, ctx Context) *rules.PendingChoice {
	if spec == nil {
		return nil
	}
	if ctx.Stage == "" {
		ctx.Stage = spec.Stage
	}
	choice := &rules.PendingChoice{
		Player:  ctx.Player,
		Stage:   spec.Stage,
		From:    spec.From,
		Options: []string{},
	}
	if spec.Prompt != nil {
		choice.Prompt = spec.Prompt(ctx)
	}
	if spec.Options != nil {
		choice.Options = spec.Options(ctx)
	}
	n := len(choice.Options)
	choice.Max = n
	if spec.Max != nil {
		if max := spec.Max(ctx); max >= 0 && max < n {
			choice.Max = max
		}
	}
	if spec.Min != nil {
		choice.Min = spec.Min(ctx)
		if choice.Min < 0 || choice.Min > choice.Max {
			choice.Min = choice.Max
		}
	}
	if spec.Metadata != nil {
		choice.Metadata = spec.Metadata(ctx)
	} else {
		choice.Metadata = ctx.Meta.Clone()
	}
	return choice
}
