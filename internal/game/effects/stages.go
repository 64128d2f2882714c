// Package effects resolves card rules. Resolvers are pure: they read the state
// they are given and describe what happens as events, a pending choice when
// they need input, or a play intent for the engine to carry out.
package effects

import (
	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
	"github.com/kingdomforge/kingdom-server-go/internal/game/state"
)

// StageStart is the stage key of a resolver's first call.
const StageStart = "start"

// Decision is a player's answer to a pending choice, handed back to the
// resolver that asked for it.
type Decision struct {
	Selection []string
	Metadata  rules.Metadata // carried from the pending choice
	Responder string
}

// Input is everything a resolver may read.
type Input struct {
	State    *state.GameState
	Player   string // whose card is resolving
	Card     string
	Stage    string
	Decision *Decision
	Targets  []string // attack targets in turn order, after reactions
	Source   string   // ID of the CARD_PLAYED event being resolved
}

// Initial reports whether this is the first call for the card.
func (in Input) Initial() bool {
	return in.Stage == "" && in.Decision == nil
}

// PlayIntent asks the engine to play a card on the resolver's behalf.
type PlayIntent struct {
	Card  string
	From  rules.Zone
	Times int
}

// Result is what a resolver returns.
type Result struct {
	Events  []rules.Event
	Pending *rules.PendingChoice
	Play    *PlayIntent
}

// Paused reports whether the resolver is waiting for input.
func (r Result) Paused() bool {
	return r.Pending != nil
}

// Resolver handles one stage of a card.
type Resolver func(Input) Result

// Stages is a card's resolver table keyed by stage name.
type Stages map[string]Resolver

// Resolve routes the call to the matching stage. Initial calls go to
// StageStart; a stage with no handler resolves to an empty result.
func (st Stages) Resolve(in Input) Result {
	key := in.Stage
	if in.Initial() {
		key = StageStart
	}
	handler, ok := st[key]
	if !ok {
		return Result{}
	}
	return handler(in)
}

// Has reports whether the table handles stage.
func (st Stages) Has(stage string) bool {
	_, ok := st[stage]
	return ok
}

func single(fn Resolver) Stages {
	return Stages{StageStart: fn}
}

func noop(Input) Result {
	return Result{}
}
