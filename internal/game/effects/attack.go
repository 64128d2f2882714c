package effects

import (
	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
)

// Attack sequences an effect across opponents one decision at a time.
//
// Filter inspects an opponent and reports whether they must be asked; it may
// emit events for opponents that need no decision. The data it returns is
// carried through the choice metadata. Decide builds the choice and Process
// applies the answer.
type Attack struct {
	Stage   string
	Filter  func(e *effect, opponent string) (data rules.Metadata, ask bool)
	Decide  func(e *effect, opponent string, data rules.Metadata) *rules.PendingChoice
	Process func(e *effect, opponent string, selection []string, data rules.Metadata)
}

// Start scans targets in order.
func (a Attack) Start(e *effect, targets []string) Result {
	return a.scan(e, targets)
}

// Resume applies the answer in the input decision and continues with the
// opponents that were still remaining.
func (a Attack) Resume(e *effect) Result {
	d := e.in.Decision
	if d == nil {
		return e.done()
	}
	data := d.Metadata.Clone()
	remaining := data.List(rules.MetaRemaining)
	delete(data, rules.MetaRemaining)
	if e.player(d.Responder) != nil {
		a.Process(e, d.Responder, d.Selection, data)
	}
	return a.scan(e, remaining)
}

func (a Attack) scan(e *effect, opponents []string) Result {
	for i, opponent := range opponents {
		if e.player(opponent) == nil {
			continue
		}
		data, ask := a.Filter(e, opponent)
		if !ask {
			continue
		}
		choice := a.Decide(e, opponent, data)
		if choice == nil {
			continue
		}
		choice.Stage = a.Stage
		choice.Metadata = mergeMeta(choice.Metadata, data).WithList(rules.MetaRemaining, opponents[i+1:])
		return e.pause(choice)
	}
	return e.done()
}

func mergeMeta(base, extra rules.Metadata) rules.Metadata {
	merged := base.Clone()
	if merged == nil {
		merged = make(rules.Metadata, len(extra))
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
