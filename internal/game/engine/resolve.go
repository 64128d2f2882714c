package engine

import (
	"github.com/kingdomforge/kingdom-server-go/internal/game/cards"
	"github.com/kingdomforge/kingdom-server-go/internal/game/effects"
	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
	"github.com/kingdomforge/kingdom-server-go/internal/game/state"
)

// drain resolves queued cards until the queue is empty or a card asks for
// input.
func (b *batch) drain() {
	for !b.state.GameOver && b.state.Pending == nil && len(b.state.Queue) > 0 {
		item := b.state.Queue[0]
		b.emit(rules.NewEvent(rules.EventResolveStarted, item.Player, item.Card, item.Source))
		res := b.start(item)
		if b.apply(item.Player, item.Source, res) {
			return
		}
	}
}

// start grants the card's fixed benefit, works out attack targets and makes
// the resolver's first call.
func (b *batch) start(item state.WorkItem) effects.Result {
	def := cards.Get(item.Card)
	if def == nil {
		return effects.Result{}
	}
	b.benefit(item.Player, def.Benefit, item.Source)

	var targets []string
	if def.Is(cards.TypeAttack) {
		targets = b.attackTargets(item)
	}
	return effects.Resolve(item.Card, effects.Input{
		State:   b.state,
		Player:  item.Player,
		Targets: targets,
		Source:  item.Source,
	})
}

func (b *batch) benefit(player string, benefit cards.Benefit, source string) {
	if benefit.IsZero() {
		return
	}
	if benefit.Cards > 0 {
		b.emit(state.DrawEvents(b.state, player, benefit.Cards, source)...)
	}
	if benefit.Actions != 0 {
		b.emit(rules.NewEventWithAmount(rules.EventActionsChanged, player, benefit.Actions, source))
	}
	if benefit.Buys != 0 {
		b.emit(rules.NewEventWithAmount(rules.EventBuysChanged, player, benefit.Buys, source))
	}
	if benefit.Coins != 0 {
		b.emit(rules.NewEventWithAmount(rules.EventCoinsChanged, player, benefit.Coins, source))
	}
}

// attackTargets lists the other players in turn order, leaving out anyone
// holding a card that blocks attacks.
func (b *batch) attackTargets(item state.WorkItem) []string {
	var targets []string
	for _, opponent := range rules.OthersInTurnOrder(b.state.Order, item.Player) {
		if blocker := blockingCard(b.state.Player(opponent)); blocker != "" {
			b.emit(rules.NewEvent(rules.EventAttackBlocked, opponent, blocker, item.Source))
			continue
		}
		targets = append(targets, opponent)
	}
	return targets
}

func blockingCard(p *state.PlayerState) string {
	if p == nil {
		return ""
	}
	for _, card := range p.Hand {
		if def := cards.Get(card); def != nil && def.Reaction == cards.ReactionBlockAttack {
			return card
		}
	}
	return ""
}

// apply records a resolver result and reports whether it paused for input.
func (b *batch) apply(player, source string, res effects.Result) bool {
	b.emit(res.Events...)

	if res.Play != nil {
		b.playIntent(player, source, *res.Play)
	}
	if res.Paused() {
		required := rules.NewEvent(rules.EventDecisionRequired, res.Pending.Player, res.Pending.Card, source)
		required.Choice = res.Pending.Clone()
		b.emit(required)
		return true
	}
	return false
}

// playIntent plays a card on behalf of a resolver and queues its resolution
// the requested number of times.
func (b *batch) playIntent(player, source string, intent effects.PlayIntent) {
	if !cards.IsType(intent.Card, cards.TypeAction) || intent.Times <= 0 {
		return
	}
	from := intent.From
	if from == rules.ZoneNone {
		from = rules.ZoneHand
	}
	if !b.state.Player(player).Has(from, intent.Card) {
		return
	}
	played := b.emitOne(rules.NewMoveEvent(rules.EventCardPlayed, player, intent.Card, from, rules.ZoneInPlay, source))
	for i := 0; i < intent.Times; i++ {
		b.emit(rules.NewEvent(rules.EventResolveQueued, player, intent.Card, played.ID))
	}
}

// cleanup ends the turn, draws the next hand and either ends the game or
// starts the next player's turn.
func (b *batch) cleanup(player string) {
	ended := b.emitOne(rules.NewEvent(rules.EventTurnEnded, player, "", ""))
	b.emit(state.DrawEvents(b.state, player, handSize, ended.ID)...)

	if gameOver(b.state) {
		scores := Scores(b.state)
		final := rules.NewEvent(rules.EventGameEnded, Winner(b.state, scores), "", ended.ID)
		final.Scores = scores
		b.emit(final)
		return
	}
	next := rules.NextPlayer(b.state.Order, player)
	b.emit(rules.NewEventWithAmount(rules.EventTurnStarted, next, b.state.Turn+1, ended.ID))
}

const endingPiles = 3

func gameOver(s *state.GameState) bool {
	return s.SupplyCount(cards.Province) <= 0 || s.EmptyPiles() >= endingPiles
}

// Scores returns every player's victory points across all their zones.
func Scores(s *state.GameState) map[string]int {
	scores := make(map[string]int, len(s.Order))
	for _, id := range s.Order {
		scores[id] = cards.VictoryPoints(s.Player(id).AllCards())
	}
	return scores
}

// Winner picks the highest score. Ties go to the player who took fewer
// turns, then to the earlier seat. This is the base-set rulebook tie-break:
// when the game ends on an earlier seat's turn, later seats with equal points
// have taken one turn fewer and win.
func Winner(s *state.GameState, scores map[string]int) string {
	winner := ""
	for _, id := range s.Order {
		if winner == "" {
			winner = id
			continue
		}
		switch {
		case scores[id] > scores[winner]:
			winner = id
		case scores[id] == scores[winner] && s.Player(id).TurnsTaken < s.Player(winner).TurnsTaken:
			winner = id
		}
	}
	return winner
}
