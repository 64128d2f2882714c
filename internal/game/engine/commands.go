package engine

import (
	"go.uber.org/zap"

	"github.com/kingdomforge/kingdom-server-go/internal/game/cards"
	"github.com/kingdomforge/kingdom-server-go/internal/game/decision"
	"github.com/kingdomforge/kingdom-server-go/internal/game/effects"
	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
	"github.com/kingdomforge/kingdom-server-go/internal/game/state"
)

// PlayAction plays an Action card from the active player's hand.
func (g *Game) PlayAction(player, card string) (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkTurn(player, rules.PhaseAction); err != nil {
		return g.rejected("play_action", player, err)
	}
	def, ok := cards.Lookup(card)
	if !ok {
		return g.rejected("play_action", player, reject(CodeUnknownCard, "unknown card %q", card))
	}
	if !def.Is(cards.TypeAction) {
		return g.rejected("play_action", player, reject(CodeWrongCardType, "%s is not an Action card", card))
	}
	if !g.state.Player(player).Has(rules.ZoneHand, card) {
		return g.rejected("play_action", player, reject(CodeCardNotInHand, "%s is not in hand", card))
	}
	if g.state.Actions <= 0 {
		return g.rejected("play_action", player, reject(CodeInsufficientActions, "no actions left"))
	}

	b := g.begin()
	played := b.emitOne(rules.NewMoveEvent(rules.EventCardPlayed, player, card, rules.ZoneHand, rules.ZoneInPlay, ""))
	b.emit(
		rules.NewEventWithAmount(rules.EventActionsChanged, player, -1, played.ID),
		rules.NewEvent(rules.EventResolveQueued, player, card, played.ID),
	)
	b.drain()
	return g.accepted("play_action", player, b), nil
}

// PlayTreasure plays a Treasure card from the active player's hand.
func (g *Game) PlayTreasure(player, card string) (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkTurn(player, rules.PhaseBuy); err != nil {
		return g.rejected("play_treasure", player, err)
	}
	def, ok := cards.Lookup(card)
	if !ok {
		return g.rejected("play_treasure", player, reject(CodeUnknownCard, "unknown card %q", card))
	}
	if !def.Is(cards.TypeTreasure) {
		return g.rejected("play_treasure", player, reject(CodeWrongCardType, "%s is not a Treasure card", card))
	}
	if !g.state.Player(player).Has(rules.ZoneHand, card) {
		return g.rejected("play_treasure", player, reject(CodeCardNotInHand, "%s is not in hand", card))
	}

	b := g.begin()
	b.playTreasure(player, card)
	return g.accepted("play_treasure", player, b), nil
}

// PlayAllTreasures plays every Treasure in the active player's hand, in hand
// order.
func (g *Game) PlayAllTreasures(player string) (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkTurn(player, rules.PhaseBuy); err != nil {
		return g.rejected("play_all_treasures", player, err)
	}

	b := g.begin()
	for _, card := range append([]string(nil), b.state.Player(player).Hand...) {
		if cards.IsType(card, cards.TypeTreasure) {
			b.playTreasure(player, card)
		}
	}
	return g.accepted("play_all_treasures", player, b), nil
}

func (b *batch) playTreasure(player, card string) {
	played := b.emitOne(rules.NewMoveEvent(rules.EventCardPlayed, player, card, rules.ZoneHand, rules.ZoneInPlay, ""))
	b.emit(rules.NewEventWithAmount(rules.EventCoinsChanged, player, cards.Get(card).Benefit.Coins, played.ID))
	if bonus := b.state.Player(player).TreasureBonus[card]; bonus > 0 {
		cashed := rules.NewEvent(rules.EventTreasureBonusCashed, player, card, played.ID)
		cashed.Amount = bonus
		b.emit(
			rules.NewEventWithAmount(rules.EventCoinsChanged, player, bonus, played.ID),
			cashed,
		)
	}
}

// BuyCard buys a card from the supply.
func (g *Game) BuyCard(player, card string) (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkTurn(player, rules.PhaseBuy); err != nil {
		return g.rejected("buy_card", player, err)
	}
	def, ok := cards.Lookup(card)
	if !ok || !g.state.InSupply(card) {
		return g.rejected("buy_card", player, reject(CodeUnknownCard, "%q is not in the supply", card))
	}
	if g.state.SupplyCount(card) <= 0 {
		return g.rejected("buy_card", player, reject(CodeSupplyEmpty, "%s pile is empty", card))
	}
	if g.state.Buys <= 0 {
		return g.rejected("buy_card", player, reject(CodeNoBuys, "no buys left"))
	}
	if g.state.Coins < def.Cost {
		return g.rejected("buy_card", player, reject(CodeInsufficientCoins, "%s costs %d, have %d", card, def.Cost, g.state.Coins))
	}

	b := g.begin()
	bought := rules.NewEvent(rules.EventCardBought, player, card, "")
	bought.Amount = def.Cost
	root := b.emitOne(bought)
	b.emit(state.GainEvents(b.state, player, card, rules.ZoneDiscard, root.ID)...)
	return g.accepted("buy_card", player, b), nil
}

// EndPhase moves from Action to Buy, or ends the turn from Buy.
func (g *Game) EndPhase(player string) (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.checkTurn(player, rules.PhaseNone); err != nil {
		return g.rejected("end_phase", player, err)
	}

	b := g.begin()
	switch g.state.Phase {
	case rules.PhaseAction:
		b.emit(rules.Event{Type: rules.EventPhaseChanged, Player: player, Phase: rules.PhaseBuy})
	case rules.PhaseBuy:
		b.cleanup(player)
	default:
		return g.rejected("end_phase", player, reject(CodeWrongPhase, "cannot end phase %s", g.state.Phase))
	}
	return g.accepted("end_phase", player, b), nil
}

// SubmitDecision answers the pending choice and resumes the card that asked.
func (g *Game) SubmitDecision(player string, selection []string) (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.GameOver {
		return g.rejected("submit_decision", player, reject(CodeGameOver, "game is over"))
	}
	pending := g.state.Pending
	if pending == nil {
		return g.rejected("submit_decision", player, reject(CodeNoPendingDecision, "nothing to answer"))
	}
	if pending.Player != player {
		return g.rejected("submit_decision", player, reject(CodeWrongPlayer, "waiting for %s", pending.Player))
	}
	if err := decision.Validate(pending, selection); err != nil {
		return g.rejected("submit_decision", player, reject(CodeInvalidSelection, "%v", err))
	}

	pending = pending.Clone()
	b := g.begin()
	resolved := rules.NewEvent(rules.EventDecisionResolved, player, pending.Card, pending.Source)
	resolved.Cards = append([]string{}, selection...)
	b.emit(resolved)

	res := effects.Resolve(pending.Card, effects.Input{
		State:  b.state,
		Player: pending.Controller,
		Stage:  pending.Stage,
		Decision: &effects.Decision{
			Selection: append([]string(nil), selection...),
			Metadata:  pending.Metadata,
			Responder: player,
		},
		Source: pending.Source,
	})
	if !b.apply(pending.Controller, pending.Source, res) {
		b.drain()
	}
	return g.accepted("submit_decision", player, b), nil
}

// checkTurn validates the common preconditions of a turn command. PhaseNone
// accepts any phase.
func (g *Game) checkTurn(player string, phase rules.Phase) error {
	s := g.state
	switch {
	case s.GameOver:
		return reject(CodeGameOver, "game is over")
	case s.Pending != nil:
		return reject(CodeDecisionPending, "waiting for %s to choose for %s", s.Pending.Player, s.Pending.Card)
	case s.Player(player) == nil || s.Active != player:
		return reject(CodeNotYourTurn, "it is %s's turn", s.Active)
	case phase != rules.PhaseNone && s.Phase != phase:
		return reject(CodeWrongPhase, "phase is %s, need %s", s.Phase, phase)
	}
	return nil
}

func (g *Game) rejected(command, player string, err error) (Result, error) {
	if g.logger != nil {
		g.logger.Debug("command rejected",
			zap.String("game_id", g.id),
			zap.String("command", command),
			zap.String("player", player),
			zap.Error(err),
		)
	}
	return Result{}, err
}

func (g *Game) accepted(command, player string, b *batch) Result {
	res := g.commit(b)
	if g.logger != nil {
		g.logger.Debug("command applied",
			zap.String("game_id", g.id),
			zap.String("command", command),
			zap.String("player", player),
			zap.Int("events", len(res.Events)),
			zap.Uint64("seq", g.state.LastSeq),
		)
	}
	return res
}
