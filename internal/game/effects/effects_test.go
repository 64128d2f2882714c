package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingdomforge/kingdom-server-go/internal/game/cards"
	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
	"github.com/kingdomforge/kingdom-server-go/internal/game/state"
)

func fixture(players ...*state.PlayerState) *state.GameState {
	s := state.New()
	s.Seed = 99
	for _, p := range players {
		s.Players[p.ID] = p
		s.Order = append(s.Order, p.ID)
	}
	s.Active = players[0].ID
	s.Phase = rules.PhaseAction
	s.Supply = cards.NewSupply([]string{"Cellar", "Mine", "Militia", "Village", "Smithy", "Library", "Sentry", "Artisan", "Bandit", "Throne Room"}, len(players))
	return s
}

func resume(in Input, pending *rules.PendingChoice, selection ...string) Input {
	in.State = state.ApplyAll(in.State, nil)
	in.Stage = pending.Stage
	in.Decision = &Decision{Selection: selection, Metadata: pending.Metadata, Responder: pending.Player}
	return in
}

func types(events []rules.Event) []rules.EventType {
	out := make([]rules.EventType, len(events))
	for i, evt := range events {
		out[i] = evt.Type
	}
	return out
}

func TestRegistryCoversCatalog(t *testing.T) {
	assert.Empty(t, Missing())
	for _, def := range cards.All() {
		_, ok := Lookup(def.Name)
		assert.Equal(t, def.Is(cards.TypeAction), ok, def.Name)
	}
}

func TestUnknownStageIsEmpty(t *testing.T) {
	s := fixture(&state.PlayerState{ID: "a", Hand: []string{cards.Copper}})
	res := Resolve("Cellar", Input{State: s, Player: "a", Stage: "nonexistent", Decision: &Decision{}})
	assert.Equal(t, Result{}, res)
	assert.Equal(t, Result{}, Resolve("Platinum", Input{State: s, Player: "a"}))
}

func TestCellarDiscardThenDraw(t *testing.T) {
	s := fixture(&state.PlayerState{
		ID:   "a",
		Hand: []string{cards.Estate, cards.Estate, cards.Estate, cards.Copper, cards.Silver},
		Deck: []string{cards.Gold, cards.Copper, cards.Copper},
	})
	in := Input{State: s, Player: "a", Source: "play-1"}

	first := Resolve("Cellar", in)
	require.True(t, first.Paused())
	assert.Empty(t, first.Events)
	assert.Equal(t, "discard", first.Pending.Stage)
	assert.Equal(t, 0, first.Pending.Min)
	assert.Equal(t, 5, first.Pending.Max)
	assert.Equal(t, "play-1", first.Pending.Source)
	assert.Equal(t, "Cellar", first.Pending.Card)

	second := Resolve("Cellar", resume(in, first.Pending, cards.Estate, cards.Estate))
	assert.False(t, second.Paused())
	assert.Equal(t, []rules.EventType{
		rules.EventCardDiscarded, rules.EventCardDiscarded,
		rules.EventCardDrawn, rules.EventCardDrawn,
	}, types(second.Events))
	for _, evt := range second.Events {
		assert.Equal(t, "play-1", evt.CausedBy)
	}

	after := state.ApplyAll(s, second.Events)
	hand := after.Player("a").Hand
	assert.Len(t, hand, 5)
	estates := 0
	for _, card := range hand {
		if card == cards.Estate {
			estates++
		}
	}
	assert.Equal(t, 1, estates)
}

func TestCellarDrawsFromPostDiscardState(t *testing.T) {
	s := fixture(&state.PlayerState{ID: "a", Hand: []string{cards.Estate, cards.Estate}})
	in := Input{State: s, Player: "a"}
	first := Resolve("Cellar", in)
	require.NotNil(t, first.Pending)

	res := Resolve("Cellar", resume(in, first.Pending, cards.Estate, cards.Estate))
	assert.Equal(t, []rules.EventType{
		rules.EventCardDiscarded, rules.EventCardDiscarded,
		rules.EventDeckShuffled,
		rules.EventCardDrawn, rules.EventCardDrawn,
	}, types(res.Events))
}

func TestMineGainOptions(t *testing.T) {
	s := fixture(&state.PlayerState{ID: "a", Hand: []string{cards.Copper, cards.Estate}})
	in := Input{State: s, Player: "a"}

	first := Resolve("Mine", in)
	require.NotNil(t, first.Pending)
	assert.Equal(t, []string{cards.Copper}, first.Pending.Options)

	second := Resolve("Mine", resume(in, first.Pending, cards.Copper))
	require.NotNil(t, second.Pending)
	require.Len(t, second.Events, 1)
	assert.Equal(t, rules.EventCardTrashed, second.Events[0].Type)
	assert.Equal(t, "gain", second.Pending.Stage)
	assert.Equal(t, 3, second.Pending.Metadata.Int(rules.MetaMaxCost))
	assert.Equal(t, []string{cards.Copper, cards.Silver}, second.Pending.Options)

	in.State = state.ApplyAll(s, second.Events)
	third := Resolve("Mine", resume(in, second.Pending, cards.Silver))
	require.Len(t, third.Events, 1)
	assert.Equal(t, rules.EventCardGained, third.Events[0].Type)
	assert.Equal(t, rules.ZoneHand, third.Events[0].To)
	assert.Nil(t, third.Pending)
}

func TestRemodelRejectsOverpricedGain(t *testing.T) {
	s := fixture(&state.PlayerState{ID: "a", Hand: []string{cards.Estate}})
	in := Input{State: s, Player: "a"}
	first := Resolve("Remodel", in)
	second := Resolve("Remodel", resume(in, first.Pending, cards.Estate))
	require.NotNil(t, second.Pending)
	assert.Contains(t, second.Pending.Options, "Smithy")
	assert.NotContains(t, second.Pending.Options, cards.Gold)

	in.State = state.ApplyAll(s, second.Events)
	third := Resolve("Remodel", resume(in, second.Pending, cards.Gold))
	assert.Empty(t, third.Events)
}

func TestMilitiaTwoOpponentChain(t *testing.T) {
	five := func() []string {
		return []string{cards.Copper, cards.Copper, cards.Estate, cards.Silver, cards.Estate}
	}
	s := fixture(
		&state.PlayerState{ID: "me", Hand: []string{"Militia"}},
		&state.PlayerState{ID: "A", Hand: five()},
		&state.PlayerState{ID: "B", Hand: five()},
	)
	in := Input{State: s, Player: "me", Targets: []string{"A", "B"}, Source: "militia"}

	first := Resolve("Militia", in)
	require.NotNil(t, first.Pending)
	assert.Equal(t, "A", first.Pending.Player)
	assert.Equal(t, "me", first.Pending.Controller)
	assert.Equal(t, []string{"B"}, first.Pending.Metadata.List(rules.MetaRemaining))
	assert.Equal(t, 2, first.Pending.Min)
	assert.Equal(t, 2, first.Pending.Max)

	second := Resolve("Militia", resume(in, first.Pending, cards.Estate, cards.Estate))
	require.NotNil(t, second.Pending)
	assert.Equal(t, "B", second.Pending.Player)
	assert.Equal(t, []string{}, second.Pending.Metadata.List(rules.MetaRemaining))
	require.Len(t, second.Events, 2)
	assert.Equal(t, "A", second.Events[0].Player)

	in.State = state.ApplyAll(s, second.Events)
	third := Resolve("Militia", resume(in, second.Pending, cards.Copper, cards.Copper))
	assert.Nil(t, third.Pending)
	require.Len(t, third.Events, 2)
	assert.Equal(t, "B", third.Events[0].Player)
}

func TestMilitiaSkipsSmallHandsAndMissingPlayers(t *testing.T) {
	s := fixture(
		&state.PlayerState{ID: "me"},
		&state.PlayerState{ID: "A", Hand: []string{cards.Copper, cards.Copper, cards.Copper}},
		&state.PlayerState{ID: "B", Hand: []string{cards.Copper, cards.Copper, cards.Copper, cards.Copper}},
	)
	res := Resolve("Militia", Input{State: s, Player: "me", Targets: []string{"ghost", "A", "B"}})
	require.NotNil(t, res.Pending)
	assert.Equal(t, "B", res.Pending.Player)
	assert.Equal(t, 1, res.Pending.Min)
}

func TestResolverPurity(t *testing.T) {
	s := fixture(
		&state.PlayerState{ID: "me", Hand: []string{"Sentry"}, Deck: []string{cards.Gold, cards.Curse}, Discard: []string{cards.Copper}},
		&state.PlayerState{ID: "A", Deck: []string{cards.Silver, cards.Gold}},
	)
	before := s.Clone()

	for _, card := range []string{"Sentry", "Bandit", "Library", "Vassal", "Witch"} {
		in := Input{State: s, Player: "me", Targets: []string{"A"}, Source: "src"}
		first := Resolve(card, in)
		again := Resolve(card, in)
		assert.Equal(t, first, again, card)
	}
	assert.Equal(t, before, s)
}

func TestSentryStages(t *testing.T) {
	s := fixture(&state.PlayerState{ID: "a", Deck: []string{cards.Gold, cards.Curse, cards.Estate}})
	in := Input{State: s, Player: "a"}

	first := Resolve("Sentry", in)
	require.NotNil(t, first.Pending)
	assert.Equal(t, "trash", first.Pending.Stage)
	assert.Equal(t, []string{cards.Gold, cards.Curse}, first.Pending.Options)

	in.State = state.ApplyAll(s, first.Events)
	second := Resolve("Sentry", resume(in, first.Pending, cards.Curse))
	require.NotNil(t, second.Pending)
	assert.Equal(t, "discard", second.Pending.Stage)
	assert.Equal(t, []string{cards.Gold}, second.Pending.Options)

	in.State = state.ApplyAll(in.State, second.Events)
	third := Resolve("Sentry", resume(in, second.Pending))
	assert.Nil(t, third.Pending)

	final := state.ApplyAll(in.State, third.Events)
	assert.Equal(t, []string{cards.Gold, cards.Estate}, final.Player("a").Deck)
	assert.Equal(t, []string{cards.Curse}, final.Trash)
}

func TestSentryReorder(t *testing.T) {
	s := fixture(&state.PlayerState{ID: "a", Deck: []string{cards.Gold, cards.Silver}})
	in := Input{State: s, Player: "a"}
	first := Resolve("Sentry", in)
	in.State = state.ApplyAll(s, first.Events)
	second := Resolve("Sentry", resume(in, first.Pending))
	in.State = state.ApplyAll(in.State, second.Events)
	third := Resolve("Sentry", resume(in, second.Pending))
	require.NotNil(t, third.Pending)
	assert.Equal(t, "reorder", third.Pending.Stage)
	assert.Equal(t, 2, third.Pending.Min)

	in.State = state.ApplyAll(in.State, third.Events)
	fourth := Resolve("Sentry", resume(in, third.Pending, cards.Silver, cards.Gold))
	final := state.ApplyAll(in.State, fourth.Events)
	assert.Equal(t, []string{cards.Silver, cards.Gold}, final.Player("a").Deck)
}

func TestLibrarySetAside(t *testing.T) {
	s := fixture(&state.PlayerState{
		ID:   "a",
		Hand: []string{cards.Copper, cards.Copper, cards.Copper, cards.Copper, cards.Copper},
		Deck: []string{"Village", cards.Silver, cards.Gold, cards.Estate},
	})
	in := Input{State: s, Player: "a"}

	first := Resolve("Library", in)
	require.NotNil(t, first.Pending)
	assert.Equal(t, []string{"Village"}, first.Pending.Options)

	in.State = state.ApplyAll(s, first.Events)
	second := Resolve("Library", resume(in, first.Pending, "Village"))
	assert.Nil(t, second.Pending)

	final := state.ApplyAll(in.State, second.Events)
	p := final.Player("a")
	assert.Len(t, p.Hand, 7)
	assert.Equal(t, []string{"Village"}, p.Discard)
	assert.Empty(t, p.SetAside)
	assert.Equal(t, []string{cards.Estate}, p.Deck)
}

func TestLibraryStopsWhenExhausted(t *testing.T) {
	s := fixture(&state.PlayerState{ID: "a", Hand: []string{cards.Copper}, Deck: []string{cards.Silver}})
	res := Resolve("Library", Input{State: s, Player: "a"})
	assert.Nil(t, res.Pending)
	assert.Equal(t, []rules.EventType{rules.EventCardDrawn}, types(res.Events))
}

func TestArtisanTopdeckIncludesGainedCard(t *testing.T) {
	s := fixture(&state.PlayerState{ID: "a", Hand: []string{cards.Estate}})
	in := Input{State: s, Player: "a"}
	first := Resolve("Artisan", in)
	require.NotNil(t, first.Pending)
	assert.NotContains(t, first.Pending.Options, cards.Gold)

	second := Resolve("Artisan", resume(in, first.Pending, "Smithy"))
	require.NotNil(t, second.Pending)
	assert.Equal(t, "topdeck", second.Pending.Stage)
	assert.ElementsMatch(t, []string{cards.Estate, "Smithy"}, second.Pending.Options)
}

func TestThroneRoomSignalsDoublePlay(t *testing.T) {
	s := fixture(&state.PlayerState{ID: "a", Hand: []string{"Smithy", cards.Copper}})
	in := Input{State: s, Player: "a"}
	first := Resolve("Throne Room", in)
	require.NotNil(t, first.Pending)
	assert.Equal(t, []string{"Smithy"}, first.Pending.Options)

	second := Resolve("Throne Room", resume(in, first.Pending, "Smithy"))
	require.NotNil(t, second.Play)
	assert.Equal(t, PlayIntent{Card: "Smithy", From: rules.ZoneHand, Times: 2}, *second.Play)
	assert.Empty(t, second.Events)

	empty := Resolve("Throne Room", Input{State: fixture(&state.PlayerState{ID: "a", Hand: []string{cards.Copper}}), Player: "a"})
	assert.Equal(t, Result{}, empty)
}

func TestVassalPlaysDiscardedAction(t *testing.T) {
	s := fixture(&state.PlayerState{ID: "a", Deck: []string{"Village"}})
	in := Input{State: s, Player: "a"}
	first := Resolve("Vassal", in)
	require.NotNil(t, first.Pending)
	require.Len(t, first.Events, 1)
	assert.Equal(t, rules.EventCardDiscarded, first.Events[0].Type)

	in.State = state.ApplyAll(s, first.Events)
	second := Resolve("Vassal", resume(in, first.Pending, "Village"))
	require.NotNil(t, second.Play)
	assert.Equal(t, rules.ZoneDiscard, second.Play.From)
	assert.Equal(t, 1, second.Play.Times)

	declined := Resolve("Vassal", resume(in, first.Pending))
	assert.Nil(t, declined.Play)
}

func TestBanditAttack(t *testing.T) {
	s := fixture(
		&state.PlayerState{ID: "me"},
		&state.PlayerState{ID: "A", Deck: []string{cards.Copper, cards.Estate}},
		&state.PlayerState{ID: "B", Deck: []string{cards.Silver, cards.Gold}},
	)
	in := Input{State: s, Player: "me", Targets: []string{"A", "B"}}

	first := Resolve("Bandit", in)
	require.NotNil(t, first.Pending)
	assert.Equal(t, "B", first.Pending.Player)
	assert.Equal(t, []string{cards.Silver, cards.Gold}, first.Pending.Options)

	mid := state.ApplyAll(s, first.Events)
	assert.Contains(t, mid.Player("me").Discard, cards.Gold)
	assert.ElementsMatch(t, []string{cards.Copper, cards.Estate}, mid.Player("A").Discard)

	in.State = mid
	second := Resolve("Bandit", resume(in, first.Pending, cards.Gold))
	assert.Nil(t, second.Pending)
	final := state.ApplyAll(mid, second.Events)
	assert.Equal(t, []string{cards.Gold}, final.Trash)
	assert.Equal(t, []string{cards.Silver}, final.Player("B").Discard)
	assert.Empty(t, final.Player("B").Revealed)
}

func TestBureaucratAttack(t *testing.T) {
	s := fixture(
		&state.PlayerState{ID: "me"},
		&state.PlayerState{ID: "A", Hand: []string{cards.Copper, cards.Copper}},
		&state.PlayerState{ID: "B", Hand: []string{cards.Estate, cards.Copper}},
		&state.PlayerState{ID: "C", Hand: []string{cards.Estate, cards.Duchy}},
	)
	in := Input{State: s, Player: "me", Targets: []string{"A", "B", "C"}}

	res := Resolve("Bureaucrat", in)
	require.NotNil(t, res.Pending)
	assert.Equal(t, "C", res.Pending.Player)
	assert.Equal(t, []rules.EventType{rules.EventCardGained, rules.EventHandRevealed, rules.EventCardTopdecked}, types(res.Events))

	mid := state.ApplyAll(s, res.Events)
	assert.Equal(t, []string{cards.Silver}, mid.Player("me").Deck)
	assert.Equal(t, []string{cards.Estate}, mid.Player("B").Deck)
}

func TestWitchCursesTargetsUntilPileEmpty(t *testing.T) {
	s := fixture(&state.PlayerState{ID: "me"}, &state.PlayerState{ID: "A"}, &state.PlayerState{ID: "B"})
	s.Supply[cards.Curse] = 1
	res := Resolve("Witch", Input{State: s, Player: "me", Targets: []string{"A", "B"}})
	require.Len(t, res.Events, 1)
	assert.Equal(t, "A", res.Events[0].Player)
}

func TestMerchantAndMoneylender(t *testing.T) {
	s := fixture(&state.PlayerState{ID: "a", Hand: []string{cards.Copper}})
	res := Resolve("Merchant", Input{State: s, Player: "a"})
	require.Len(t, res.Events, 1)
	assert.Equal(t, rules.EventTreasureBonusAdded, res.Events[0].Type)
	assert.Equal(t, cards.Silver, res.Events[0].Card)

	in := Input{State: s, Player: "a"}
	first := Resolve("Moneylender", in)
	require.NotNil(t, first.Pending)
	second := Resolve("Moneylender", resume(in, first.Pending, cards.Copper))
	assert.Equal(t, []rules.EventType{rules.EventCardTrashed, rules.EventCoinsChanged}, types(second.Events))
	assert.Equal(t, 3, second.Events[1].Amount)
}

func TestPoacherOnlyAsksWithEmptyPiles(t *testing.T) {
	s := fixture(&state.PlayerState{ID: "a", Hand: []string{cards.Copper, cards.Estate}})
	assert.Nil(t, Resolve("Poacher", Input{State: s, Player: "a"}).Pending)

	s.Supply["Village"] = 0
	res := Resolve("Poacher", Input{State: s, Player: "a"})
	require.NotNil(t, res.Pending)
	assert.Equal(t, 1, res.Pending.Min)
}

func TestCouncilRoomOthersDraw(t *testing.T) {
	s := fixture(
		&state.PlayerState{ID: "a"},
		&state.PlayerState{ID: "b", Deck: []string{cards.Copper}},
		&state.PlayerState{ID: "c", Deck: []string{cards.Estate}},
	)
	res := Resolve("Council Room", Input{State: s, Player: "a"})
	require.Len(t, res.Events, 2)
	assert.Equal(t, "b", res.Events[0].Player)
	assert.Equal(t, "c", res.Events[1].Player)
}
