package rules

import (
	"sync"
)

// EventType indicates the category of a rules event.
type EventType string

const (
	// Setup events
	EventGameStarted EventType = "GAME_STARTED"
	EventDeckDealt   EventType = "DECK_DEALT"

	// Turn events
	EventTurnStarted  EventType = "TURN_STARTED"
	EventPhaseChanged EventType = "PHASE_CHANGED"
	EventTurnEnded    EventType = "TURN_ENDED"
	EventGameEnded    EventType = "GAME_ENDED"

	// Zone events
	EventCardDrawn     EventType = "CARD_DRAWN"
	EventDeckShuffled  EventType = "DECK_SHUFFLED"
	EventCardDiscarded EventType = "CARD_DISCARDED"
	EventCardTrashed   EventType = "CARD_TRASHED"
	EventCardGained    EventType = "CARD_GAINED"
	EventCardBought    EventType = "CARD_BOUGHT"
	EventCardPlayed    EventType = "CARD_PLAYED"
	EventCardTopdecked EventType = "CARD_TOPDECKED"
	EventCardSetAside  EventType = "CARD_SET_ASIDE"
	EventCardRevealed  EventType = "CARD_REVEALED"
	EventHandRevealed  EventType = "HAND_REVEALED"

	// Resource events
	EventActionsChanged      EventType = "ACTIONS_CHANGED"
	EventBuysChanged         EventType = "BUYS_CHANGED"
	EventCoinsChanged        EventType = "COINS_CHANGED"
	EventTreasureBonusAdded  EventType = "TREASURE_BONUS_ADDED"
	EventTreasureBonusCashed EventType = "TREASURE_BONUS_CASHED"

	// Resolution events
	EventResolveQueued    EventType = "RESOLVE_QUEUED"
	EventResolveStarted   EventType = "RESOLVE_STARTED"
	EventAttackBlocked    EventType = "ATTACK_BLOCKED"
	EventDecisionRequired EventType = "DECISION_REQUIRED"
	EventDecisionResolved EventType = "DECISION_RESOLVED"
)

// IsZoneChange returns true if this event type moves a card between zones.
func (et EventType) IsZoneChange() bool {
	switch et {
	case EventCardDrawn, EventCardDiscarded, EventCardTrashed, EventCardGained,
		EventCardPlayed, EventCardTopdecked, EventCardSetAside, EventCardRevealed:
		return true
	}
	return false
}

// Event represents one immutable state change in a game's log.
// ID and Seq are assigned when the event is appended to the log; events
// produced by resolvers carry neither.
type Event struct {
	ID       string    `json:"id,omitempty"`
	Seq      uint64    `json:"seq,omitempty"`
	Type     EventType `json:"type"`
	CausedBy string    `json:"caused_by,omitempty"` // ID of the root command or card play

	Game    string         `json:"game,omitempty"`
	Player  string         `json:"player,omitempty"`
	Card    string         `json:"card,omitempty"`
	From    Zone           `json:"from,omitempty"`
	To      Zone           `json:"to,omitempty"`
	Amount  int            `json:"amount,omitempty"`
	Phase   Phase          `json:"phase,omitempty"`
	Cards   []string       `json:"cards,omitempty"`
	Supply  map[string]int `json:"supply,omitempty"`
	Kingdom []string       `json:"kingdom,omitempty"`
	Seed    uint64         `json:"seed,omitempty,string"`
	Choice  *PendingChoice `json:"choice,omitempty"`
	Scores  map[string]int `json:"scores,omitempty"`
}

// Listener reacts to one committed event of a game.
type Listener func(gameID string, evt Event)

// BatchListener reacts to one committed batch of a game's events.
type BatchListener func(gameID string, events []Event)

type subscription struct {
	handle    int
	eventType EventType // empty for every type
	event     Listener
	batch     BatchListener
}

// EventBus fans committed events out to subscribers. Delivery is
// synchronous and in subscription order; listeners must not subscribe or
// unsubscribe from inside a callback.
type EventBus struct {
	mu         sync.RWMutex
	subs       []subscription
	nextHandle int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{}
}

func (bus *EventBus) add(sub subscription) int {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	sub.handle = bus.nextHandle
	bus.nextHandle++
	bus.subs = append(bus.subs, sub)
	return sub.handle
}

// Subscribe registers a listener for every event and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	return bus.add(subscription{event: listener})
}

// SubscribeTyped registers a listener for a single event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, listener Listener) int {
	if listener == nil {
		return -1
	}
	return bus.add(subscription{eventType: eventType, event: listener})
}

// SubscribeBatch registers a listener that receives whole batches.
func (bus *EventBus) SubscribeBatch(listener BatchListener) int {
	if listener == nil {
		return -1
	}
	return bus.add(subscription{batch: listener})
}

// Unsubscribe removes the listener identified by handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i, sub := range bus.subs {
		if sub.handle == handle {
			bus.subs = append(bus.subs[:i:i], bus.subs[i+1:]...)
			return
		}
	}
}

func (bus *EventBus) snapshot() []subscription {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return append([]subscription(nil), bus.subs...)
}

// Publish delivers a single event to the event listeners.
func (bus *EventBus) Publish(gameID string, evt Event) {
	for _, sub := range bus.snapshot() {
		sub.deliver(gameID, evt)
	}
}

// PublishBatch hands events to the batch listeners, then delivers them one
// at a time, in log order, to the event listeners.
func (bus *EventBus) PublishBatch(gameID string, events []Event) {
	if len(events) == 0 {
		return
	}
	subs := bus.snapshot()
	for _, sub := range subs {
		if sub.batch != nil {
			sub.batch(gameID, events)
		}
	}
	for _, evt := range events {
		for _, sub := range subs {
			sub.deliver(gameID, evt)
		}
	}
}

func (sub subscription) deliver(gameID string, evt Event) {
	if sub.event == nil || (sub.eventType != "" && sub.eventType != evt.Type) {
		return
	}
	sub.event(gameID, evt)
}

// NewEvent creates an event with the common fields populated.
func NewEvent(eventType EventType, playerID, card, causedBy string) Event {
	return Event{
		Type:     eventType,
		Player:   playerID,
		Card:     card,
		CausedBy: causedBy,
	}
}

// NewEventWithAmount creates an event carrying a numeric value.
func NewEventWithAmount(eventType EventType, playerID string, amount int, causedBy string) Event {
	evt := NewEvent(eventType, playerID, "", causedBy)
	evt.Amount = amount
	return evt
}

// NewMoveEvent creates a zone-change event for a single card.
func NewMoveEvent(eventType EventType, playerID, card string, from, to Zone, causedBy string) Event {
	evt := NewEvent(eventType, playerID, card, causedBy)
	evt.From = from
	evt.To = to
	return evt
}
