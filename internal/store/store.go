// Package store persists game event logs.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
)

var (
	// ErrNotFound is returned when a game has no stored events.
	ErrNotFound = errors.New("game not found")
	// ErrSequence is returned when appended events do not continue the log.
	ErrSequence = errors.New("event sequence mismatch")
)

// EventStore is an append-only log of game events keyed by game id.
type EventStore interface {
	// Append adds events to the end of a game's log. The first event must
	// carry the sequence number after LastSeq.
	Append(ctx context.Context, gameID string, events []rules.Event) error
	// Load returns a game's log in sequence order.
	Load(ctx context.Context, gameID string) ([]rules.Event, error)
	// LastSeq returns the highest stored sequence number, or 0.
	LastSeq(ctx context.Context, gameID string) (uint64, error)
	// ListGames returns every stored game id.
	ListGames(ctx context.Context) ([]string, error)
	Close() error
}

// checkContiguous verifies that events continue a log ending at last.
func checkContiguous(gameID string, last uint64, events []rules.Event) error {
	for i, evt := range events {
		if want := last + uint64(i) + 1; evt.Seq != want {
			return fmt.Errorf("%w: game %s: got seq %d, want %d", ErrSequence, gameID, evt.Seq, want)
		}
	}
	return nil
}

func encodeEvent(evt rules.Event) ([]byte, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("encode event %d: %w", evt.Seq, err)
	}
	return payload, nil
}

func decodeEvent(payload []byte) (rules.Event, error) {
	var evt rules.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return rules.Event{}, fmt.Errorf("decode event: %w", err)
	}
	return evt, nil
}
