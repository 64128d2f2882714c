package decision

import (
	"errors"
	"fmt"

	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
)

var (
	// ErrNoChoice is returned when there is nothing to answer.
	ErrNoChoice = errors.New("no pending choice")
	// ErrCardinality is returned when the selection size is out of bounds.
	ErrCardinality = errors.New("wrong number of selections")
	// ErrNotOffered is returned when the selection contains something that was not offered.
	ErrNotOffered = errors.New("selection not offered")
)

// Validate checks a selection against a pending choice. Each option may be
// selected at most as many times as it was offered.
func Validate(choice *rules.PendingChoice, selection []string) error {
	if choice == nil {
		return ErrNoChoice
	}
	if len(selection) < choice.Min {
		return fmt.Errorf("%w: need at least %d, got %d", ErrCardinality, choice.Min, len(selection))
	}
	if len(selection) > choice.Max {
		return fmt.Errorf("%w: need at most %d, got %d", ErrCardinality, choice.Max, len(selection))
	}

	offered := make(map[string]int, len(choice.Options))
	for _, option := range choice.Options {
		offered[option]++
	}
	for _, picked := range selection {
		if offered[picked] == 0 {
			return fmt.Errorf("%w: %q", ErrNotOffered, picked)
		}
		offered[picked]--
	}
	return nil
}
