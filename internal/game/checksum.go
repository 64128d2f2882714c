package game

import (
	"bytes"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
	"github.com/kingdomforge/kingdom-server-go/internal/game/state"
)

// ErrChecksumMismatch is returned when a state or log does not hash to the
// expected value.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// Checksum hashes the rules-relevant content of a state. Two hosts that
// projected the same log get the same checksum.
func Checksum(s *state.GameState) string {
	sum := blake2b.Sum256([]byte(canonical(s)))
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum reports whether s hashes to expected.
func VerifyChecksum(s *state.GameState, expected string) error {
	if got := Checksum(s); got != expected {
		return fmt.Errorf("%w: got %s, want %s", ErrChecksumMismatch, got, expected)
	}
	return nil
}

// canonical writes the state with maps in key order and empty zones spelled
// the same whether nil or not.
func canonical(s *state.GameState) string {
	if s == nil {
		return ""
	}
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:%s|%d|%d|%s|%s|%d|%d|%d|%d|%t|%t|%s\n",
		s.GameID, s.Seed, s.Turn, s.Active, s.Phase,
		s.Actions, s.Buys, s.Coins, s.Shuffles,
		s.Started, s.GameOver, s.Winner,
	)
	fmt.Fprintf(&buf, "ORDER:%s\n", strings.Join(s.Order, ","))
	fmt.Fprintf(&buf, "KINGDOM:%s\n", strings.Join(s.Kingdom, ","))
	fmt.Fprintf(&buf, "SUPPLY:%s\n", joinCounts(s.Supply))
	fmt.Fprintf(&buf, "TRASH:%s\n", strings.Join(s.Trash, ","))
	fmt.Fprintf(&buf, "SCORES:%s\n", joinCounts(s.Scores))

	ids := make([]string, 0, len(s.Players))
	for id := range s.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p := s.Players[id]
		fmt.Fprintf(&buf, "PLAYER:%s|%d|%s\n", p.ID, p.TurnsTaken, joinCounts(p.TreasureBonus))
		fmt.Fprintf(&buf, " hand:%s\n deck:%s\n discard:%s\n inplay:%s\n aside:%s\n revealed:%s\n",
			strings.Join(p.Hand, ","),
			strings.Join(p.Deck, ","),
			strings.Join(p.Discard, ","),
			strings.Join(p.InPlay, ","),
			strings.Join(p.SetAside, ","),
			strings.Join(p.Revealed, ","),
		)
	}

	for _, item := range s.Queue {
		fmt.Fprintf(&buf, "QUEUE:%s|%s|%s\n", item.Player, item.Card, item.Source)
	}
	if c := s.Pending; c != nil {
		fmt.Fprintf(&buf, "PENDING:%s|%s|%s|%s|%s|%d|%d|%s|%s\n",
			c.Player, c.Controller, c.Card, c.Stage, c.From, c.Min, c.Max,
			strings.Join(c.Options, ","), c.Source,
		)
		for _, k := range c.Metadata.Keys() {
			fmt.Fprintf(&buf, " meta:%s=%s\n", k, c.Metadata[k])
		}
	}
	return buf.String()
}

func joinCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, ",")
}

// LogDigest chains a hash over the events in order; a change to any event
// changes the digest of every later position.
func LogDigest(events []rules.Event) (string, error) {
	prev := make([]byte, blake2b.Size256)
	for _, evt := range events {
		payload, err := json.Marshal(evt)
		if err != nil {
			return "", fmt.Errorf("encode event %d: %w", evt.Seq, err)
		}
		h, err := blake2b.New256(prev)
		if err != nil {
			return "", fmt.Errorf("init hash: %w", err)
		}
		h.Write(payload)
		prev = h.Sum(nil)
	}
	return hex.EncodeToString(prev), nil
}

// SerializeState encodes a state with gob.
func SerializeState(s *state.GameState) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeState decodes a state written by SerializeState.
func DeserializeState(data []byte) (*state.GameState, error) {
	var s state.GameState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	if s.Players == nil {
		s.Players = make(map[string]*state.PlayerState)
	}
	if s.Supply == nil {
		s.Supply = make(map[string]int)
	}
	return &s, nil
}

// ValidateRoundtrip checks that a state survives serialization unchanged.
func ValidateRoundtrip(s *state.GameState) error {
	data, err := SerializeState(s)
	if err != nil {
		return err
	}
	decoded, err := DeserializeState(data)
	if err != nil {
		return err
	}
	return VerifyChecksum(decoded, Checksum(s))
}
