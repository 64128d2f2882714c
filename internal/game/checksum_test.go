package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingdomforge/kingdom-server-go/internal/game/state"
)

func TestChecksumStable(t *testing.T) {
	g := playedGame(t, "game-sum")
	s := g.State()

	sum := Checksum(s)
	assert.Len(t, sum, 64)
	assert.Equal(t, sum, Checksum(s.Clone()))
	assert.Equal(t, sum, Checksum(state.Project(g.Events())))
	require.NoError(t, VerifyChecksum(s, sum))
}

func TestChecksumDetectsChanges(t *testing.T) {
	s := playedGame(t, "game-diff").State()
	sum := Checksum(s)

	changed := s.Clone()
	changed.Supply["Province"]--
	assert.NotEqual(t, sum, Checksum(changed))
	assert.ErrorIs(t, VerifyChecksum(changed, sum), ErrChecksumMismatch)

	moved := s.Clone()
	p := moved.Players["alice"]
	p.Hand, p.Deck = p.Deck, p.Hand
	assert.NotEqual(t, sum, Checksum(moved))
}

func TestChecksumTreatsEmptyZonesAlike(t *testing.T) {
	s := playedGame(t, "game-empty").State()
	before := Checksum(s)

	s.Trash = []string{}
	s.Players["bob"].SetAside = []string{}
	assert.Equal(t, before, Checksum(s))
}

func TestSerializeRoundtrip(t *testing.T) {
	s := playedGame(t, "game-gob").State()

	data, err := SerializeState(s)
	require.NoError(t, err)
	decoded, err := DeserializeState(data)
	require.NoError(t, err)
	assert.Equal(t, Checksum(s), Checksum(decoded))

	require.NoError(t, ValidateRoundtrip(s))
	require.NoError(t, ValidateRoundtrip(state.New()))

	_, err = DeserializeState([]byte("not gob"))
	assert.Error(t, err)
}

func TestLogDigest(t *testing.T) {
	events := playedGame(t, "game-chain").Events()

	full, err := LogDigest(events)
	require.NoError(t, err)
	again, err := LogDigest(events)
	require.NoError(t, err)
	assert.Equal(t, full, again)

	prefix, err := LogDigest(events[:len(events)-1])
	require.NoError(t, err)
	assert.NotEqual(t, full, prefix)

	tampered := append(events[:0:0], events...)
	tampered[3].Card = "Gold"
	other, err := LogDigest(tampered)
	require.NoError(t, err)
	assert.NotEqual(t, full, other)
}
