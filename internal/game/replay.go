package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kingdomforge/kingdom-server-go/internal/game/rules"
	"github.com/kingdomforge/kingdom-server-go/internal/game/state"
)

const replayVersion = 2

// Replay steps through a recorded event log. Position i is the state after
// the first i+1 events; states are projected on demand and cached.
type Replay struct {
	GameID       string
	Events       []rules.Event
	CurrentIndex int

	mu     sync.RWMutex
	states []*state.GameState
}

// NewReplay creates a replay over events.
func NewReplay(gameID string, events []rules.Event) *Replay {
	return &Replay{
		GameID: gameID,
		Events: append([]rules.Event(nil), events...),
	}
}

// RecordEvents appends events to the replay.
func (r *Replay) RecordEvents(events ...rules.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Events = append(r.Events, events...)
}

// Start resets the replay to the beginning.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CurrentIndex = 0
}

// Next returns the state at the current position and advances. It returns
// nil past the end.
func (r *Replay) Next() *state.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.Events) {
		s := r.stateAt(r.CurrentIndex)
		r.CurrentIndex++
		return s
	}
	return nil
}

// Previous steps back one position and returns that state.
func (r *Replay) Previous() *state.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.stateAt(r.CurrentIndex)
	}
	return nil
}

// Skip moves by count positions, clamped to the log, and returns the state
// there.
func (r *Replay) Skip(count int) *state.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.CurrentIndex + count
	if idx >= len(r.Events) {
		idx = len(r.Events) - 1
	}
	if idx < 0 {
		idx = 0
	}
	r.CurrentIndex = idx
	if idx < len(r.Events) {
		return r.stateAt(idx)
	}
	return nil
}

// Position returns the current index.
func (r *Replay) Position() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.CurrentIndex
}

// Size returns the number of recorded events.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.Events)
}

// GetStateAt returns the state after the event at index.
func (r *Replay) GetStateAt(index int) *state.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index >= 0 && index < len(r.Events) {
		return r.stateAt(index)
	}
	return nil
}

// Final returns the state after the whole log.
func (r *Replay) Final() *state.GameState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return state.Project(r.Events)
}

// Frame summarizes the state at one position of a replay.
type Frame struct {
	Position int    `json:"position"`
	Turn     int    `json:"turn"`
	Active   string `json:"active"`
	Phase    string `json:"phase"`
	Checksum string `json:"checksum"`
}

// Timeline rewinds the replay and returns a frame every step events. The
// last frame is always the final position.
func (r *Replay) Timeline(step int) []Frame {
	if step < 1 {
		step = 1
	}
	last := r.Size() - 1

	var frames []Frame
	r.Start()
	for s := r.Skip(step - 1); s != nil; s = r.Skip(step) {
		idx := r.Position()
		frames = append(frames, Frame{
			Position: idx + 1,
			Turn:     s.Turn,
			Active:   s.Active,
			Phase:    s.Phase.String(),
			Checksum: Checksum(s),
		})
		if idx >= last {
			break
		}
	}
	return frames
}

// Verify rewinds the replay, steps through every event and checks the
// stepped state against a one-pass projection, then checks that the final
// state survives serialization.
func (r *Replay) Verify() error {
	r.Start()
	var stepped *state.GameState
	for s := r.Next(); s != nil; s = r.Next() {
		stepped = s
	}
	if stepped == nil {
		return nil
	}
	if err := VerifyChecksum(stepped, Checksum(r.Final())); err != nil {
		return fmt.Errorf("replay %s: %w", r.GameID, err)
	}
	if err := ValidateRoundtrip(stepped); err != nil {
		return fmt.Errorf("replay %s: %w", r.GameID, err)
	}
	return nil
}

// stateAt extends the cache up to index. Callers hold the write lock.
func (r *Replay) stateAt(index int) *state.GameState {
	for len(r.states) <= index {
		prev := state.New()
		if n := len(r.states); n > 0 {
			prev = r.states[n-1]
		}
		r.states = append(r.states, state.Apply(prev, r.Events[len(r.states)]))
	}
	return r.states[index].Clone()
}

// SaveToFile writes the replay to <directory>/<game id>.replay as gzipped
// gob.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(replayPath(directory, r.GameID))
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	enc := gob.NewEncoder(gz)

	meta := replayMetadata{
		GameID:     r.GameID,
		Timestamp:  time.Now().UTC(),
		Version:    replayVersion,
		EventCount: len(r.Events),
		Checksum:   Checksum(state.Project(r.Events)),
	}
	if err := enc.Encode(&meta); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	for i := range r.Events {
		if err := enc.Encode(&r.Events[i]); err != nil {
			return fmt.Errorf("failed to encode event %d: %w", i, err)
		}
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to flush replay: %w", err)
	}
	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile and checks that
// the log still projects to the recorded checksum.
func LoadReplayFromFile(directory, gameID string) (*Replay, error) {
	file, err := os.Open(replayPath(directory, gameID))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	dec := gob.NewDecoder(gz)
	var meta replayMetadata
	if err := dec.Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if meta.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", meta.Version)
	}

	events := make([]rules.Event, 0, meta.EventCount)
	for i := 0; i < meta.EventCount; i++ {
		var evt rules.Event
		if err := dec.Decode(&evt); err != nil {
			return nil, fmt.Errorf("failed to decode event %d: %w", i, err)
		}
		events = append(events, evt)
	}

	replay := NewReplay(meta.GameID, events)
	if err := VerifyChecksum(replay.Final(), meta.Checksum); err != nil {
		return nil, fmt.Errorf("replay %s: %w", gameID, err)
	}
	return replay, nil
}

func replayPath(directory, gameID string) string {
	return filepath.Join(directory, gameID+".replay")
}

type replayMetadata struct {
	GameID     string
	Timestamp  time.Time
	Version    int
	EventCount int
	Checksum   string
}

// ReplayRecorder collects the logs of running games and writes them to disk
// when they finish.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay
	enabled map[string]bool
	saveDir string
}

// NewReplayRecorder creates a recorder saving into saveDir.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		enabled: make(map[string]bool),
		saveDir: saveDir,
	}
}

// StartRecording begins recording a game.
func (rr *ReplayRecorder) StartRecording(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if _, ok := rr.replays[gameID]; !ok {
		rr.replays[gameID] = NewReplay(gameID, nil)
	}
	rr.enabled[gameID] = true

	if rr.logger != nil {
		rr.logger.Info("started replay recording", zap.String("game_id", gameID))
	}
}

// StopRecording stops recording a game; what was recorded is kept.
func (rr *ReplayRecorder) StopRecording(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.enabled[gameID] = false

	if rr.logger != nil {
		rr.logger.Info("stopped replay recording", zap.String("game_id", gameID))
	}
}

// RecordEvents appends events if recording is enabled for the game.
func (rr *ReplayRecorder) RecordEvents(gameID string, events []rules.Event) {
	rr.mu.RLock()
	enabled := rr.enabled[gameID]
	replay := rr.replays[gameID]
	rr.mu.RUnlock()

	if !enabled || replay == nil {
		return
	}
	replay.RecordEvents(events...)

	if rr.logger != nil {
		rr.logger.Debug("recorded replay events",
			zap.String("game_id", gameID),
			zap.Int("event_count", replay.Size()),
		)
	}
}

// GetReplay returns the in-memory replay for a game.
func (rr *ReplayRecorder) GetReplay(gameID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	replay, ok := rr.replays[gameID]
	return replay, ok
}

// SaveReplay writes a replay to disk and drops it from memory.
func (rr *ReplayRecorder) SaveReplay(gameID string) error {
	rr.mu.Lock()
	replay, ok := rr.replays[gameID]
	if !ok {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for game %s", gameID)
	}
	delete(rr.replays, gameID)
	delete(rr.enabled, gameID)
	rr.mu.Unlock()

	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}
	if rr.logger != nil {
		rr.logger.Info("saved replay to disk",
			zap.String("game_id", gameID),
			zap.Int("event_count", replay.Size()),
			zap.String("directory", rr.saveDir),
		)
	}
	return nil
}

// LoadReplay reads a saved replay.
func (rr *ReplayRecorder) LoadReplay(gameID string) (*Replay, error) {
	replay, err := LoadReplayFromFile(rr.saveDir, gameID)
	if err != nil {
		return nil, err
	}
	if rr.logger != nil {
		rr.logger.Info("loaded replay from disk",
			zap.String("game_id", gameID),
			zap.Int("event_count", replay.Size()),
		)
	}
	return replay, nil
}

// ClearReplay drops a replay without saving it.
func (rr *ReplayRecorder) ClearReplay(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	delete(rr.replays, gameID)
	delete(rr.enabled, gameID)
}

// IsRecording reports whether a game is being recorded.
func (rr *ReplayRecorder) IsRecording(gameID string) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	return rr.enabled[gameID]
}
